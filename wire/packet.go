/*
File Name:  packet.go
Package:    wire

Grounded on emule-proto/src/udp_proto.rs's Packet::from_slice / udp_proto()
/ is_packed(). The KademliaPacked case prepends the opcode byte (the
second byte of the raw packet) back onto the inflated payload, matching
the original's own framing rather than dropping it.
*/

package wire

import (
	"bytes"
	"compress/zlib"
	"io/ioutil"
)

// UdpProto identifies the leading byte of a raw UDP datagram.
type UdpProto byte

const (
	ProtoEmule          UdpProto = 0xC5
	ProtoKademliaPacked UdpProto = 0xE5
	ProtoKademliaHeader UdpProto = 0xE4
	ProtoPacked         UdpProto = 0xD4
	ProtoReserved1      UdpProto = 0xA3
	ProtoReserved2      UdpProto = 0xB2
)

func (p UdpProto) known() bool {
	switch p {
	case ProtoEmule, ProtoKademliaPacked, ProtoKademliaHeader, ProtoPacked, ProtoReserved1, ProtoReserved2:
		return true
	}
	return false
}

// Packet is a decoded UDP datagram: its proto byte and the payload that
// follows, with KademliaPacked payloads already inflated. An inflated
// KademliaPacked datagram is reported with Proto ProtoKademliaHeader.
type Packet struct {
	Proto   UdpProto
	Payload []byte
}

// FromBytes parses the leading proto byte of raw and, for KademliaPacked,
// inflates the zlib-compressed remainder.
func FromBytes(raw []byte) (*Packet, error) {
	if len(raw) < 1 {
		return nil, ErrPacketTooShort
	}

	proto := UdpProto(raw[0])
	if !proto.known() {
		return nil, &ErrUnrecognizedProto{Proto: raw[0]}
	}

	if proto == ProtoKademliaHeader {
		return &Packet{Proto: proto, Payload: raw[1:]}, nil
	}

	if proto != ProtoKademliaPacked {
		// recognized, but not a Kad proto this module decodes further.
		return nil, &ErrUnhandledProto{Proto: raw[0]}
	}

	if len(raw) < 2 {
		return nil, ErrPacketTooShort
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw[2:]))
	if err != nil {
		return nil, &ErrDecompress{Cause: err}
	}
	defer zr.Close()

	inflated, err := ioutil.ReadAll(zr)
	if err != nil {
		return nil, &ErrDecompress{Cause: err}
	}

	// the opcode byte that immediately follows the proto byte belongs to
	// the compressed Kad payload, not to the zlib stream.
	payload := make([]byte, 0, len(inflated)+1)
	payload = append(payload, raw[1])
	payload = append(payload, inflated...)

	return &Packet{Proto: ProtoKademliaHeader, Payload: payload}, nil
}

// IsKad reports whether the packet carries a Kad opcode payload.
func (p *Packet) IsKad() bool {
	return p.Proto == ProtoKademliaHeader
}
