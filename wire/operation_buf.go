/*
File Name:  operation_buf.go
Package:    wire

Encoders for the outbound operations this crawler may emit, grounded on
the original source's OperationBuf::write_to: only BootstrapReq is
actually serialized; the remaining variants are declared but return
ErrNotImplemented when asked to encode themselves.
*/

package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrNotImplemented is returned by OperationBuf.WriteTo for declared
// but not-yet-encoded operation variants.
var ErrNotImplemented = errors.New("wire: operation encoding not implemented")

// OperationBufKind discriminates the outbound operation variants.
type OperationBufKind int

const (
	OpBufBootstrapReq OperationBufKind = iota
	OpBufPong
	OpBufHelloRes
	OpBufPublishSourceReq
	OpBufFindBuddyReqV1
)

// OperationBuf is an outbound operation awaiting wire encoding.
// BootstrapReq and HelloRes carry no parameters; the fields below belong
// to the Pong, PublishSourceReq and FindBuddyReqV1 variants.
type OperationBuf struct {
	Kind OperationBufKind

	// Pong: the udp port the Ping was received from.
	RecvPort uint16

	// PublishSourceReq / FindBuddyReqV1 identifiers.
	TargetIDLo, TargetIDHi   uint64
	ContactIDLo, ContactIDHi uint64
	SrcClientPort            uint16
}

// WriteTo emits the operation's wire form into w with a single Write
// call. No encryption or compression is applied to any operation.
func (o *OperationBuf) WriteTo(w io.Writer) error {
	switch o.Kind {
	case OpBufBootstrapReq:
		_, err := w.Write([]byte{byte(ProtoKademliaHeader), byte(OpBootstrapReq)})
		return err
	case OpBufPong, OpBufHelloRes, OpBufPublishSourceReq, OpBufFindBuddyReqV1:
		return ErrNotImplemented
	default:
		return fmt.Errorf("wire: unknown operation kind %d", o.Kind)
	}
}

// EncodeBootstrapReq builds the two-byte wire form of a BootstrapReq
// datagram: [ProtoKademliaHeader, OpBootstrapReq].
func EncodeBootstrapReq() []byte {
	return []byte{byte(ProtoKademliaHeader), byte(OpBootstrapReq)}
}

// EncodeReq builds a FIND_NODE-style Req datagram of the given request
// type targeting targetLo/Hi, carrying checkLo/Hi as the value the
// responder matches against its own node ID.
func EncodeReq(reqType uint8, targetLo, targetHi, checkLo, checkHi uint64) []byte {
	buf := make([]byte, 2+reqSize)
	buf[0] = byte(ProtoKademliaHeader)
	buf[1] = byte(OpReq)
	buf[2] = reqType
	putU128(buf[3:19], targetLo, targetHi)
	putU128(buf[19:35], checkLo, checkHi)
	return buf
}

func putU128(b []byte, lo, hi uint64) {
	binary.LittleEndian.PutUint64(b[:8], lo)
	binary.LittleEndian.PutUint64(b[8:], hi)
}
