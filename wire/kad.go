/*
File Name:  kad.go
Package:    wire

Bit-exact layouts grounded on emule-proto/src/udp_proto.rs's KadOpCode,
BootstrapResp, Req, Res, SearchRes and their contact sub-structures. Two
corrections from that source: BootstrapRespContact decoding returns an
error on an undersized buffer instead of panicking via slice indexing,
and every u128 ID field is read as the full 16 bytes (see Cursor.U128).
*/

package wire

// KadOpCode identifies the operation carried by a Kad packet, once the
// leading proto byte has been stripped.
type KadOpCode byte

const (
	OpBootstrapReqV0     KadOpCode = 0x00
	OpBootstrapReq       KadOpCode = 0x01
	OpBootstrapResV0     KadOpCode = 0x08
	OpBootstrapResp      KadOpCode = 0x09
	OpHelloReqV0         KadOpCode = 0x10
	OpHelloReq           KadOpCode = 0x11
	OpHelloResV0         KadOpCode = 0x18
	OpHelloRes           KadOpCode = 0x19
	OpReqV0              KadOpCode = 0x20
	OpReq                KadOpCode = 0x21
	OpHelloResAck        KadOpCode = 0x22
	OpResV0              KadOpCode = 0x28
	OpRes                KadOpCode = 0x29
	OpSearchReqV1        KadOpCode = 0x30
	OpSearchNotesReqV1   KadOpCode = 0x32
	OpSearchKeyReq       KadOpCode = 0x33
	OpSearchSourceReq    KadOpCode = 0x34
	OpSearchNotesReq     KadOpCode = 0x35
	OpSearchResV1        KadOpCode = 0x38
	OpSearchNotesResV1   KadOpCode = 0x3A
	OpSearchRes          KadOpCode = 0x3B
	OpPublishReqV1       KadOpCode = 0x40
	OpPublishNotesReqV0  KadOpCode = 0x42
	OpPublishKeyReq      KadOpCode = 0x43
	OpPublishSourceReq   KadOpCode = 0x44
	OpPublishNotesReq    KadOpCode = 0x45
	OpPublishResV1       KadOpCode = 0x48
	OpPublishNotesResV0  KadOpCode = 0x4A
	OpPublishRes         KadOpCode = 0x4B
	OpPublishResAck      KadOpCode = 0x4C
	OpFirewalledReqV1    KadOpCode = 0x50
	OpFindBuddyReqV1     KadOpCode = 0x51
	OpCallbackReqV1      KadOpCode = 0x52
	OpFirewalled2ReqV1   KadOpCode = 0x53
	OpFirewalledResV1    KadOpCode = 0x58
	OpFirewalledAckResV1 KadOpCode = 0x59
	OpFindBuddyResV1     KadOpCode = 0x5A
	OpPing               KadOpCode = 0x60
	OpPong               KadOpCode = 0x61
	OpFirewallUdp        KadOpCode = 0x62
)

// KadPacket is the opcode-dispatched payload of a ProtoKademliaHeader (or
// inflated ProtoKademliaPacked) datagram.
type KadPacket struct {
	Opcode KadOpCode
	Body   []byte
}

// KadPacketFromBytes splits the leading opcode byte off a Kad payload.
func KadPacketFromBytes(payload []byte) (*KadPacket, error) {
	if len(payload) < 1 {
		return nil, ErrKadPacketTooShort
	}
	return &KadPacket{Opcode: KadOpCode(payload[0]), Body: payload[1:]}, nil
}

// Contact is a single Kad peer entry as carried in BootstrapResp/Res
// contact lists.
type Contact struct {
	IDLo, IDHi     uint64
	IP             uint32
	UDPPort        uint16
	TCPPort        uint16
	ContactVersion uint8
}

const contactSize = 16 + 4 + 2 + 2 + 1

// ContactFromBytes decodes a single Contact from the head of buf and
// returns the remainder.
func ContactFromBytes(buf []byte) (*Contact, []byte, error) {
	if len(buf) < contactSize {
		return nil, nil, &ErrContactSizeMismatch{Count: 1, PerSize: contactSize, Have: len(buf)}
	}
	c := NewCursor(buf[:contactSize])
	lo, hi, _ := c.U128()
	ip, _ := c.U32()
	udp, _ := c.U16()
	tcp, _ := c.U16()
	ver, _ := c.U8()
	return &Contact{IDLo: lo, IDHi: hi, IP: ip, UDPPort: udp, TCPPort: tcp, ContactVersion: ver}, buf[contactSize:], nil
}

// ContactsFromBytes decodes exactly count contacts out of buf. The
// buffer must hold exactly count fixed-size records; residue (or a
// shortfall) is an error.
func ContactsFromBytes(count int, buf []byte) ([]*Contact, error) {
	need := count * contactSize
	if len(buf) != need {
		return nil, &ErrContactSizeMismatch{Count: count, PerSize: contactSize, Have: len(buf)}
	}
	rest := buf
	out := make([]*Contact, 0, count)
	for i := 0; i < count; i++ {
		contact, remainder, err := ContactFromBytes(rest)
		if err != nil {
			return nil, err
		}
		out = append(out, contact)
		rest = remainder
	}
	return out, nil
}

// BootstrapResp is the response to a BootstrapReq: the responder's own
// identity followed by a list of contacts it knows about. Unlike Res and
// SearchRes, BootstrapResp validates its contact list lazily: decoding
// the envelope only checks the header, so a caller that only needs the
// responder's identity never touches the contact bytes. Contacts (and
// ContactsIter) perform a single exact-length check on the contact
// block; after that check passes, iteration cannot fail.
type BootstrapResp struct {
	ClientIDLo, ClientIDHi uint64
	ClientPort             uint16
	ClientVersion          uint8
	NumContacts            uint16
	contactBytes           []byte
}

// BootstrapRespFromBytes decodes a BootstrapResp envelope (the Kad
// payload minus the opcode byte) without validating its contact list.
func BootstrapRespFromBytes(body []byte) (*BootstrapResp, error) {
	c := NewCursor(body)

	lo, hi, err := c.U128()
	if err != nil {
		return nil, err
	}
	port, err := c.U16()
	if err != nil {
		return nil, err
	}
	version, err := c.U8()
	if err != nil {
		return nil, err
	}
	numContacts, err := c.U16()
	if err != nil {
		return nil, err
	}

	return &BootstrapResp{
		ClientIDLo:    lo,
		ClientIDHi:    hi,
		ClientPort:    port,
		ClientVersion: version,
		NumContacts:   numContacts,
		contactBytes:  c.Rest(),
	}, nil
}

// Contacts validates the contact block's length against NumContacts and
// decodes every declared contact. A block whose length is not exactly
// NumContacts fixed-size records is an error.
func (b *BootstrapResp) Contacts() ([]*Contact, error) {
	return ContactsFromBytes(int(b.NumContacts), b.contactBytes)
}

// ContactsIter length-checks the contact block once, then returns a
// function yielding one contact per call. The second return value is
// false once NumContacts entries have been yielded; iteration itself
// cannot fail after the initial check.
func (b *BootstrapResp) ContactsIter() (func() (*Contact, bool), error) {
	need := int(b.NumContacts) * contactSize
	if len(b.contactBytes) != need {
		return nil, &ErrContactSizeMismatch{Count: int(b.NumContacts), PerSize: contactSize, Have: len(b.contactBytes)}
	}

	remaining := b.contactBytes
	yielded := uint16(0)
	return func() (*Contact, bool) {
		if yielded >= b.NumContacts {
			return nil, false
		}
		contact, rest, _ := ContactFromBytes(remaining)
		remaining = rest
		yielded++
		return contact, true
	}, nil
}

// Req is a FIND_NODE-style request: a request type byte, the target ID
// being searched for, and a check value that must match the responder's
// own node ID for the request to be processed.
type Req struct {
	Type               uint8
	TargetLo, TargetHi uint64
	CheckLo, CheckHi   uint64
}

const reqSize = 1 + 16 + 16

// ReqFromBytes decodes a Req body. The body must be exactly 33 bytes.
func ReqFromBytes(body []byte) (*Req, error) {
	if len(body) < reqSize {
		return nil, &ErrShortBuffer{Need: reqSize, Have: len(body)}
	}
	if len(body) > reqSize {
		return nil, &ErrTrailingBytes{Extra: len(body) - reqSize}
	}
	c := NewCursor(body)
	reqType, _ := c.U8()
	targetLo, targetHi, _ := c.U128()
	checkLo, checkHi, _ := c.U128()
	return &Req{Type: reqType, TargetLo: targetLo, TargetHi: targetHi, CheckLo: checkLo, CheckHi: checkHi}, nil
}

// Res answers a Req with the contacts closest to the requested target.
// Unlike BootstrapResp, each contact is validated eagerly as it is
// decoded so a truncated list fails immediately rather than silently
// returning a short slice.
type Res struct {
	TargetLo, TargetHi uint64
	Contacts           []*Contact
}

// ResFromBytes decodes a Res body.
func ResFromBytes(body []byte) (*Res, error) {
	c := NewCursor(body)

	targetLo, targetHi, err := c.U128()
	if err != nil {
		return nil, err
	}
	numContacts, err := c.U8()
	if err != nil {
		return nil, err
	}

	contacts, err := ContactsFromBytes(int(numContacts), c.Rest())
	if err != nil {
		return nil, err
	}

	return &Res{TargetLo: targetLo, TargetHi: targetHi, Contacts: contacts}, nil
}

// SearchResult is one hit within a SearchRes: an object ID and its tags.
type SearchResult struct {
	IDLo, IDHi uint64
	Tags       *TagList
}

// SearchRes is the response to a keyword/source search.
type SearchRes struct {
	SourceIDLo, SourceIDHi uint64
	TargetIDLo, TargetIDHi uint64
	Results                []*SearchResult
}

// SearchResFromBytes decodes a SearchRes body. Every result is validated
// eagerly, matching Res's eager-validation contract; a
// malformed tag anywhere in the list fails the whole decode.
func SearchResFromBytes(body []byte) (*SearchRes, error) {
	c := NewCursor(body)

	sourceLo, sourceHi, err := c.U128()
	if err != nil {
		return nil, err
	}
	targetLo, targetHi, err := c.U128()
	if err != nil {
		return nil, err
	}
	resultCount, err := c.U16()
	if err != nil {
		return nil, err
	}

	results := make([]*SearchResult, 0, resultCount)
	for i := uint16(0); i < resultCount; i++ {
		idLo, idHi, err := c.U128()
		if err != nil {
			return nil, err
		}
		tags, n, err := TagListFromBytes(c.Rest())
		if err != nil {
			return nil, err
		}
		if _, err := c.Take(n); err != nil {
			return nil, err
		}
		results = append(results, &SearchResult{IDLo: idLo, IDHi: idHi, Tags: tags})
	}

	return &SearchRes{
		SourceIDLo: sourceLo, SourceIDHi: sourceHi,
		TargetIDLo: targetLo, TargetIDHi: targetHi,
		Results: results,
	}, nil
}
