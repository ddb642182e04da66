/*
File Name:  clients_met.go
Package:    fileformat

Grounded on original_source/src/clientcredit.rs's CreditData29a/CreditData
and parse(): a version byte selects a 42-byte (0x11) or 123-byte (0x12)
fixed record, then a u32 count, then that many records. Combines the
uploaded/downloaded hi:lo halves into single uint64 counters as the
source does, and surfaces LastSeen as both the raw on-disk uint32 and a
decoded time.Time — the on-disk field is 32-bit seconds-since-epoch and
will wrap in 2038, a limitation inherited from the file format itself,
not hidden behind a wider type.
*/

package fileformat

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/emuled/remule/wire"
)

const (
	creditFileVersion29 = 0x11 // 42-byte records
	creditFileVersion   = 0x12 // 123-byte records (42 + 1 + 80)

	creditKeySize       = 16
	creditBaseSize      = creditKeySize + 4 + 4 + 4 + 4 + 4 + 2 // 42
	creditMaxPubKeySize = 80
	creditExtendedSize  = creditBaseSize + 1 + creditMaxPubKeySize // 123
)

// ClientCredit is one decoded clients.met record.
type ClientCredit struct {
	Key          [creditKeySize]byte
	Uploaded     uint64
	Downloaded   uint64
	LastSeenUnix uint32 // raw on-disk value; 32-bit seconds since epoch, wraps in 2038
	LastSeen     time.Time
	KeySize      uint8  // 0 for version 0x11 records, which carry no public key
	SecureIdent  []byte // first KeySize bytes of the 80-byte buffer; nil for version 0x11
}

// ErrUnknownClientsMetVersion is returned for a version byte other than
// 0x11 or 0x12.
type ErrUnknownClientsMetVersion struct {
	Version byte
}

func (e *ErrUnknownClientsMetVersion) Error() string {
	return fmt.Sprintf("fileformat: unknown clients.met version 0x%02x", e.Version)
}

// ParseClientsMet decodes a clients.met buffer. Every byte of buf must be
// consumed; any trailing residue is reported as ErrSpareBytes.
func ParseClientsMet(buf []byte) ([]*ClientCredit, error) {
	c := wire.NewCursor(buf)

	version, err := c.U8()
	if err != nil {
		return nil, err
	}

	var entrySize int
	extended := false
	switch version {
	case creditFileVersion29:
		entrySize = creditBaseSize
	case creditFileVersion:
		entrySize = creditExtendedSize
		extended = true
	default:
		return nil, &ErrUnknownClientsMetVersion{Version: version}
	}

	count, err := c.U32()
	if err != nil {
		return nil, err
	}

	out := make([]*ClientCredit, 0, count)
	for i := uint32(0); i < count; i++ {
		record, err := c.Take(entrySize)
		if err != nil {
			return nil, err
		}
		out = append(out, decodeClientCredit(record, extended))
	}

	if c.Remaining() != 0 {
		return nil, &ErrSpareBytes{Extra: c.Remaining()}
	}

	return out, nil
}

func decodeClientCredit(record []byte, extended bool) *ClientCredit {
	cc := &ClientCredit{}
	copy(cc.Key[:], record[0:16])

	uploadedLo := binary.LittleEndian.Uint32(record[16:20])
	downloadedLo := binary.LittleEndian.Uint32(record[20:24])
	lastSeen := binary.LittleEndian.Uint32(record[24:28])
	uploadedHi := binary.LittleEndian.Uint32(record[28:32])
	downloadedHi := binary.LittleEndian.Uint32(record[32:36])
	// record[36:38] is a reserved u16, not surfaced.

	cc.Uploaded = uint64(uploadedHi)<<32 | uint64(uploadedLo)
	cc.Downloaded = uint64(downloadedHi)<<32 | uint64(downloadedLo)
	cc.LastSeenUnix = lastSeen
	cc.LastSeen = time.Unix(int64(lastSeen), 0).UTC()

	if extended {
		keySize := record[creditBaseSize]
		pubKey := record[creditBaseSize+1 : creditBaseSize+1+creditMaxPubKeySize]
		cc.KeySize = keySize
		if int(keySize) <= len(pubKey) {
			cc.SecureIdent = append([]byte(nil), pubKey[:keySize]...)
		}
	}

	return cc
}
