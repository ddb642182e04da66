/*
File Name:  nodes_dat.go
Package:    fileformat

Grounded on original_source/src/nodes.rs's parse_version_1/parse, with the
two bugs documented there fixed rather than replicated: the uid field is
read as the full 16-byte little-endian u128 the wire actually carries
(the source reads only 8 bytes via rem[..8]), and every cursor advance
consumes a true suffix (rem = rem[n:]) instead of the source's
non-advancing prefix slice (rem = &rem[..n]), which would otherwise loop
on the same bytes forever.
*/

package fileformat

import (
	"fmt"

	"github.com/emuled/remule/wire"
)

// NodesDatVersion identifies which of the three on-disk nodes.dat layouts
// a file used.
type NodesDatVersion int

const (
	// NodesDatLegacy is the version-0 layout: a bare count followed
	// immediately by contacts, no version field at all.
	NodesDatLegacy NodesDatVersion = 0
	NodesDatV1     NodesDatVersion = 1
	NodesDatV2     NodesDatVersion = 2
	NodesDatV3     NodesDatVersion = 3
)

// NodesDatContact is a single contact entry decoded from nodes.dat. The
// KadUDPKey*/Verified fields are only meaningful when HasExtended is true
// (version >= 2 files).
type NodesDatContact struct {
	KadIDLo, KadIDHi uint64
	IP               uint32
	UDPPort          uint16
	TCPPort          uint16
	ContactVersion   uint8
	KadUDPKeyDWKey   uint32
	KadUDPKeyDWIP    uint32
	Verified         uint8
	HasExtended      bool
}

// NodesDat is the fully decoded contents of a nodes.dat file.
type NodesDat struct {
	Version          NodesDatVersion
	BootstrapEdition bool
	Contacts         []*NodesDatContact
}

// ErrUnknownNodesDatVersion is returned for a declared version field > 3.
type ErrUnknownNodesDatVersion struct {
	Version uint32
}

func (e *ErrUnknownNodesDatVersion) Error() string {
	return fmt.Sprintf("fileformat: unknown nodes.dat version %d", e.Version)
}

// ErrSpareBytes is returned when a parser consumes fewer bytes than the
// input buffer holds.
type ErrSpareBytes struct {
	Extra int
}

func (e *ErrSpareBytes) Error() string {
	return fmt.Sprintf("fileformat: %d spare bytes after parsing", e.Extra)
}

// ParseNodesDat decodes a complete nodes.dat file. Every byte of buf must
// be consumed; any trailing residue is reported as ErrSpareBytes.
func ParseNodesDat(buf []byte) (*NodesDat, error) {
	c := wire.NewCursor(buf)

	count, err := c.U32()
	if err != nil {
		return nil, err
	}

	if count != 0 {
		// version-0 legacy layout: the count we just read IS the contact
		// count, no version field follows.
		contacts, err := parseNodesDatContacts(c, int(count), 0)
		if err != nil {
			return nil, err
		}
		if c.Remaining() != 0 {
			return nil, &ErrSpareBytes{Extra: c.Remaining()}
		}
		return &NodesDat{Version: NodesDatLegacy, Contacts: contacts}, nil
	}

	version, err := c.U32()
	if err != nil {
		return nil, err
	}
	if version > 3 {
		return nil, &ErrUnknownNodesDatVersion{Version: version}
	}

	bootstrapEdition := false
	if version == 3 {
		edition, err := c.U32()
		if err != nil {
			return nil, err
		}
		bootstrapEdition = edition == 1
	}

	contactCount, err := c.U32()
	if err != nil {
		return nil, err
	}

	// bootstrap-edition files carry plain 25-byte contact records with no
	// kad_udp_key/verified trailer regardless of the declared version.
	layoutVersion := version
	if bootstrapEdition {
		layoutVersion = 1
	}

	contacts, err := parseNodesDatContacts(c, int(contactCount), layoutVersion)
	if err != nil {
		return nil, err
	}

	if c.Remaining() != 0 {
		return nil, &ErrSpareBytes{Extra: c.Remaining()}
	}

	return &NodesDat{
		Version:          NodesDatVersion(version),
		BootstrapEdition: bootstrapEdition,
		Contacts:         contacts,
	}, nil
}

// parseNodesDatContacts decodes count fixed-size contact records off c
// according to the field layout for the given nodes.dat version: version 0
// has no contact_version byte's successor fields; version 1 stops after
// contact_version; version >= 2 additionally carries the kad_udp_key
// pair and a verified flag.
func parseNodesDatContacts(c *wire.Cursor, count int, version uint32) ([]*NodesDatContact, error) {
	out := make([]*NodesDatContact, 0, count)
	for i := 0; i < count; i++ {
		lo, hi, err := c.U128()
		if err != nil {
			return nil, err
		}
		ip, err := c.IPv4()
		if err != nil {
			return nil, err
		}
		udpPort, err := c.U16()
		if err != nil {
			return nil, err
		}
		tcpPort, err := c.U16()
		if err != nil {
			return nil, err
		}
		ver, err := c.U8()
		if err != nil {
			return nil, err
		}

		ct := &NodesDatContact{
			KadIDLo: lo, KadIDHi: hi,
			IP: ip, UDPPort: udpPort, TCPPort: tcpPort,
			ContactVersion: ver,
		}

		if version >= 2 {
			dwKey, err := c.U32()
			if err != nil {
				return nil, err
			}
			dwIP, err := c.U32()
			if err != nil {
				return nil, err
			}
			verified, err := c.U8()
			if err != nil {
				return nil, err
			}
			ct.KadUDPKeyDWKey = dwKey
			ct.KadUDPKeyDWIP = dwIP
			ct.Verified = verified
			ct.HasExtended = true
		}

		out = append(out, ct)
	}
	return out, nil
}
