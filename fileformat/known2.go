/*
File Name:  known2.go
Package:    fileformat

Grounded on emule-proto/src/known2.rs's parse(): a leading version byte,
then repeated (root hash, child count, children) tree records until EOF.
*/

package fileformat

import (
	"fmt"

	"github.com/emuled/remule/wire"
)

const known2Version = 0x02
const caichHashSize = 20

// CaichHash is a single 20-byte CAICH content hash.
type CaichHash [caichHashSize]byte

// CaichTree is one root hash and the child hashes it owns, as stored in
// known2_64.dat.
type CaichTree struct {
	Root     CaichHash
	Children []CaichHash
}

// ErrUnknownKnown2Version is returned when the leading byte is not 0x02.
type ErrUnknownKnown2Version struct {
	Version byte
}

func (e *ErrUnknownKnown2Version) Error() string {
	return fmt.Sprintf("fileformat: unknown known2 version 0x%02x", e.Version)
}

// ParseKnown2 decodes a known2_64.dat buffer into its CAICH trees. Every
// byte of buf must be consumed; a short trailing tree record is an error.
func ParseKnown2(buf []byte) ([]*CaichTree, error) {
	c := wire.NewCursor(buf)

	version, err := c.U8()
	if err != nil {
		return nil, err
	}
	if version != known2Version {
		return nil, &ErrUnknownKnown2Version{Version: version}
	}

	var trees []*CaichTree
	for c.Remaining() > 0 {
		if c.Remaining() < caichHashSize+4 {
			return nil, &ErrSpareBytes{Extra: c.Remaining()}
		}

		rootBytes, err := c.Take(caichHashSize)
		if err != nil {
			return nil, err
		}
		childCount, err := c.U32()
		if err != nil {
			return nil, err
		}

		tree := &CaichTree{Children: make([]CaichHash, 0, childCount)}
		copy(tree.Root[:], rootBytes)

		for i := uint32(0); i < childCount; i++ {
			childBytes, err := c.Take(caichHashSize)
			if err != nil {
				return nil, err
			}
			var child CaichHash
			copy(child[:], childBytes)
			tree.Children = append(tree.Children, child)
		}

		trees = append(trees, tree)
	}

	return trees, nil
}
