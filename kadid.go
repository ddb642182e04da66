/*
File Name:  kadid.go
Package:    remule

Kad IDs are 128-bit values carried everywhere else as a (lo, hi) uint64
pair (wire.Cursor.U128's own split) but persisted in the peer table as
decimal text (spec.md §3.2). This file is the one place that bridges the
two representations; narrow enough that no pack dependency covers it, so
it is built on stdlib math/big (see DESIGN.md).
*/

package remule

import "math/big"

// KadIDString formats a (lo, hi) Kad ID pair as the decimal text the
// store persists it as.
func KadIDString(lo, hi uint64) string {
	v := new(big.Int).Lsh(new(big.Int).SetUint64(hi), 64)
	v.Or(v, new(big.Int).SetUint64(lo))
	return v.String()
}

// KadIDBytes renders a (lo, hi) pair as the 16-byte little-endian form
// routing.Table expects for XOR-distance comparisons.
func KadIDBytes(lo, hi uint64) []byte {
	out := make([]byte, 16)
	for i := 0; i < 8; i++ {
		out[i] = byte(lo >> (8 * i))
		out[8+i] = byte(hi >> (8 * i))
	}
	return out
}
