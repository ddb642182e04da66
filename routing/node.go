/*
File Name:  node.go
Package:    routing

Adapted from dht/Node.go: Node and shortList are already domain-agnostic
byte-slice-keyed structures in the teacher, so only the parts the
bootstrap flow actually exercises (construction, XOR-distance sort) are
kept; the pinger/uncontacted-tracking machinery for iterative lookup is
dropped since no SPEC_FULL.md component performs one.
*/

package routing

import (
	"bytes"
	"math/big"
	"sort"
	"time"
)

// Node is a single Kad contact as tracked by the routing scaffold: its
// 128-bit ID plus bookkeeping of when it was last observed.
type Node struct {
	ID       []byte
	LastSeen time.Time
}

// shortList sorts a set of nodes by XOR distance to Comparator.
type shortList struct {
	Nodes      []Node
	Comparator []byte
}

func (s *shortList) Len() int      { return len(s.Nodes) }
func (s *shortList) Swap(i, j int) { s.Nodes[i], s.Nodes[j] = s.Nodes[j], s.Nodes[i] }
func (s *shortList) Less(i, j int) bool {
	return getDistance(s.Nodes[i].ID, s.Comparator).Cmp(getDistance(s.Nodes[j].ID, s.Comparator)) < 0
}

func (s *shortList) sortByDistance() {
	sort.Sort(s)
}

func getDistance(id1, id2 []byte) *big.Int {
	a := new(big.Int).SetBytes(id1)
	b := new(big.Int).SetBytes(id2)
	return new(big.Int).Xor(a, b)
}

func nodeEqual(a, b []byte) bool {
	return bytes.Equal(a, b)
}
