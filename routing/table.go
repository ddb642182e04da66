/*
File Name:  table.go
Package:    routing

Adapted from dht/Hash Table.go: insertNode/getClosestContacts and the
XOR-bucket-index helpers are kept, generalized to the 128-bit Kad ID
width this crawler actually sees instead of the teacher's generic bBits
parameter (which here is fixed at IDBits). Removed: the pinger-based
bucket-eviction callback and lastSeenBefore/removeNode, which only exist
to support the teacher's own full iterative-lookup DHT and have no
SPEC_FULL.md caller — per spec.md, this module is bootstrap-only
scaffolding, not a full routing table.
*/

package routing

import (
	"time"
)

// IDBits is the width, in bits, of a Kad node ID (128-bit / 16-byte IDs).
const IDBits = 128
const idBytes = IDBits / 8

// BucketSize caps how many nodes a single bucket retains before the
// oldest entry is evicted to make room for a new one.
const BucketSize = 20

// Table is an insert-only XOR-distance bucket table: the minimal
// scaffolding spec.md documents the original source as containing,
// expanded just enough to let the collection engine report a bucket
// distribution alongside its new/total contact ratio log line.
type Table struct {
	self    []byte
	buckets [][]Node
}

// NewTable creates a Table rooted at self, the local node's own 128-bit
// Kad ID (will be zero/truncated/padded to exactly idBytes).
func NewTable(self []byte) *Table {
	return &Table{
		self:    normalizeID(self),
		buckets: make([][]Node, IDBits),
	}
}

// normalizeID defensively truncates or zero-pads id to exactly idBytes,
// since the table is fed untrusted wire data and must never panic on a
// malformed ID length (spec.md §8, testable property 13).
func normalizeID(id []byte) []byte {
	out := make([]byte, idBytes)
	copy(out, id)
	return out
}

// Insert adds or refreshes a node's LastSeen time. Returns true if the
// node was not already present in its bucket.
func (t *Table) Insert(id []byte, seen time.Time) (isNew bool) {
	id = normalizeID(id)
	index := bucketIndex(t.self, id)
	bucket := t.buckets[index]

	for i, n := range bucket {
		if nodeEqual(n.ID, id) {
			bucket[i].LastSeen = seen
			return false
		}
	}

	if len(bucket) >= BucketSize {
		bucket = bucket[1:]
	}
	t.buckets[index] = append(bucket, Node{ID: id, LastSeen: seen})
	return true
}

// ClosestContacts returns up to num nodes ordered by ascending XOR
// distance to target.
func (t *Table) ClosestContacts(target []byte, num int) []Node {
	target = normalizeID(target)
	sl := &shortList{Comparator: target}
	for _, bucket := range t.buckets {
		sl.Nodes = append(sl.Nodes, bucket...)
	}
	sl.sortByDistance()

	if num < len(sl.Nodes) {
		return sl.Nodes[:num]
	}
	return sl.Nodes
}

// TotalNodes returns the count of nodes tracked across all buckets.
func (t *Table) TotalNodes() int {
	total := 0
	for _, bucket := range t.buckets {
		total += len(bucket)
	}
	return total
}

// BucketCounts returns the number of nodes in each non-empty bucket,
// indexed by bucket index; used only for the engine's diagnostic log
// line, never for routing decisions.
func (t *Table) BucketCounts() map[int]int {
	counts := make(map[int]int)
	for i, bucket := range t.buckets {
		if len(bucket) > 0 {
			counts[i] = len(bucket)
		}
	}
	return counts
}

func bucketIndex(self, id []byte) int {
	for j := 0; j < len(self) && j < len(id); j++ {
		xor := self[j] ^ id[j]
		if xor == 0 {
			continue
		}
		for i := 0; i < 8; i++ {
			if hasBit(xor, uint(i)) {
				return IDBits - (j*8 + i) - 1
			}
		}
	}
	return 0
}

func hasBit(n byte, pos uint) bool {
	pos = 7 - pos
	return n&(1<<pos) > 0
}
