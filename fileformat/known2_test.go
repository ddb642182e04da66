package fileformat

import "testing"

func TestParseKnown2(t *testing.T) {
	var root, child1, child2 [caichHashSize]byte
	for i := range root {
		root[i] = byte(i)
	}
	for i := range child1 {
		child1[i] = byte(0x40 + i)
	}
	for i := range child2 {
		child2[i] = byte(0x80 + i)
	}

	buf := []byte{known2Version}
	buf = append(buf, root[:]...)
	buf = appendU32(buf, 2)
	buf = append(buf, child1[:]...)
	buf = append(buf, child2[:]...)

	trees, err := ParseKnown2(buf)
	if err != nil {
		t.Fatalf("ParseKnown2: %v", err)
	}
	if len(trees) != 1 {
		t.Fatalf("len(trees) = %d, want 1", len(trees))
	}
	if trees[0].Root != CaichHash(root) {
		t.Errorf("Root mismatch")
	}
	if len(trees[0].Children) != 2 {
		t.Fatalf("len(Children) = %d, want 2", len(trees[0].Children))
	}
	if trees[0].Children[0] != CaichHash(child1) || trees[0].Children[1] != CaichHash(child2) {
		t.Errorf("Children mismatch")
	}
}

func TestParseKnown2SpareBytes(t *testing.T) {
	buf := []byte{known2Version}
	buf = append(buf, make([]byte, caichHashSize)...)
	buf = appendU32(buf, 0)
	buf = append(buf, 0x01, 0x02, 0x03) // too few bytes for another tree header

	if _, err := ParseKnown2(buf); err == nil {
		t.Fatal("ParseKnown2: expected ErrSpareBytes, got nil")
	} else if _, ok := err.(*ErrSpareBytes); !ok {
		t.Errorf("err = %T, want *ErrSpareBytes", err)
	}
}

func TestParseKnown2UnknownVersion(t *testing.T) {
	if _, err := ParseKnown2([]byte{0x01}); err == nil {
		t.Fatal("ParseKnown2: expected error for unknown version, got nil")
	} else if _, ok := err.(*ErrUnknownKnown2Version); !ok {
		t.Errorf("err = %T, want *ErrUnknownKnown2Version", err)
	}
}
