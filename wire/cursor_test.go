package wire

import "testing"

func TestCursorU128FullSixteenBytes(t *testing.T) {
	buf := make([]byte, 16)
	buf[0] = 0x01
	buf[8] = 0x02

	c := NewCursor(buf)
	lo, hi, err := c.U128()
	if err != nil {
		t.Fatalf("U128: %v", err)
	}
	if lo != 1 {
		t.Errorf("lo = %d, want 1", lo)
	}
	if hi != 2 {
		t.Errorf("hi = %d, want 2", hi)
	}
	if c.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", c.Remaining())
	}
}

func TestCursorTakeShortBuffer(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3})
	if _, err := c.Take(4); err == nil {
		t.Fatal("expected ErrShortBuffer, got nil")
	}
}

func TestCursorU16LittleEndian(t *testing.T) {
	c := NewCursor([]byte{0x34, 0x12})
	v, err := c.U16()
	if err != nil {
		t.Fatalf("U16: %v", err)
	}
	if v != 0x1234 {
		t.Errorf("U16() = 0x%x, want 0x1234", v)
	}
}
