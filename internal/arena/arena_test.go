package arena

import "testing"

func TestAllocBumpsOffset(t *testing.T) {
	a := New(make([]byte, 64))
	b1, err := a.Alloc(10)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if len(b1) != 10 {
		t.Fatalf("len = %d, want 10", len(b1))
	}
	if a.Remaining() != 54 {
		t.Fatalf("Remaining = %d, want 54", a.Remaining())
	}
}

func TestAllocExhausted(t *testing.T) {
	a := New(make([]byte, 8))
	if _, err := a.Alloc(16); err != ErrScratchExhausted {
		t.Fatalf("Alloc(16) over 8-byte arena: got %v, want ErrScratchExhausted", err)
	}
}

func TestAllocAlignedPads(t *testing.T) {
	a := New(make([]byte, 64))
	if _, err := a.Alloc(3); err != nil {
		t.Fatal(err)
	}
	if _, err := a.AllocAligned(16, SIMDAlign); err != nil {
		t.Fatalf("AllocAligned: %v", err)
	}
	if a.offset%SIMDAlign != 0 {
		t.Errorf("offset %d not aligned to %d", a.offset, SIMDAlign)
	}
}

func TestPushIsolatesChild(t *testing.T) {
	parent := New(make([]byte, 64))
	if _, err := parent.Alloc(8); err != nil {
		t.Fatal(err)
	}
	child := parent.Push()
	if _, err := child.Alloc(8); err != nil {
		t.Fatal(err)
	}
	if parent.offset != 8 {
		t.Errorf("parent.offset = %d after child alloc, want unchanged 8", parent.offset)
	}
	if child.Remaining() != 64-16 {
		t.Errorf("child.Remaining() = %d, want %d", child.Remaining(), 64-16)
	}
}

func TestReset(t *testing.T) {
	a := New(make([]byte, 16))
	if _, err := a.Alloc(16); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Alloc(1); err != ErrScratchExhausted {
		t.Fatalf("expected exhaustion, got %v", err)
	}
	a.Reset()
	if _, err := a.Alloc(16); err != nil {
		t.Fatalf("Alloc after Reset: %v", err)
	}
}

func TestAllocInt16Exhausted(t *testing.T) {
	a := New(make([]byte, 4))
	if _, err := a.AllocInt16(100); err != ErrScratchExhausted {
		t.Fatalf("got %v, want ErrScratchExhausted", err)
	}
}
