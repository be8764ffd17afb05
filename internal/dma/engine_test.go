package dma

import "testing"

// TestFIFORoundTrip is spec.md §8 property 5: dequeues return enqueued
// words in order, and Reset clears size and re-enables the empty/
// non-full flags.
func TestFIFORoundTrip(t *testing.T) {
	f := NewFIFO(4)
	words := []uint32{0x11, 0x22, 0x33}
	for _, w := range words {
		if !f.Push(w) {
			t.Fatalf("push %#x failed, fifo should have room", w)
		}
	}
	for _, want := range words {
		got, ok := f.Pop()
		if !ok || got != want {
			t.Fatalf("pop = (%#x, %v), want (%#x, true)", got, ok, want)
		}
	}
	if !f.Empty() {
		t.Fatalf("expected fifo empty after draining all pushed words")
	}

	f.Push(1)
	f.Push(2)
	f.Reset()
	if f.Len() != 0 {
		t.Fatalf("len after reset = %d, want 0", f.Len())
	}
	if f.Empty() != true || f.Full() {
		t.Fatalf("reset must re-enable empty and non-full flags")
	}
}

// TestFIFOFullDropsPush verifies the FifoFull contract: pushes beyond
// capacity are dropped, not overwritten or blocked.
func TestFIFOFullDropsPush(t *testing.T) {
	f := NewFIFO(2)
	if !f.Push(1) || !f.Push(2) {
		t.Fatalf("expected the first two pushes to succeed")
	}
	if f.Push(3) {
		t.Fatalf("push into a full fifo must be dropped")
	}
	if v, ok := f.Pop(); !ok || v != 1 {
		t.Fatalf("pop = (%#x,%v), want (1,true)", v, ok)
	}
}

// TestS5REP2Transfer is spec.md §8 scenario S5: with transfer_type=REP2,
// enqueueing A,B,C,D drains to A,A,C,C (the first word of each pair is
// repeated, the second is skipped).
func TestS5REP2Transfer(t *testing.T) {
	e := New(8, 16, 3)
	e.transferType = Rep2
	for _, w := range []uint32{0xA, 0xB, 0xC, 0xD} {
		e.Push(w)
	}
	e.Drain()

	want := []uint32{0xA, 0xA, 0xC, 0xC}
	for i, w := range want {
		if e.ram[i] != w {
			t.Fatalf("ram[%d] = %#x, want %#x", i, e.ram[i], w)
		}
	}
	if !e.interruptSet {
		t.Fatalf("expected completion interrupt flag set after drain")
	}
}

// TestFillTransferRepeatsLastWord verifies the FILL transfer type stores
// only the last queued word, repeated once per queued word.
func TestFillTransferRepeatsLastWord(t *testing.T) {
	e := New(8, 16, 3)
	e.transferType = Fill
	for _, w := range []uint32{1, 2, 3} {
		e.Push(w)
	}
	e.Drain()
	for i := 0; i < 3; i++ {
		if e.ram[i] != 3 {
			t.Fatalf("ram[%d] = %d, want 3 (last queued word)", i, e.ram[i])
		}
	}
}

// TestNormalTransferCopiesInOrder verifies the NORMAL transfer type's
// plain pass-through behavior.
func TestNormalTransferCopiesInOrder(t *testing.T) {
	e := New(8, 16, 3)
	for _, w := range []uint32{7, 8, 9} {
		e.Push(w)
	}
	e.Drain()
	for i, want := range []uint32{7, 8, 9} {
		if e.ram[i] != want {
			t.Fatalf("ram[%d] = %d, want %d", i, e.ram[i], want)
		}
	}
}
