package universe

import "testing"

func TestEnsureUniverse_Idempotent(t *testing.T) {
	b := NewBuffer()

	b.EnsureUniverse(0)
	b.SetChannel(0, 1, 200)
	b.EnsureUniverse(0) // must not re-zero existing data

	if got := b.GetChannel(0, 1); got != 200 {
		t.Errorf("GetChannel(0, 1) = %d, want 200", got)
	}
}

func TestSetGetChannel_RoundTrip(t *testing.T) {
	b := NewBuffer()
	b.EnsureUniverse(2)

	for _, ch := range []int{1, 7, 256, 512} {
		b.SetChannel(2, ch, byte(ch%256))
		if got := b.GetChannel(2, ch); got != byte(ch%256) {
			t.Errorf("GetChannel(2, %d) = %d, want %d", ch, got, byte(ch%256))
		}
	}
}

func TestSetChannel_OutOfRangeIgnored(t *testing.T) {
	b := NewBuffer()
	b.EnsureUniverse(0)

	// None of these may panic or write anywhere.
	b.SetChannel(0, 0, 255)
	b.SetChannel(0, 513, 255)
	b.SetChannel(0, -5, 255)
	b.SetChannel(9, 1, 255) // unallocated universe

	for ch := 1; ch <= Size; ch++ {
		if got := b.GetChannel(0, ch); got != 0 {
			t.Fatalf("channel %d = %d, want 0", ch, got)
		}
	}
}

func TestGetChannel_UnallocatedReturnsZero(t *testing.T) {
	b := NewBuffer()

	if got := b.GetChannel(3, 1); got != 0 {
		t.Errorf("GetChannel on unallocated universe = %d, want 0", got)
	}
	if got := b.GetChannel(3, 9999); got != 0 {
		t.Errorf("GetChannel out of range = %d, want 0", got)
	}
}

func TestListUniverses_Sorted(t *testing.T) {
	b := NewBuffer()
	b.EnsureUniverse(5)
	b.EnsureUniverse(0)
	b.EnsureUniverse(2)

	got := b.ListUniverses()
	want := []int{0, 2, 5}
	if len(got) != len(want) {
		t.Fatalf("ListUniverses() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ListUniverses() = %v, want %v", got, want)
		}
	}
}

func TestSnapshot_CopiesData(t *testing.T) {
	b := NewBuffer()
	b.EnsureUniverse(0)
	b.SetChannel(0, 1, 42)

	snap := b.Snapshot(0)
	if snap[0] != 42 {
		t.Fatalf("Snapshot()[0] = %d, want 42", snap[0])
	}

	snap[0] = 99
	if got := b.GetChannel(0, 1); got != 42 {
		t.Errorf("mutating a snapshot changed the buffer: channel 1 = %d", got)
	}

	empty := b.Snapshot(7)
	if len(empty) != Size {
		t.Errorf("Snapshot of unallocated universe length = %d, want %d", len(empty), Size)
	}
}

func TestReset(t *testing.T) {
	b := NewBuffer()
	b.EnsureUniverse(0)
	b.SetChannel(0, 1, 1)

	b.Reset()

	if got := b.GetChannel(0, 1); got != 0 {
		t.Errorf("GetChannel after Reset = %d, want 0", got)
	}
	if got := len(b.ListUniverses()); got != 0 {
		t.Errorf("ListUniverses after Reset = %d universes, want 0", got)
	}
}
