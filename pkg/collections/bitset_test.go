package collections

import "testing"

func TestBitset_Basic(t *testing.T) {
	b := NewBitset(100)

	b.Set(0)
	b.Set(50)
	b.Set(99)

	if !b.Test(0) {
		t.Error("Expected bit 0 to be set")
	}
	if !b.Test(50) {
		t.Error("Expected bit 50 to be set")
	}
	if !b.Test(99) {
		t.Error("Expected bit 99 to be set")
	}
	if b.Test(1) {
		t.Error("Expected bit 1 to be clear")
	}

	if b.Count() != 3 {
		t.Errorf("Expected count 3, got %d", b.Count())
	}

	b.Clear(50)
	if b.Test(50) {
		t.Error("Expected bit 50 to be clear after Clear")
	}
	if b.Count() != 2 {
		t.Errorf("Expected count 2 after Clear, got %d", b.Count())
	}
}

func TestBitset_Grow(t *testing.T) {
	b := NewBitset(64)

	b.Set(200)
	if !b.Test(200) {
		t.Error("Expected bit 200 to be set after grow")
	}
	if b.Size() < 200 {
		t.Errorf("Expected size >= 200, got %d", b.Size())
	}
}

func TestBitset_ClearAll(t *testing.T) {
	b := NewBitset(100)
	b.Set(3)
	b.Set(77)

	b.ClearAll()
	for i := 0; i < 100; i++ {
		if b.Test(i) {
			t.Errorf("Expected bit %d to be clear after ClearAll", i)
		}
	}
}

func TestBitset_Iterate(t *testing.T) {
	b := NewBitset(200)
	want := []int{3, 64, 65, 130, 199}
	for _, i := range want {
		b.Set(i)
	}

	var got []int
	b.Iterate(func(i int) bool {
		got = append(got, i)
		return true
	})

	if len(got) != len(want) {
		t.Fatalf("Expected %d set bits, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected bit %d at position %d, got %d", want[i], i, got[i])
		}
	}
}

func TestBitset_IterateEarlyStop(t *testing.T) {
	b := NewBitset(100)
	b.Set(1)
	b.Set(2)
	b.Set(3)

	count := 0
	b.Iterate(func(i int) bool {
		count++
		return count < 2
	})

	if count != 2 {
		t.Errorf("Expected iteration to stop after 2 bits, got %d", count)
	}
}

func TestVersionedBitset_Reset(t *testing.T) {
	v := NewVersionedBitset(10)

	v.Set(3)
	v.Set(7)
	if !v.Test(3) || !v.Test(7) {
		t.Error("Expected bits 3 and 7 to be set")
	}

	v.Reset()
	if v.Test(3) || v.Test(7) {
		t.Error("Expected all bits clear after Reset")
	}

	v.Set(3)
	if !v.Test(3) {
		t.Error("Expected bit 3 to be set after re-setting")
	}
}

func TestVersionedBitset_Grow(t *testing.T) {
	v := NewVersionedBitset(4)
	v.Set(100)
	if !v.Test(100) {
		t.Error("Expected bit 100 to be set after grow")
	}
	if v.Test(99) {
		t.Error("Expected bit 99 to be clear")
	}
}
