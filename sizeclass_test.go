package memheap

import "testing"

func TestClassifyGranularBoundaries(t *testing.T) {
	cfg := DefaultConfig()
	cfg.normalize()
	cls := classifier{cfg: cfg}

	cases := []struct {
		size     int
		wantSlot int
	}{
		{1, 32},
		{32, 32},
		{33, 48},
		{48, 48},
		{1616, 1616}, // last small class
		{1617, 1744}, // first medium class
		{27216, 27216},
	}
	for _, c := range cases {
		sc, ok := cls.Classify(c.size)
		if !ok {
			t.Fatalf("Classify(%d): expected small/medium, got large", c.size)
		}
		if sc.slotSize != c.wantSlot {
			t.Fatalf("Classify(%d).slotSize = %d, want %d", c.size, sc.slotSize, c.wantSlot)
		}
		if sc.slotSize < c.size {
			t.Fatalf("Classify(%d): slot size %d is smaller than request", c.size, sc.slotSize)
		}
	}

	if _, ok := cls.Classify(27217); ok {
		t.Fatal("Classify(27217): expected large tag")
	}
}

func TestClassifyMonotone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.normalize()
	cls := classifier{cfg: cfg}

	prevSlot := 0
	for size := 1; size <= 27216; size++ {
		sc, ok := cls.Classify(size)
		if !ok {
			t.Fatalf("Classify(%d): unexpected large tag", size)
		}
		if sc.slotSize < prevSlot {
			t.Fatalf("Classify(%d): slot size %d regressed from %d", size, sc.slotSize, prevSlot)
		}
		prevSlot = sc.slotSize
	}
}

func TestClassifyPowerOfTwo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClassPolicy = ClassPolicyPowerOfTwo
	cfg.normalize()
	cls := classifier{cfg: cfg}

	cases := []struct {
		size     int
		wantSlot int
	}{
		{1, 32},
		{32, 32},
		{33, 64},
		{64, 64},
		{65, 128},
	}
	for _, c := range cases {
		sc, ok := cls.Classify(c.size)
		if !ok {
			t.Fatalf("Classify(%d): expected small/medium, got large", c.size)
		}
		if sc.slotSize != c.wantSlot {
			t.Fatalf("Classify(%d).slotSize = %d, want %d", c.size, sc.slotSize, c.wantSlot)
		}
	}
}
