package memheap

import "github.com/cznic/mathutil"

// ClassPolicy selects how byte sizes are mapped onto bucket slot
// sizes for the small/medium regimes. Both policies satisfy the same
// contract: Classify is a pure total function and the returned slot
// size is always >= the requested size.
type ClassPolicy int

const (
	// ClassPolicyGranular rounds up within fixed small/medium
	// granularities (16 bytes, then 128 bytes). This is the default
	// policy: it bounds internal fragmentation more tightly than
	// power-of-two rounding.
	ClassPolicyGranular ClassPolicy = iota
	// ClassPolicyPowerOfTwo rounds every request up to the next
	// power of two (floor 32 bytes), the alternative one revision of
	// the source explored.
	ClassPolicyPowerOfTwo
)

// sizeClass is the result of classifying a byte size that falls
// within the small or medium regime.
type sizeClass struct {
	index    int // index into the heap's per-class bucket list
	slotSize int // aligned slot size servicing this class
}

// classifier implements Classify for a Config's chosen policy and
// granularity/count parameters.
type classifier struct {
	cfg Config
}

// numClasses returns the total number of small+medium size classes.
func (c classifier) numClasses() int {
	if c.cfg.ClassPolicy == ClassPolicyPowerOfTwo {
		return powerOfTwoNumClasses
	}
	return c.cfg.SmallCount + c.cfg.MediumCount
}

// granularMediumMax returns the largest byte size still served by a bucket
// rather than the large path, under the configured granular regime.
func (c classifier) granularMediumMax() int {
	return c.granularSmallMax() + c.cfg.MediumGranularity*c.cfg.MediumCount
}

func (c classifier) granularSmallMax() int {
	return minAllocSize + c.cfg.SmallGranularity*(c.cfg.SmallCount-1)
}

// isSmallSlot reports whether slotSize belongs to the small regime,
// used to pick a bucket's default creation capacity.
func (c classifier) isSmallSlot(slotSize int) bool {
	return slotSize <= c.granularSmallMax()
}

// Classify maps size to either a bucket size class or the large tag.
// ok is false when size belongs on the large path.
func (c classifier) Classify(size int) (sc sizeClass, ok bool) {
	if c.cfg.ClassPolicy == ClassPolicyPowerOfTwo {
		return c.classifyPowerOfTwo(size)
	}
	return c.classifyGranular(size)
}

func (c classifier) classifyGranular(size int) (sizeClass, bool) {
	smallMax := c.granularSmallMax()
	if size <= minAllocSize {
		return sizeClass{index: 0, slotSize: minAllocSize}, true
	}
	if size <= smallMax {
		slot := roundup(size, c.cfg.SmallGranularity)
		// roundup(minAllocSize, gran) == minAllocSize already handled above;
		// classes above it start at minAllocSize+granularity.
		idx := (slot - minAllocSize) / c.cfg.SmallGranularity
		return sizeClass{index: idx, slotSize: slot}, true
	}

	mediumMax := c.granularMediumMax()
	if size <= mediumMax {
		slot := smallMax + roundup(size-smallMax, c.cfg.MediumGranularity)
		idx := c.cfg.SmallCount + (slot-smallMax)/c.cfg.MediumGranularity - 1
		return sizeClass{index: idx, slotSize: slot}, true
	}

	return sizeClass{}, false
}

// powerOfTwoNumClasses bounds the number of distinct power-of-two
// slot sizes a 64-bit size_t can produce; used only to size the
// bucket-allocator's per-class list array under that policy.
const powerOfTwoNumClasses = 64

func (c classifier) classifyPowerOfTwo(size int) (sizeClass, bool) {
	if size > c.granularMediumMax() {
		return sizeClass{}, false
	}
	n := roundup(size, mallocAlignment)
	if n < minAllocSize {
		n = minAllocSize
	}
	log := uint(mathutil.BitLen(n - 1))
	return sizeClass{index: int(log), slotSize: 1 << log}, true
}

// roundup returns the smallest multiple of m that is >= n. m must be
// a positive integer. Both classifier policies use it.
func roundup(n, m int) int {
	if n%m == 0 {
		return n
	}
	return n + (m - n%m)
}
