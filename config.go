package memheap

// Compile-time constants in the original C source become these
// package-level defaults; Config lets a caller override them per
// heap instead of rebuilding with different macros.
const (
	mallocAlignment = 16
	minAllocSize    = 32
	// maxAllocSize mirrors FT_MALLOC_MAX_SIZE: not a hard platform
	// limit, just the ceiling past which a request is rejected.
	maxAllocSize = 0x7ffffffffffffff0
)

// Poison byte patterns, present but optional in the original
// (FT_MALLOC_POISON_MEMORY). Enabled via Config.Poison.
const (
	patternNeverAllocated     byte = 0xfe
	patternAllocatedUntouched byte = 0xce
	patternFreed              byte = 0xcd
)

// Config holds every tunable of a Heap. The zero value is not valid
// configuration on its own — use DefaultConfig and override fields
// from there, the same way a caller would previously have recompiled
// with different FT_MALLOC_* macros.
type Config struct {
	// ClassPolicy selects granular or power-of-two size-class
	// rounding for the small/medium regimes.
	ClassPolicy ClassPolicy

	// SmallGranularity and SmallCount define the small regime under
	// ClassPolicyGranular: minAllocSize .. minAllocSize +
	// SmallGranularity*(SmallCount-1), rounding up to the next
	// multiple of SmallGranularity above minAllocSize.
	SmallGranularity int
	SmallCount       int

	// MediumGranularity and MediumCount extend the small regime's
	// upper bound by MediumGranularity*MediumCount more bytes.
	MediumGranularity int
	MediumCount       int

	// MinBucketCapacitySmall and MinBucketCapacityMedium are the
	// default slot counts requested when a new bucket is created for
	// a small or medium size class respectively. The achievable
	// capacity after page rounding may be larger, never smaller.
	MinBucketCapacitySmall  int
	MinBucketCapacityMedium int

	// LargeThresholdBytes, if non-zero, is an absolute byte count at
	// or above which a request is serviced by the large path. When
	// positive it takes precedence over LargeThresholdPages; if both
	// are zero, LargeThresholdPages defaults to 4.
	LargeThresholdBytes int
	// LargeThresholdPages expresses the same threshold as a multiple
	// of the OS page size.
	LargeThresholdPages int

	// Poison fills slot/mapping payloads with diagnostic byte
	// patterns on creation, allocation and free. Off by default; it
	// adds a full-payload memset to every hot-path operation.
	Poison bool

	// Verify enables an O(list-length) prev/next linkage check of a
	// size class's bucket list after a bucket is created for it and
	// after each free from one of its buckets. The bitmap and the
	// large-allocation list are not checked. Off by default; intended
	// for tests and debugging, not production use.
	Verify bool

	pages pageProvider
}

// DefaultConfig returns the baseline configuration: small range
// 32..1616 step 16 (100 classes), medium range 1617..27216 step 128
// (200 classes), large threshold 4 pages, bucket capacities of 100
// (small) and 10 (medium).
func DefaultConfig() Config {
	return Config{
		ClassPolicy:             ClassPolicyGranular,
		SmallGranularity:        16,
		SmallCount:              100,
		MediumGranularity:       128,
		MediumCount:             200,
		MinBucketCapacitySmall:  100,
		MinBucketCapacityMedium: 10,
		LargeThresholdPages:     4,
	}
}

func (c *Config) normalize() {
	d := DefaultConfig()
	if c.SmallGranularity == 0 {
		c.SmallGranularity = d.SmallGranularity
	}
	if c.SmallCount == 0 {
		c.SmallCount = d.SmallCount
	}
	if c.MediumGranularity == 0 {
		c.MediumGranularity = d.MediumGranularity
	}
	if c.MediumCount == 0 {
		c.MediumCount = d.MediumCount
	}
	if c.MinBucketCapacitySmall == 0 {
		c.MinBucketCapacitySmall = d.MinBucketCapacitySmall
	}
	if c.MinBucketCapacityMedium == 0 {
		c.MinBucketCapacityMedium = d.MinBucketCapacityMedium
	}
	if c.LargeThresholdBytes == 0 && c.LargeThresholdPages == 0 {
		c.LargeThresholdPages = 4
	}
	if c.pages == nil {
		c.pages = osPageProvider{}
	}
}

// largeThreshold resolves the configured threshold to an absolute
// byte count given the provider's page size.
func (c Config) largeThreshold() int {
	if c.LargeThresholdBytes > 0 {
		return c.LargeThresholdBytes
	}
	return c.LargeThresholdPages * c.pages.PageSize()
}
