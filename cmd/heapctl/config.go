package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/kveeren/memheap"
)

// fileConfig mirrors memheap.Config but with JSON tags. An absent
// size-class or capacity field keeps its DefaultConfig value; absent
// threshold fields are left zero, and Config.normalize falls back to
// the default page threshold when both are zero.
type fileConfig struct {
	ClassPolicy             string `json:"class_policy,omitempty"`
	SmallGranularity        int    `json:"small_granularity,omitempty"`
	SmallCount              int    `json:"small_count,omitempty"`
	MediumGranularity       int    `json:"medium_granularity,omitempty"`
	MediumCount             int    `json:"medium_count,omitempty"`
	MinBucketCapacitySmall  int    `json:"min_bucket_capacity_small,omitempty"`
	MinBucketCapacityMedium int    `json:"min_bucket_capacity_medium,omitempty"`
	LargeThresholdBytes     int    `json:"large_threshold_bytes,omitempty"`
	LargeThresholdPages     int    `json:"large_threshold_pages,omitempty"`
	Poison                  bool   `json:"poison,omitempty"`
	Verify                  bool   `json:"verify,omitempty"`
}

// loadConfig reads a HuJSON (JSON-with-comments) file at path and
// applies it over memheap.DefaultConfig. An empty path returns the
// default configuration unchanged.
func loadConfig(path string) (memheap.Config, error) {
	cfg := memheap.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return memheap.Config{}, fmt.Errorf("reading config: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return memheap.Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var fc fileConfig

	if err := json.Unmarshal(standardized, &fc); err != nil {
		return memheap.Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	switch fc.ClassPolicy {
	case "", "granular":
		cfg.ClassPolicy = memheap.ClassPolicyGranular
	case "power-of-two":
		cfg.ClassPolicy = memheap.ClassPolicyPowerOfTwo
	default:
		return memheap.Config{}, fmt.Errorf("unknown class_policy: %q", fc.ClassPolicy)
	}

	if fc.SmallGranularity != 0 {
		cfg.SmallGranularity = fc.SmallGranularity
	}
	if fc.SmallCount != 0 {
		cfg.SmallCount = fc.SmallCount
	}
	if fc.MediumGranularity != 0 {
		cfg.MediumGranularity = fc.MediumGranularity
	}
	if fc.MediumCount != 0 {
		cfg.MediumCount = fc.MediumCount
	}
	if fc.MinBucketCapacitySmall != 0 {
		cfg.MinBucketCapacitySmall = fc.MinBucketCapacitySmall
	}
	if fc.MinBucketCapacityMedium != 0 {
		cfg.MinBucketCapacityMedium = fc.MinBucketCapacityMedium
	}
	cfg.LargeThresholdBytes = fc.LargeThresholdBytes
	cfg.LargeThresholdPages = fc.LargeThresholdPages
	cfg.Poison = fc.Poison
	cfg.Verify = fc.Verify

	return cfg, nil
}
