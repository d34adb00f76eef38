// Command heapctl drives memheap through a synthetic workload and
// reports accounting, for manual exercise and regression comparison
// outside the test suite.
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/kveeren/memheap"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "heapctl:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("heapctl", flag.ContinueOnError)

	configPath := fs.String("config", "", "HuJSON config file overriding heap defaults")
	workload := fs.String("workload", "alloc-free", "workload to run: alloc-free|churn|large")
	seed := fs.Uint32("seed", 1, "workload RNG seed")
	dumpPath := fs.String("dump", "", "write the post-run allocation dump to this file")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: heapctl [flags]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	h := memheap.NewHeap(cfg)
	defer h.Close()

	stats, err := runWorkload(h, *workload, *seed)
	if err != nil {
		return err
	}

	fmt.Printf("workload=%s seed=%d\n", *workload, *seed)
	fmt.Printf("buckets=%d bucket_allocations=%d bucket_bytes=%d\n", stats.Buckets, stats.BucketAllocations, stats.BucketBytes)
	fmt.Printf("large_allocations=%d large_bytes=%d\n", stats.LargeAllocations, stats.LargeBytes)
	fmt.Printf("total_allocations=%d total_bytes=%d\n", stats.TotalAllocations, stats.TotalBytes)

	if *dumpPath != "" {
		var buf bytes.Buffer
		h.PrintState(&buf)
		h.ShowAllocMem(&buf)

		if err := atomic.WriteFile(*dumpPath, &buf); err != nil {
			return fmt.Errorf("writing dump: %w", err)
		}
	}

	return nil
}
