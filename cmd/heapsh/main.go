// Command heapsh is an interactive shell over a single memheap.Heap,
// for poking at the allocator by hand the way cmd/sloty pokes at a
// slotcache file.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"

	"github.com/peterh/liner"

	"github.com/kveeren/memheap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "heapsh:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := memheap.DefaultConfig()
	h := memheap.NewHeap(cfg)
	defer h.Close()

	repl := &repl{heap: h, ids: map[int]unsafe.Pointer{}}
	return repl.Run()
}

type repl struct {
	heap   *memheap.Heap
	liner  *liner.State
	ids    map[int]unsafe.Pointer
	nextID int
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".heapsh_history")
}

func (r *repl) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Println("heapsh - interactive memheap shell")
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("heapsh> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		r.dispatch(strings.Fields(line))
	}

	r.saveHistory()
	return nil
}

func (r *repl) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *repl) completer(line string) []string {
	commands := []string{"alloc", "free", "resize", "stats", "dump", "help", "exit"}
	var out []string
	for _, c := range commands {
		if strings.HasPrefix(c, strings.ToLower(line)) {
			out = append(out, c)
		}
	}
	return out
}

func (r *repl) dispatch(parts []string) {
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	// A fault from the allocator should end the command, not the
	// shell, the same way cmd/heapsh's documentation describes.
	defer func() {
		if rec := recover(); rec != nil {
			if af, ok := rec.(*memheap.AllocatorFault); ok {
				fmt.Printf("fault: %v\n", af)
				return
			}
			panic(rec)
		}
	}()

	switch cmd {
	case "exit", "quit", "q":
		r.saveHistory()
		os.Exit(0)
	case "help", "?":
		r.printHelp()
	case "alloc":
		r.cmdAlloc(args)
	case "free":
		r.cmdFree(args)
	case "resize":
		r.cmdResize(args)
	case "stats":
		r.cmdStats()
	case "dump":
		r.cmdDump()
	default:
		fmt.Printf("unknown command: %s (type 'help' for commands)\n", cmd)
	}
}

func (r *repl) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  alloc <size>          Allocate size bytes, prints an id")
	fmt.Println("  free <id>             Free a previously allocated id")
	fmt.Println("  resize <id> <size>    Resize an allocation, keeping its id")
	fmt.Println("  stats                 Print current accounting")
	fmt.Println("  dump                  Print bucket/large state and live regions")
	fmt.Println("  help                  Show this help")
	fmt.Println("  exit / quit / q       Exit")
}

func (r *repl) cmdAlloc(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: alloc <size>")
		return
	}
	size, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("invalid size: %v\n", err)
		return
	}

	p := r.heap.Alloc(size)
	if p == nil {
		fmt.Println("alloc failed (zero, oversize, or out of memory)")
		return
	}

	id := r.nextID
	r.nextID++
	r.ids[id] = p
	fmt.Printf("id=%d ptr=%p\n", id, p)
}

func (r *repl) cmdFree(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: free <id>")
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("invalid id: %v\n", err)
		return
	}
	p, ok := r.ids[id]
	if !ok {
		fmt.Printf("no such id: %d\n", id)
		return
	}

	r.heap.Free(p)
	delete(r.ids, id)
	fmt.Println("ok")
}

func (r *repl) cmdResize(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: resize <id> <size>")
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("invalid id: %v\n", err)
		return
	}
	size, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Printf("invalid size: %v\n", err)
		return
	}
	p, ok := r.ids[id]
	if !ok {
		fmt.Printf("no such id: %d\n", id)
		return
	}

	newPtr := r.heap.Resize(p, size)
	if newPtr == nil {
		delete(r.ids, id)
		fmt.Println("resized to nil (freed)")
		return
	}

	r.ids[id] = newPtr
	if newPtr != p {
		fmt.Printf("id=%d moved to ptr=%p\n", id, newPtr)
	} else {
		fmt.Printf("id=%d unchanged ptr=%p\n", id, newPtr)
	}
}

func (r *repl) cmdStats() {
	s := r.heap.Stats()
	fmt.Printf("buckets=%d bucket_allocations=%d bucket_bytes=%d\n", s.Buckets, s.BucketAllocations, s.BucketBytes)
	fmt.Printf("large_allocations=%d large_bytes=%d\n", s.LargeAllocations, s.LargeBytes)
	fmt.Printf("total_allocations=%d total_bytes=%d\n", s.TotalAllocations, s.TotalBytes)
}

func (r *repl) cmdDump() {
	r.heap.PrintState(os.Stdout)
	r.heap.ShowAllocMem(os.Stdout)
}
