// Package parallel splits elementwise kernel work across goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum elements per goroutine to avoid overhead.
}

// DefaultConfig returns defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4096,
	}
}

// Sequential returns a config that runs everything on the calling goroutine.
func Sequential() Config {
	return Config{}
}

// ForChunks calls f(start, end) over disjoint ranges covering [0, n).
// Ranges run concurrently when enabled and n is large enough; otherwise f
// is called once with (0, n). f is never called for n <= 0.
func ForChunks(n int, f func(start, end int), cfg Config) {
	if n <= 0 {
		return
	}
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < 2*cfg.MinChunkSize {
		f(0, n)
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			f(s, e)
		}(start, end)
	}
	wg.Wait()
}

// For executes f(i) for i in [0, n), chunked as in ForChunks.
func For(n int, f func(i int), cfg Config) {
	ForChunks(n, func(s, e int) {
		for i := s; i < e; i++ {
			f(i)
		}
	}, cfg)
}
