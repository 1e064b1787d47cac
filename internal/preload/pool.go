package preload

import (
	"image"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/justyntemme/loupe/internal/debug"
)

// Generator produces thumbnail pixel buffers for the pool.
// *thumb.Generator satisfies it.
type Generator interface {
	Generate(path string) (*image.RGBA, error)
}

// Pool consumes image paths from a shared queue and fills the pixel cache.
// Workers race; duplicate suppression is cache-presence based, so the same
// path requested twice in quick succession may decode twice. Both results
// are identical, the waste is accepted.
type Pool struct {
	queue *pathQueue
	cache *PixelCache
	gen   Generator

	workers       int
	throttleEvery int
	throttleDelay time.Duration

	wg      sync.WaitGroup
	stopped atomic.Bool
}

// Options bounds the pool's worker count and decode throttling.
type Options struct {
	MinWorkers    int
	MaxWorkers    int
	ThrottleEvery int           // Sleep after this many items per worker, 0 disables
	ThrottleDelay time.Duration // Sleep duration
}

// DefaultOptions matches steady background work without starving the UI.
func DefaultOptions() Options {
	return Options{
		MinWorkers:    2,
		MaxWorkers:    8,
		ThrottleEvery: 30,
		ThrottleDelay: 50 * time.Millisecond,
	}
}

// NewPool creates and starts the worker pool.
func NewPool(cache *PixelCache, gen Generator, opts Options) *Pool {
	workers := clampWorkers(runtime.NumCPU(), opts.MinWorkers, opts.MaxWorkers)

	p := &Pool{
		queue:         newPathQueue(),
		cache:         cache,
		gen:           gen,
		workers:       workers,
		throttleEvery: opts.ThrottleEvery,
		throttleDelay: opts.ThrottleDelay,
	}

	debug.Log(debug.POOL, "Pool: starting %d workers", workers)
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	return p
}

func clampWorkers(n, min, max int) int {
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// Request enqueues a path for background thumbnail generation.
// Already-cached paths are dropped immediately.
func (p *Pool) Request(path string) {
	if p.stopped.Load() {
		return
	}
	if p.cache.Contains(path) {
		return
	}
	p.queue.Push(path)
}

// Cache returns the shared pixel cache the pool fills.
func (p *Pool) Cache() *PixelCache {
	return p.cache
}

// QueueLen returns the number of paths waiting to be processed.
func (p *Pool) QueueLen() int {
	return p.queue.Len()
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// Stop discards queued work, waits for in-flight decodes to finish, and joins
// all workers. Safe to call from the main thread during teardown; active
// decodes run to completion, there is no hard interrupt.
func (p *Pool) Stop() {
	if p.stopped.Swap(true) {
		return
	}
	p.queue.Close()
	p.wg.Wait()
	debug.Log(debug.POOL, "Pool: stopped")
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	processed := 0
	for {
		path, ok := p.queue.Pop()
		if !ok {
			return
		}

		// Another worker may have finished this path while it sat queued
		if p.cache.Contains(path) {
			debug.Log(debug.POOL_ITEM, "worker %d: %s already cached, skipping", id, path)
			continue
		}

		rgba, err := p.gen.Generate(path)
		if err != nil {
			// A missing thumbnail degrades to "not yet available"
			debug.Log(debug.POOL, "worker %d: %s: %v", id, path, err)
			continue
		}
		p.cache.Put(path, rgba)
		debug.Log(debug.POOL_ITEM, "worker %d: cached %s", id, path)

		processed++
		if p.throttleEvery > 0 && processed%p.throttleEvery == 0 {
			// Niceness: bound CPU usage during folder-scale preloads
			time.Sleep(p.throttleDelay)
		}
	}
}
