// Package mem derives cache capacities from live system memory statistics.
package mem

import (
	gopsmem "github.com/shirou/gopsutil/v4/mem"

	"github.com/justyntemme/loupe/internal/debug"
)

const (
	// Fraction of available memory given to the thumbnail caches (percent)
	budgetPercent = 10

	// Assumed average decoded thumbnail footprint: ~300px RGBA
	assumedThumbBytes = 300 * 300 * 4

	// Clamp bounds for the preload cache item count
	minItems = 50
	maxItems = 2000

	// Fallbacks when the memory query fails
	fallbackPreload = 400
	fallbackRender  = 200
)

// CacheSizes queries system memory and returns (preloadCapacity, renderCapacity)
// as item counts. A failed query falls back to fixed defaults; it never blocks
// startup or returns an error.
func CacheSizes() (int, int) {
	vm, err := gopsmem.VirtualMemory()
	if err != nil {
		debug.Log(debug.MEM, "memory query failed, using fallbacks: %v", err)
		return fallbackPreload, fallbackRender
	}

	preload, render := sizesFor(vm.Available)
	debug.Log(debug.MEM, "total=%dMB available=%dMB -> preload=%d render=%d",
		vm.Total>>20, vm.Available>>20, preload, render)
	return preload, render
}

// sizesFor computes capacities from available memory in bytes.
func sizesFor(available uint64) (int, int) {
	budget := available * budgetPercent / 100
	items := int(budget / assumedThumbBytes)

	if items < minItems {
		items = minItems
	}
	if items > maxItems {
		items = maxItems
	}

	// The render cache holds uploaded textures, keep it at half the raw cache
	return items, items / 2
}
