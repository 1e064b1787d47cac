package mem

import "testing"

func TestSizesFor(t *testing.T) {
	testCases := []struct {
		name            string
		available       uint64
		expectedPreload int
		expectedRender  int
	}{
		// 8GB available: 800MB budget / 360KB per thumb = 2330 -> clamped to 2000
		{"large system", 8 << 30, 2000, 1000},
		// 1GB available: 100MB budget / 360KB = 291
		{"mid system", 1 << 30, 298, 149},
		// 64MB available: 6.4MB budget / 360KB = 18 -> clamped up to 50
		{"tiny system", 64 << 20, 50, 25},
		// Zero (degenerate query result) still clamps to minimum
		{"zero", 0, 50, 25},
	}

	for _, tc := range testCases {
		preload, render := sizesFor(tc.available)
		if preload != tc.expectedPreload {
			t.Errorf("%s: sizesFor(%d) preload = %d, expected %d", tc.name, tc.available, preload, tc.expectedPreload)
		}
		if render != tc.expectedRender {
			t.Errorf("%s: sizesFor(%d) render = %d, expected %d", tc.name, tc.available, render, tc.expectedRender)
		}
	}
}

func TestSizesForRenderIsHalf(t *testing.T) {
	for _, avail := range []uint64{0, 128 << 20, 1 << 30, 4 << 30, 32 << 30} {
		preload, render := sizesFor(avail)
		if render != preload/2 {
			t.Errorf("sizesFor(%d): render %d is not half of preload %d", avail, render, preload)
		}
	}
}

func TestCacheSizesWithinBounds(t *testing.T) {
	preload, render := CacheSizes()
	if preload < minItems || preload > maxItems {
		t.Errorf("preload capacity %d outside [%d, %d]", preload, minItems, maxItems)
	}
	if render <= 0 || render > preload {
		t.Errorf("render capacity %d invalid for preload %d", render, preload)
	}
}
