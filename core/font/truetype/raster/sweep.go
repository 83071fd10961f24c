package raster

import (
	"math"

	"github.com/npillmayer/pica/core"
	"golang.org/x/exp/slices"
)

// scanlineDelta is the vertical step of the sweep. Scanlines run through
// pixel centers, i.e. at offsets 0.5, 1.5, 2.5, …
const scanlineDelta = 1.0

// Render sweeps the edge table and fills a bitmap of the given extent.
// The sweep mutates the edge table's activation state, so a table renders
// exactly once.
//
// For every scanline, edges whose vertical range contains the sweep
// position contribute one crossing each. Crossings must pair up: an odd
// number on any scanline means the outline's geometry is inconsistent
// (or an internal error), and the sweep aborts. Sorted crossings pair
// into interior spans, which are filled with Ink at whole-pixel
// granularity: floor(x0) ≤ x ≤ floor(x1).
func (et *EdgeTable) Render(width, height int) (*Bitmap, error) {
	target, err := NewBitmap(width, height)
	if err != nil {
		return nil, err
	}
	crossings := make([]float64, 0, 8)
	for scanline := 0.5; scanline < float64(height); scanline += scanlineDelta {
		crossings = crossings[:0]
		for i := range et.edges {
			e := &et.edges[i]
			if e.active {
				if scanline >= e.apex.Y {
					// edge shouldn't be active anymore
					e.active = false
					continue
				}
				// edge is still active, update its intersection point;
				// only non-vertical edges drift
				if !e.vertical {
					e.sclx += scanlineDelta / e.m
				}
				crossings = append(crossings, e.sclx)
			} else if e.base.Y <= scanline && scanline < e.apex.Y {
				// Activation happens on the first scanline at or above the
				// base; an edge is never activated on its apex, which
				// avoids double-counting at shared vertices.
				e.active = true
				if e.vertical {
					e.sclx = e.base.X
				} else {
					e.sclx = (scanline - e.c) / e.m
				}
				crossings = append(crossings, e.sclx)
			}
		}
		if len(crossings)%2 != 0 {
			tracer().Errorf("scanline %.1f has %d crossings", scanline, len(crossings))
			return nil, core.Error(core.EINVALID,
				"odd number of edge crossings (%d) on scanline %.1f",
				len(crossings), scanline)
		}
		slices.Sort(crossings)
		y := int(scanline)
		for k := 0; k+1 < len(crossings); k += 2 {
			x0 := int(math.Floor(crossings[k]))
			x1 := int(math.Floor(crossings[k+1]))
			if x0 < 0 {
				x0 = 0
			}
			if x1 >= width {
				x1 = width - 1
			}
			for x := x0; x <= x1; x++ {
				target.store(x, y, Ink)
			}
		}
	}
	return target, nil
}
