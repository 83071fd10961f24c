/*
Package raster converts glyph outlines into binary-coverage bitmaps.

The rasterizer is a classic scanline sweep: an outline is first broken
into an edge table of straight segments (quadratic Bézier arcs are
flattened adaptively), then a horizontal scanline advances across the
image in whole-pixel steps, maintaining the set of edges it currently
intersects. The sorted intersection points pair up into interior spans,
which are filled with full coverage.

Coordinates handed to this package are raster-space units (pixels), with
the origin at the lower-left corner of the glyph's bounding box. Helper
DeviceMetrics converts font design units into raster units.

The edge table is mutated during a sweep (activation state and the current
intersection abscissa live on the edges), so an EdgeTable is owned by a
single rendering call and must not be shared.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package raster

import (
	"math"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'pica.raster'
func tracer() tracing.Trace {
	return tracing.Select("pica.raster")
}

// Point is a position in raster space.
type Point struct {
	X, Y float64
}

// OutlinePoint is a point of a glyph contour, either on the curve or a
// quadratic control point.
type OutlinePoint struct {
	X, Y float64
	On   bool
}

// Outline is a set of closed contours in raster space. Contours are
// expected in canonical form: the first point on-curve, no two adjacent
// control points (see the tt package's glyph normalisation).
type Outline [][]OutlinePoint

// DeviceMetrics describes the rasterization target. The zero value is not
// usable; use Default() for the conventional 12pt/96dpi setting.
type DeviceMetrics struct {
	PointSize float64 // in typographic points (1/72 inch)
	DPI       float64 // raster resolution in dots per inch
}

// Default returns the conventional device metrics: 12 point glyphs at a
// raster resolution of 96 dpi.
func Default() DeviceMetrics {
	return DeviceMetrics{PointSize: 12.0, DPI: 96.0}
}

// Scale returns the factor converting font design units to raster units
// for a font with the given EM subdivision.
func (dm DeviceMetrics) Scale(unitsPerEm uint16) float64 {
	return dm.PointSize * dm.DPI / float64(unitsPerEm)
}

// --- Edge table -------------------------------------------------------------

// edge is a straight segment between two outline points, classified on
// construction into apex (higher y) and base (lower y). Non-vertical edges
// carry their slope and y-intercept for intersection stepping. active and
// sclx are transient sweep state.
type edge struct {
	apex, base Point
	vertical   bool
	m, c       float64 // slope and y-intercept, invalid for vertical edges
	active     bool
	sclx       float64 // x of the intersection with the current scanline
}

// minTolerance keeps the Bézier flattening tolerance bounded away from
// zero, which guarantees termination of the subdivision.
const minTolerance = 1.0 / 64.0

// EdgeTable is an ordered collection of edges, produced from an outline
// and consumed by a scanline sweep.
type EdgeTable struct {
	edges     []edge
	tolerance float64 // Bézier flattening tolerance in raster units
}

// NewEdgeTable creates an empty edge table. tolerance is the maximum
// distance, in raster units, between a quadratic arc and its straight-line
// approximation; it is clamped to a small positive minimum.
func NewEdgeTable(tolerance float64) *EdgeTable {
	if tolerance < minTolerance {
		tolerance = minTolerance
	}
	return &EdgeTable{tolerance: tolerance}
}

// Len returns the number of edges in the table.
func (et *EdgeTable) Len() int {
	return len(et.edges)
}

// AddEdge adds the straight segment p0–p1. Purely horizontal segments
// contribute no scanline crossings and are dropped.
func (et *EdgeTable) AddEdge(p0, p1 Point) {
	if p0.Y == p1.Y {
		return
	}
	e := edge{}
	if p0.Y > p1.Y {
		e.apex, e.base = p0, p1
	} else {
		e.apex, e.base = p1, p0
	}
	e.vertical = e.apex.X == e.base.X
	if !e.vertical {
		e.m = (e.apex.Y - e.base.Y) / (e.apex.X - e.base.X)
		e.c = e.base.Y - e.m*e.base.X
	}
	et.edges = append(et.edges, e)
}

// AddBezier flattens the quadratic arc p0–ctrl–p1 into straight edges.
//
// Subdivision is iterative midpoint splitting, driven by the perpendicular
// distance of the control point from the chord: once an arc's control
// point lies within the tolerance of its chord, the chord replaces the
// arc. An explicit stack bounds the recursion.
func (et *EdgeTable) AddBezier(p0, ctrl, p1 Point) {
	type bezier struct {
		p0, ctrl, p1 Point
	}
	stack := []bezier{{p0, ctrl, p1}}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		// distance of the control point from the chord, see
		// https://en.wikipedia.org/wiki/Distance_from_a_point_to_a_line
		x0, y0 := curr.ctrl.X, curr.ctrl.Y
		x1, y1 := curr.p0.X, curr.p0.Y
		x2, y2 := curr.p1.X, curr.p1.Y
		k := (y2-y1)*x0 - (x2-x1)*y0 + x2*y1 - y2*x1
		den := (y2-y1)*(y2-y1) + (x2-x1)*(x2-x1)
		if den == 0 {
			// degenerate arc with coinciding endpoints
			et.AddEdge(curr.p0, curr.p1)
			continue
		}
		if math.Abs(k)/math.Sqrt(den) <= et.tolerance {
			et.AddEdge(curr.p0, curr.p1)
			continue
		}
		m0 := mid(curr.p0, curr.ctrl)
		m2 := mid(curr.ctrl, curr.p1)
		m1 := mid(m0, m2)
		stack = append(stack, bezier{curr.p0, m0, m1}, bezier{m1, m2, curr.p1})
	}
}

func mid(p, q Point) Point {
	return Point{X: 0.5 * (p.X + q.X), Y: 0.5 * (p.Y + q.Y)}
}

// AddOutline walks the contours of an outline and appends their edges.
// Each contour is traversed cyclically with a small rolling buffer: two
// consecutive on-curve points emit a straight edge, an on–off–on triple
// emits a flattened quadratic arc.
func (et *EdgeTable) AddOutline(o Outline) {
	for _, contour := range o {
		et.addContour(contour)
	}
}

func (et *EdgeTable) addContour(pts []OutlinePoint) {
	if len(pts) < 2 {
		return
	}
	closed := make([]OutlinePoint, 0, len(pts)+1)
	closed = append(closed, pts...)
	closed = append(closed, pts[0]) // close the loop
	buf := make([]OutlinePoint, 1, 3)
	buf[0] = closed[0]
	for i := 1; i < len(closed); i++ {
		buf = append(buf, closed[i])
		if len(buf) == 2 && buf[0].On && buf[1].On {
			et.AddEdge(pt(buf[0]), pt(buf[1]))
			buf[0] = buf[1]
			buf = buf[:1]
		} else if len(buf) == 3 {
			if buf[0].On && !buf[1].On && buf[2].On {
				et.AddBezier(pt(buf[0]), pt(buf[1]), pt(buf[2]))
			} else {
				tracer().Errorf("contour not in canonical on/off form, dropping segment")
			}
			buf[0] = buf[2]
			buf = buf[:1]
		}
	}
	tracer().Debugf("contour of %d points flattened, edge table now %d edges",
		len(pts), len(et.edges))
}

func pt(p OutlinePoint) Point {
	return Point{X: p.X, Y: p.Y}
}
