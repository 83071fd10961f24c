package tt

import (
	"math"

	"github.com/emirpasic/gods/sets/hashset"
	"github.com/npillmayer/pica/core"
)

// Flags for decoding a glyph's contours. These flags are documented at
// https://developer.apple.com/fonts/TTRefMan/RM06/Chap6glyf.html.
const (
	flagOnCurve = 1 << iota
	flagXShortVector
	flagYShortVector
	flagRepeat
	flagPositiveXShortVector
	flagPositiveYShortVector
)

// The same flag bits (0x10 and 0x20) are overloaded to have two meanings,
// dependent on the value of the flag{X,Y}ShortVector bits.
const (
	flagThisXIsSame = flagPositiveXShortVector
	flagThisYIsSame = flagPositiveYShortVector
)

// Contour is one closed loop of glyph points, held as parallel arrays of
// equal length. A contour is conceptually cyclic: the last point connects
// back to the first. After loading, the first point of a contour is always
// on-curve and two off-curve points are never adjacent (implied on-curve
// midpoints have been inserted).
type Contour struct {
	Flags []uint8 // bit 0 is the on-curve flag
	Xs    []int16 // X coordinates in font design units
	Ys    []int16 // Y coordinates in font design units
}

// Len returns the number of points of the contour.
func (c Contour) Len() int {
	return len(c.Flags)
}

// OnCurve is a predicate: is point #i of the contour an on-curve point?
func (c Contour) OnCurve(i int) bool {
	return c.Flags[i]&flagOnCurve != 0
}

// GlyphMesh is an ordered sequence of contours. A compound glyph's mesh is
// the concatenation of its transformed component meshes.
type GlyphMesh []Contour

// BoundingBox describes the bounding box of a glyph, in font design units.
type BoundingBox struct {
	XMin, YMin float64
	XMax, YMax float64
}

// Empty is a predicate: has this box a zero area?
func (bbox BoundingBox) Empty() bool {
	return bbox.XMax-bbox.XMin == 0 || bbox.YMax-bbox.YMin == 0
}

// Dx is the horizontal extent of this box.
func (bbox BoundingBox) Dx() float64 {
	return bbox.XMax - bbox.XMin
}

// Dy is the vertical extent of this box.
func (bbox BoundingBox) Dy() float64 {
	return bbox.YMax - bbox.YMin
}

// GlyphDescription is the decoded outline of one glyph: its contours plus
// the bounding box from the glyph record header. It is created per
// rendering call and owned by the caller.
type GlyphDescription struct {
	Mesh GlyphMesh
	BBox BoundingBox
}

// IsEmpty is a predicate: has this glyph no outline? Whitespace glyphs
// have a zero-length entry in the 'loca' table and carry no contours.
func (gd *GlyphDescription) IsEmpty() bool {
	return len(gd.Mesh) == 0
}

// errGlyfFormat produces parse errors carrying the offending glyph.
func errGlyfFormat(x string, g GlyphIndex) error {
	return core.Error(core.EINVALID, "glyf table, glyph %d: %s", g, x)
}

// LoadGlyph decodes the outline of glyph g from the 'glyf' table.
// Compound glyphs are resolved recursively; the recursion depth is guarded
// by maxp.maxComponentDepth and component cycles are detected.
func (otf *Font) LoadGlyph(g GlyphIndex) (*GlyphDescription, error) {
	return otf.loadGlyph(g, 0, hashset.New())
}

// hard backstop for fonts that understate maxComponentDepth
const maxCompoundNesting = 32

func (otf *Font) loadGlyph(g GlyphIndex, depth int, path *hashset.Set) (*GlyphDescription, error) {
	if int(g) >= otf.maxp.NumGlyphs {
		return nil, errGlyfFormat("glyph index out of range", g)
	}
	start, err := otf.loca.IndexToLocation(g)
	if err != nil {
		return nil, err
	}
	end, err := otf.loca.IndexToLocation(g + 1)
	if err != nil {
		return nil, err
	}
	if start == end {
		// Glyphs without an outline (e.g. the space character) have
		// identical consecutive loca entries.
		tracer().Debugf("glyph %d has no outline", g)
		return &GlyphDescription{}, nil
	}
	if start > end || int64(end) > int64(len(otf.glyf)) {
		return nil, errGlyfFormat("loca entry exceeds glyf table", g)
	}
	r := makeReader(otf.glyf[start:end])
	contourCount := r.s16()
	bbox := BoundingBox{}
	bbox.XMin = float64(r.s16())
	bbox.YMin = float64(r.s16())
	bbox.XMax = float64(r.s16())
	bbox.YMax = float64(r.s16())
	if r.err != nil {
		return nil, errGlyfFormat("glyph header", g)
	}
	if contourCount >= 0 {
		mesh, err := otf.loadSimple(&r, int(contourCount), g)
		if err != nil {
			return nil, err
		}
		return &GlyphDescription{Mesh: mesh, BBox: bbox}, nil
	}
	mesh, err := otf.loadCompound(&r, g, depth, path)
	if err != nil {
		return nil, err
	}
	return &GlyphDescription{Mesh: mesh, BBox: bbox}, nil
}

// --- Simple glyphs ----------------------------------------------------------

// loadSimple decodes a simple glyph: contour end indices, instructions
// (skipped — hinting is out of scope), run-length-encoded point flags, and
// delta-encoded X and Y coordinate arrays. Contours are normalised before
// they are returned (see normalizeContour).
func (otf *Font) loadSimple(r *reader, contourCount int, g GlyphIndex) (GlyphMesh, error) {
	ends := make([]int, contourCount)
	for i := range ends {
		ends[i] = int(r.u16())
		if i > 0 && ends[i] < ends[i-1] {
			return nil, errGlyfFormat("contour end indices not ascending", g)
		}
	}
	if len(ends) == 0 {
		return GlyphMesh{}, nil
	}
	pointCount := ends[len(ends)-1] + 1
	instructionLength := int(r.u16())
	r.skip(instructionLength)
	flags, err := expandFlags(r, pointCount)
	if err != nil {
		return nil, errGlyfFormat("flags array", g)
	}
	// Coordinates are delta-compressed. The accumulator starts at 0 before
	// the first contour and runs across contour boundaries, so all
	// coordinates end up relative to the same origin. The origin itself is
	// not part of the point list.
	xs := decodeCoordinates(r, flags, flagXShortVector, flagPositiveXShortVector)
	ys := decodeCoordinates(r, flags, flagYShortVector, flagPositiveYShortVector)
	if r.err != nil {
		return nil, errGlyfFormat("coordinate arrays", g)
	}
	mesh := make(GlyphMesh, 0, contourCount)
	prev := 0
	for _, e := range ends {
		c := Contour{
			Flags: flags[prev : e+1],
			Xs:    xs[prev : e+1],
			Ys:    ys[prev : e+1],
		}
		nc, err := normalizeContour(c, g)
		if err != nil {
			return nil, err
		}
		mesh = append(mesh, nc)
		prev = e + 1
	}
	return mesh, nil
}

// expandFlags reads the run-length-encoded flags stream: a flag byte with
// bit 3 set is followed by an extra repeat count.
func expandFlags(r *reader, pointCount int) ([]uint8, error) {
	flags := make([]uint8, 0, pointCount)
	for len(flags) < pointCount {
		f := r.u8()
		if r.err != nil {
			return nil, r.err
		}
		repeat := 1
		if f&flagRepeat != 0 {
			repeat += int(r.u8())
		}
		for n := 0; n < repeat && len(flags) < pointCount; n++ {
			flags = append(flags, f)
		}
	}
	return flags, nil
}

// decodeCoordinates runs the delta decoder for one axis. shortBit selects
// the one-byte encoding; its sign/same companion bit (dualBit) switches
// meaning with it: for short deltas it is the sign, for long ones it marks
// a repeated coordinate.
func decodeCoordinates(r *reader, flags []uint8, shortBit, dualBit uint8) []int16 {
	coords := make([]int16, len(flags))
	acc := int16(0)
	for i, f := range flags {
		if f&shortBit != 0 {
			d := int16(r.u8())
			if f&dualBit != 0 {
				acc += d
			} else {
				acc -= d
			}
		} else if f&dualBit == 0 {
			acc += r.s16()
		} // else: same as previous, delta 0
		coords[i] = acc
	}
	return coords
}

// normalizeContour brings a contour into the canonical "on, (off, on)*"
// cycle: the contour is rotated to start at an on-curve point, and an
// implied on-curve point is inserted at the midpoint of any two adjacent
// off-curve points (wrap-around included). A contour consisting solely of
// off-curve points gets a synthesised on-curve start point.
func normalizeContour(c Contour, g GlyphIndex) (Contour, error) {
	n := c.Len()
	if n == 0 {
		return Contour{}, errGlyfFormat("empty contour", g)
	}
	start := -1
	for i := 0; i < n; i++ {
		if c.OnCurve(i) {
			start = i
			break
		}
	}
	nc := Contour{
		Flags: make([]uint8, 0, n+n/2+1),
		Xs:    make([]int16, 0, n+n/2+1),
		Ys:    make([]int16, 0, n+n/2+1),
	}
	if start < 0 {
		// No on-curve point at all: the cycle is all control points, and
		// every midpoint is implied. Open the loop at the midpoint of the
		// last and first control points.
		nc.Flags = append(nc.Flags, flagOnCurve)
		nc.Xs = append(nc.Xs, midpoint(c.Xs[n-1], c.Xs[0]))
		nc.Ys = append(nc.Ys, midpoint(c.Ys[n-1], c.Ys[0]))
		start = 0
	}
	for k := 0; k < n; k++ {
		i := (start + k) % n
		if k > 0 && !c.OnCurve(i) && !c.OnCurve((start+k-1)%n) {
			// implied on-curve point between two adjacent control points
			h := (start + k - 1) % n
			nc.Flags = append(nc.Flags, flagOnCurve)
			nc.Xs = append(nc.Xs, midpoint(c.Xs[h], c.Xs[i]))
			nc.Ys = append(nc.Ys, midpoint(c.Ys[h], c.Ys[i]))
		}
		nc.Flags = append(nc.Flags, c.Flags[i])
		nc.Xs = append(nc.Xs, c.Xs[i])
		nc.Ys = append(nc.Ys, c.Ys[i])
	}
	// The wrap-around pair needs no insertion: the first point of the
	// rotated cycle is on-curve by construction.
	return nc, nil
}

// midpoint quantizes implied on-curve points to the design grid, rounding
// half away from zero.
func midpoint(a, b int16) int16 {
	return roundHalfAway(float64(int(a)+int(b)) / 2.0)
}

func roundHalfAway(v float64) int16 {
	if v < 0 {
		return int16(math.Ceil(v - 0.5))
	}
	return int16(math.Floor(v + 0.5))
}

// --- Compound glyphs --------------------------------------------------------

// Flags for decoding a compound glyph's component records. These flags are
// documented at https://developer.apple.com/fonts/TTRefMan/RM06/Chap6glyf.html.
const (
	cfArg1And2AreWords uint16 = 1 << iota
	cfArgsAreXYValues
	cfRoundXYToGrid
	cfWeHaveAScale
	cfUnused4
	cfMoreComponents
	cfWeHaveAnXAndYScale
	cfWeHaveATwoByTwo
	cfWeHaveInstructions
	cfUseMyMetrics
	cfOverlapCompound
	cfScaledComponentOffset
	cfUnscaledComponentOffset
)

// loadCompound decodes a compound glyph: a sequence of component records,
// each referencing a child glyph together with an affine transform. The
// child meshes are loaded recursively, transformed, and concatenated.
func (otf *Font) loadCompound(r *reader, g GlyphIndex, depth int,
	path *hashset.Set) (GlyphMesh, error) {

	if depth >= maxCompoundNesting ||
		(otf.maxp.MaxComponentDepth > 0 && depth >= otf.maxp.MaxComponentDepth) {
		return nil, errGlyfFormat("compound glyph nested too deeply", g)
	}
	if path.Contains(g) {
		return nil, errGlyfFormat("compound glyph component cycle", g)
	}
	path.Add(g)
	defer path.Remove(g)
	var mesh GlyphMesh
	for {
		flags := r.u16()
		component := GlyphIndex(r.u16())
		var e, f float64
		if flags&cfArg1And2AreWords != 0 {
			e, f = float64(r.s16()), float64(r.s16())
		} else {
			e, f = float64(r.s8()), float64(r.s8())
		}
		if flags&cfArgsAreXYValues == 0 {
			// Arguments are point indices for aligning parent and child
			// point pairs. This mode is not supported; such glyphs are rejected.
			return nil, errGlyfFormat("unsupported: point-alignment compound", g)
		}
		// affine matrix, default identity
		a, b, c, d := 1.0, 0.0, 0.0, 1.0
		if flags&cfWeHaveAScale != 0 {
			a = f2dot14(r.u16())
			d = a
		} else if flags&cfWeHaveAnXAndYScale != 0 {
			a = f2dot14(r.u16())
			d = f2dot14(r.u16())
		} else if flags&cfWeHaveATwoByTwo != 0 {
			a = f2dot14(r.u16())
			b = f2dot14(r.u16())
			c = f2dot14(r.u16())
			d = f2dot14(r.u16())
		}
		if r.err != nil {
			return nil, errGlyfFormat("component record", g)
		}
		child, err := otf.loadGlyph(component, depth+1, path)
		if err != nil {
			return nil, err
		}
		m, n := 1.0, 1.0
		if flags&cfUnscaledComponentOffset == 0 {
			// Apple's variant of component offset scaling: the translation
			// is scaled by the magnitude of the matrix columns, doubled
			// when the column magnitudes nearly cancel.
			m = math.Max(math.Abs(a), math.Abs(b))
			n = math.Max(math.Abs(c), math.Abs(d))
			if math.Abs(math.Abs(a)-math.Abs(c)) <= 33.0/65536.0 {
				m *= 2
			}
			if math.Abs(math.Abs(b)-math.Abs(d)) <= 33.0/65536.0 {
				n *= 2
			}
		}
		tx, ty := m*e, n*f
		for _, contour := range child.Mesh {
			mesh = append(mesh, transformContour(contour, a, b, c, d, tx, ty))
		}
		if flags&cfMoreComponents == 0 {
			break
		}
	}
	return mesh, nil
}

// transformContour applies the component's affine transform to every point
// of a child contour, rounding half away from zero at design-unit
// granularity.
func transformContour(ct Contour, a, b, c, d, tx, ty float64) Contour {
	nc := Contour{
		Flags: make([]uint8, ct.Len()),
		Xs:    make([]int16, ct.Len()),
		Ys:    make([]int16, ct.Len()),
	}
	copy(nc.Flags, ct.Flags)
	for i := 0; i < ct.Len(); i++ {
		x, y := float64(ct.Xs[i]), float64(ct.Ys[i])
		nc.Xs[i] = roundHalfAway(a*x + c*y + tx)
		nc.Ys[i] = roundHalfAway(b*x + d*y + ty)
	}
	return nc
}

// f2dot14 decodes a 16-bit fixed-point value with a 2-bit twos-complement
// integer part and a 14-bit unsigned fractional part.
func f2dot14(v uint16) float64 {
	return float64(int16(v)>>14) + float64(v&0x3fff)/16384.0
}
