/*
Package truetype renders single glyphs of TrueType fonts into coverage
bitmaps.

It is the façade over two sibling packages: tt decodes the font's binary
tables down to glyph outlines, raster sweeps those outlines into bitmaps.
A typical use:

	rend, err := truetype.Open(fontdata, truetype.Options{})
	bitmap, err := rend.Render('A', 0) // 0: render at the configured size

The returned bitmap covers the glyph's bounding box, one byte per pixel,
bottom row first.

Renderers are cheap to create and carry no per-glyph caches. A Renderer is
not safe for concurrent use; two goroutines should each open their own.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package truetype

import (
	"math"

	"github.com/npillmayer/pica/core/font/truetype/raster"
	"github.com/npillmayer/pica/core/font/truetype/tt"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'pica.fonts'
func tracer() tracing.Trace {
	return tracing.Select("pica.fonts")
}

// QualityLevel selects the Bézier flattening accuracy of the rasterizer.
type QualityLevel int

// Quality levels. Restricted approximates every arc by its chord and is
// meant for previews; Medium keeps flattening artifacts below one raster
// unit and is the default (and the zero value).
const (
	QualityMedium QualityLevel = iota
	QualityRestricted
	QualityLow
	QualityHigh
)

// tolerance returns the flattening tolerance in raster units.
func (q QualityLevel) tolerance() float64 {
	switch q {
	case QualityRestricted:
		return math.Inf(+1) // chords only
	case QualityLow:
		return 10.0
	case QualityHigh:
		return 0.1
	}
	return 1.0
}

// Options configure a Renderer. Zero-valued fields fall back to the
// conventional defaults: 12 point glyphs at 96 dpi, medium quality.
type Options struct {
	PointSize float64
	DPI       float64
	Quality   QualityLevel
}

func (opts Options) withDefaults() Options {
	if opts.PointSize <= 0 {
		opts.PointSize = raster.Default().PointSize
	}
	if opts.DPI <= 0 {
		opts.DPI = raster.Default().DPI
	}
	return opts
}

// Renderer renders glyphs of a single font. It owns the decoded font
// structure; the font's byte buffer must outlive the Renderer.
type Renderer struct {
	otf  *tt.Font
	opts Options
}

// Open parses a TrueType font from a byte slice and prepares a Renderer
// for it. The table directory is built, a cmap sub-table selected and the
// font's global metrics read; errors in any of these surface here.
func Open(data []byte, opts Options) (*Renderer, error) {
	otf, err := tt.Parse(data)
	if err != nil {
		return nil, err
	}
	tracer().Infof("opened font %q with %d glyphs, %d units/em",
		otf.Name(), otf.NumGlyphs(), otf.UnitsPerEm())
	return &Renderer{otf: otf, opts: opts.withDefaults()}, nil
}

// NewRenderer wraps an already parsed font.
func NewRenderer(otf *tt.Font, opts Options) *Renderer {
	return &Renderer{otf: otf, opts: opts.withDefaults()}
}

// Font returns the decoded font structure, for clients needing direct
// table access.
func (rend *Renderer) Font() *tt.Font {
	return rend.otf
}

// Render maps a code-point to a glyph and rasterizes that glyph.
// ptSize overrides the configured point size for this call; pass 0 to
// render at the configured size. Glyphs without an outline (e.g. the
// space character) produce an empty bitmap.
func (rend *Renderer) Render(codepoint rune, ptSize float64) (*raster.Bitmap, error) {
	gid, err := rend.otf.GlyphIndex(codepoint)
	if err != nil {
		return nil, err
	}
	tracer().Debugf("code-point %#U maps to glyph %d", codepoint, gid)
	return rend.RenderGlyph(gid, ptSize)
}

// RenderGlyph rasterizes the glyph with index gid, bypassing the cmap.
func (rend *Renderer) RenderGlyph(gid tt.GlyphIndex, ptSize float64) (*raster.Bitmap, error) {
	glyph, err := rend.otf.LoadGlyph(gid)
	if err != nil {
		return nil, err
	}
	if glyph.IsEmpty() {
		bitmap, err := raster.NewBitmap(0, 0)
		if err != nil {
			return nil, err
		}
		return bitmap, nil
	}
	dm := raster.DeviceMetrics{PointSize: rend.opts.PointSize, DPI: rend.opts.DPI}
	if ptSize > 0 {
		dm.PointSize = ptSize
	}
	scale := dm.Scale(rend.otf.UnitsPerEm())
	et := raster.NewEdgeTable(rend.opts.Quality.tolerance())
	et.AddOutline(outline(glyph, scale))
	width := int(math.Ceil(glyph.BBox.Dx() * scale))
	height := int(math.Ceil(glyph.BBox.Dy() * scale))
	tracer().Debugf("rasterizing glyph %d into %d x %d pixels, %d edges",
		gid, width, height, et.Len())
	return et.Render(width, height)
}

// GlyphMetrics returns the horizontal metrics of the glyph for a
// code-point, scaled to raster units of the configured device.
func (rend *Renderer) GlyphMetrics(codepoint rune) (advance, lsb float64, err error) {
	gid, err := rend.otf.GlyphIndex(codepoint)
	if err != nil {
		return 0, 0, err
	}
	a, l := rend.otf.GlyphMetrics(gid)
	scale := raster.DeviceMetrics{
		PointSize: rend.opts.PointSize,
		DPI:       rend.opts.DPI,
	}.Scale(rend.otf.UnitsPerEm())
	return float64(a) * scale, float64(l) * scale, nil
}

// outline converts a glyph's contours from design space to raster space:
// coordinates scale by the device factor and translate so that (0,0) of
// the bitmap coincides with the lower-left corner of the bounding box.
func outline(glyph *tt.GlyphDescription, scale float64) raster.Outline {
	o := make(raster.Outline, 0, len(glyph.Mesh))
	for _, contour := range glyph.Mesh {
		pts := make([]raster.OutlinePoint, contour.Len())
		for i := 0; i < contour.Len(); i++ {
			pts[i] = raster.OutlinePoint{
				X:  (float64(contour.Xs[i]) - glyph.BBox.XMin) * scale,
				Y:  (float64(contour.Ys[i]) - glyph.BBox.YMin) * scale,
				On: contour.OnCurve(i),
			}
		}
		o = append(o, pts)
	}
	return o
}
