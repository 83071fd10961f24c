/*
Package tt provides access to the binary tables of TrueType fonts.

Intended audience for this package are:

▪︎ glyph rasterizers, such as the sibling package raster

▪︎ any application needing the internal structure of a TrueType font file,
and possibly extending the methods of package `tt` by handling additional
font tables

Package `tt` decodes the tables needed to resolve a character to a glyph
outline: the table directory, 'head', 'maxp', 'cmap' (formats 0 and 4),
'loca' and 'glyf', plus 'hhea'/'hmtx' for horizontal metrics and 'name'
for display names. It does not interpret hinting instructions, advanced
layout tables (GSUB/GPOS), CFF outlines or font collections.

A font is parsed from a byte slice:

	otf, err := tt.Parse(fontdata)
	gid, err := otf.GlyphIndex('A')
	glyph, err := otf.LoadGlyph(gid)

The returned glyph description holds the glyph's contours in font design
units, with implied on-curve points already inserted, ready to be handed
to a rasterizer.

All multi-byte fields of a TrueType font are big-endian. Offsets in a font
are unsigned byte counts relative to a table or sub-table start; this
package re-expresses all of the font's interior-pointer constructs (the
cmap format 4 idRangeOffset mechanism in particular) as indices into data
owned by the decoded structures, so no decoded structure retains raw
pointer arithmetic over the input buffer.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package tt

import (
	"github.com/npillmayer/pica/core"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'pica.fonts'
func tracer() tracing.Trace {
	return tracing.Select("pica.fonts")
}

// errFontFormat produces user level errors for font parsing.
func errFontFormat(x string) error {
	return core.Error(core.EINVALID, "TrueType font format: %s", x)
}
