package tt

import "github.com/npillmayer/pica/core"

// CMapTable represents a TrueType cmap table, i.e. the table to receive
// glyphs from code-points.
//
// See https://docs.microsoft.com/de-de/typography/opentype/spec/cmap
//
// Consulting the cmap table is a very frequent operation on fonts. We
// therefore construct an internal representation of the lookup table.
// A cmap table may contain more than one sub-table, but we will only
// instantiate the first one with a supported format.
type CMapTable struct {
	tableBase
	GlyphIndexMap CMapGlyphIndex
}

func newCMapTable(tag Tag, b binarySegm, offset, size uint32) *CMapTable {
	t := &CMapTable{}
	base := tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	}
	t.tableBase = base
	t.self = t
	return t
}

// CMapGlyphIndex represents a cmap table index to receive a glyph index
// from a code-point.
//
// The various cmap formats are described at
// https://www.microsoft.com/typography/otspec/cmap.htm
// Of the seven available formats we support format 0 ("byte encoding
// table", used by legacy Macintosh-platform encodings) and format 4
// ("segment mapping to delta values", the standard encoding for fonts
// supporting the Unicode BMP).
type CMapGlyphIndex interface {
	Lookup(rune) (GlyphIndex, error) // central activity of the cmap
}

// parseCMap locates a usable sub-table within the font's cmap. The cmap
// header holds a version (ignored) and the number of 8-byte encoding
// records, each ending with a 32-bit offset from the cmap base to the
// format sub-table. Encoding records are scanned in font order; the first
// sub-table with a supported format wins.
func parseCMap(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	t := newCMapTable(tag, b, offset, size)
	n, err := b.u16(2) // number of sub-tables
	if err != nil {
		return nil, errFontFormat("cmap header")
	}
	tracer().Debugf("font cmap has %d sub-tables in %d bytes", n, size)
	const headerSize, entrySize = 4, 8
	if size < headerSize+entrySize*uint32(n) {
		return nil, errFontFormat("size of cmap table")
	}
	for i := 0; i < int(n); i++ {
		rec, _ := b.view(headerSize+entrySize*i, entrySize)
		link := u32(rec[4:])
		if int64(link) >= int64(len(b)) {
			tracer().Infof("cmap sub-table #%d out of bounds, skipping", i)
			continue
		}
		subtable := b[link:]
		format := subtable.U16(0)
		tracer().Debugf("cmap sub-table #%d has format %d", i, format)
		switch format {
		case 0:
			t.GlyphIndexMap, err = makeGlyphIndexFormat0(subtable)
		case 4:
			t.GlyphIndexMap, err = makeGlyphIndexFormat4(subtable)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, core.Error(core.ENOENCODING, "font has no usable cmap encoding")
}

// --- Format 0: byte encoding table -----------------------------------------

// Format 0 is a simple 256-byte lookup of glyph indices, valid only for
// code-points in [0,255].
type format0GlyphIndex struct {
	table [256]byte
}

func (f0 *format0GlyphIndex) Lookup(r rune) (GlyphIndex, error) {
	if r < 0 || r > 0xff {
		return 0, core.Error(core.EUNMAPPED,
			"code-point %#x outside byte encoding table", r)
	}
	return GlyphIndex(f0.table[r]), nil
}

// The format 0 sub-table is 262 bytes: format, length, language, then the
// 256-entry glyphIdArray. We copy the array so the index owns its data.
func makeGlyphIndexFormat0(b binarySegm) (CMapGlyphIndex, error) {
	const headerSize = 6
	arr, err := b.view(headerSize, 256)
	if err != nil {
		return nil, errFontFormat("cmap sub-table bounds overflow")
	}
	f0 := &format0GlyphIndex{}
	copy(f0.table[:], arr)
	return f0, nil
}

// --- Format 4: segment mapping to delta values ------------------------------

// Format 4 holds four parallel arrays describing the segments (one segment
// for each contiguous range of codes), followed by a variable-length array
// of glyph IDs.
type cmapEntry16 struct {
	start, end, delta, offset uint16
}

type format4GlyphIndex struct {
	entries  []cmapEntry16
	glyphIds []uint16 // trailing glyphIdArray, owned
}

// Lookup maps a code-point to a glyph index. A code-point outside every
// segment maps to glyph 0, the "missing glyph"; this is not an error.
func (f4 *format4GlyphIndex) Lookup(r rune) (GlyphIndex, error) {
	if uint32(r) > 0xffff { // format 4 is for BMP code-points only
		return 0, nil
	}
	c := uint16(r)
	for i := range f4.entries {
		entry := &f4.entries[i]
		if entry.start <= c && c <= entry.end {
			if entry.offset == 0 {
				return GlyphIndex(entry.delta + c), nil
			}
			// The spec describes the calculation to find the link into the
			// glyph ID array as follows:
			// "The character code offset from startCode is added to the
			//  idRangeOffset value. This sum is used as an offset from the
			//  current location within idRangeOffset itself to index out the
			//  correct glyphIdArray value. This obscure indexing trick works
			//  because glyphIdArray immediately follows idRangeOffset in the
			//  font file."
			// We own the glyph ID array as a separate slice, so the trick
			// will not work for us (intentionally — I'm not a big fan of
			// 'obscure' tricks). Instead we reverse the pre-calculation:
			// the offset first skips the remainder of the idRangeOffset
			// array, i.e. segmentCount-i entries of 2 bytes each.
			inx := int(entry.offset)/2 + int(c-entry.start) - (len(f4.entries) - i)
			if inx < 0 || inx >= len(f4.glyphIds) {
				return 0, errFontFormat("cmap glyph ID index out of range")
			}
			return GlyphIndex(f4.glyphIds[inx]), nil
		}
	}
	return 0, nil // missing glyph
}

// The format's data is divided into three parts, which must occur in the
// following order:
//
//   - A seven-word header, including parameters for an optimized search of
//     the segment list;
//   - four parallel arrays (endCode, startCode, idDelta, idRangeOffset)
//     describing the segments, with a padding word after endCode;
//   - a variable-length array of glyph IDs.
func makeGlyphIndexFormat4(b binarySegm) (CMapGlyphIndex, error) {
	const headerSize = 14
	if headerSize > b.Size() {
		return nil, errFontFormat("cmap sub-table bounds overflow")
	}
	r := b.at(2)
	length := int(r.u16()) // the glyphIdArray runs to the end of the sub-table
	if length >= headerSize && length <= b.Size() {
		b = b[:length]
	}
	r.skip(2) // language
	segCountX2 := r.u16()
	if segCountX2&1 != 0 {
		return nil, errFontFormat("cmap format 4, illegal segment count")
	}
	segCount := int(segCountX2 / 2)
	r.skip(6) // searchRange, entrySelector, rangeShift
	if 8*segCount+2 > b.Size()-headerSize {
		return nil, errFontFormat("cmap internal structure")
	}
	entries := make([]cmapEntry16, segCount)
	ends := b.at(headerSize)
	starts := b.at(headerSize + 2*segCount + 2) // 2 is a padding entry
	deltas := b.at(headerSize + 4*segCount + 2)
	offsets := b.at(headerSize + 6*segCount + 2)
	for i := range entries {
		entries[i] = cmapEntry16{
			end:    ends.u16(),
			start:  starts.u16(),
			delta:  deltas.u16(),
			offset: offsets.u16(),
		}
	}
	if ends.err != nil || offsets.err != nil {
		return nil, errFontFormat("cmap segment arrays")
	}
	// The glyphIdArray continues from the end of idRangeOffset[] to the end
	// of the sub-table.
	idBase := headerSize + 8*segCount + 2
	ids := make([]uint16, 0, (b.Size()-idBase)/2)
	for g := b.at(idBase); ; {
		v := g.u16()
		if g.err != nil {
			break
		}
		ids = append(ids, v)
	}
	tracer().Debugf("cmap format 4 has %d segments, %d trailing glyph IDs",
		segCount, len(ids))
	return &format4GlyphIndex{
		entries:  entries,
		glyphIds: ids,
	}, nil
}

// --- Font-level lookup ------------------------------------------------------

// GlyphIndex maps a code-point to a glyph index, consulting the font's
// selected cmap sub-table. A code-point outside every segment of a format 4
// encoding maps to glyph 0 and is not an error; a code-point outside the
// range of a format 0 encoding is.
func (otf *Font) GlyphIndex(r rune) (GlyphIndex, error) {
	return otf.CMap.GlyphIndexMap.Lookup(r)
}
