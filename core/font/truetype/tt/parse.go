package tt

import (
	"fmt"

	"github.com/npillmayer/pica/core"
)

// Code comments often cite passages from the TrueType reference manual,
// see https://developer.apple.com/fonts/TrueType-Reference-Manual/,
// and from the OpenType specification,
// see https://docs.microsoft.com/en-us/typography/opentype/spec/.

// ---------------------------------------------------------------------------

// Parse parses a TrueType font from a byte slice.
// A tt.Font needs ongoing access to the font's byte-data after the Parse
// function returns. The data is assumed immutable while the tt.Font
// remains in use.
func Parse(font []byte) (*Font, error) {
	// The offset table is 12 bytes: sfnt version, numTables, and three
	// binary-search helpers which we skip.
	src := binarySegm(font)
	r := makeReader(src)
	h := &FontHeader{}
	h.FontType = r.u32()
	h.TableCount = r.u16()
	r.skip(6) // searchRange, entrySelector, rangeShift
	if r.err != nil {
		return nil, errFontFormat("offset table")
	}
	tracer().Debugf("header = %v, tag = %x|%s", h, h.FontType, Tag(h.FontType).String())
	if !(h.FontType == 0x00010000 || // TrueType outlines
		h.FontType == 0x74727565) { // 'true'
		return nil, core.Error(core.EUNSUPPORTED,
			"font type not supported: %#x", h.FontType)
	}
	otf := &Font{Header: h, tables: make(map[Tag]Table)}
	// "The offset table is followed immediately by the table record
	// entries", 16 bytes each: tag, checksum, offset, length.
	buf, err := src.view(12, 16*int(h.TableCount))
	if err != nil {
		return nil, errFontFormat("table record entries")
	}
	for b := buf; len(b) > 0; b = b[16:] {
		tag := MakeTag(b).lower()
		off, size := u32(b[8:12]), u32(b[12:16])
		if int64(off)+int64(size) > int64(len(src)) {
			return nil, errFontFormat(fmt.Sprintf("table %s exceeds font bounds", tag))
		}
		otf.tables[tag], err = parseTable(tag, src[off:off+size], off, size)
		if err != nil {
			return nil, err
		}
	}
	if err := consistencyCheck(otf); err != nil {
		return nil, err
	}
	return otf, nil
}

// RequiredTables lists the tables this package needs to resolve a
// character to an outline.
var RequiredTables = []string{
	"cmap", "head", "loca", "glyf", "maxp",
}

// Consistency check and shortcuts to essential tables. The size of entries
// in the 'loca' table must be appropriate for the value of the
// indexToLocFormat field of the 'head' table, and the number of entries is
// one more than the numGlyphs field of the 'maxp' table.
func consistencyCheck(otf *Font) error {
	for _, tag := range RequiredTables {
		if otf.tables[T(tag)] == nil {
			return core.Error(core.EMISSING, "font lacks required table %s", tag)
		}
	}
	otf.CMap = otf.tables[T("cmap")].Self().AsCMap()
	otf.head = otf.tables[T("head")].Self().AsHead()
	otf.maxp = otf.tables[T("maxp")].Self().AsMaxP()
	otf.loca = otf.tables[T("loca")].Self().AsLoca()
	otf.glyf = otf.tables[T("glyf")].Self().tableBase.data
	if otf.head.IndexToLocFormat == 1 {
		otf.loca.inx2loc = longLocaVersion
	} else if otf.head.IndexToLocFormat != 0 {
		return errFontFormat("head.indexToLocFormat neither short nor long")
	}
	otf.loca.locCnt = otf.maxp.NumGlyphs + 1
	if hh := otf.tables[T("hhea")]; hh != nil {
		hhea := hh.Self().AsHHea()
		if mx := otf.tables[T("hmtx")]; mx != nil {
			otf.hmtx = mx.Self().AsHMtx()
			otf.hmtx.NumberOfHMetrics = hhea.NumberOfHMetrics
		}
	}
	if nm := otf.tables[T("name")]; nm != nil {
		otf.names = nm.Self().AsName()
	}
	return nil
}

func parseTable(t Tag, b binarySegm, offset, size uint32) (Table, error) {
	switch t {
	case T("cmap"):
		return parseCMap(t, b, offset, size)
	case T("head"):
		return parseHead(t, b, offset, size)
	case T("hhea"):
		return parseHHea(t, b, offset, size)
	case T("hmtx"):
		return parseHMtx(t, b, offset, size)
	case T("loca"):
		return parseLoca(t, b, offset, size)
	case T("maxp"):
		return parseMaxP(t, b, offset, size)
	case T("name"):
		return parseName(t, b, offset, size)
	case T("glyf"):
		return newTable(t, b, offset, size), nil // interpreted lazily, per glyph
	}
	tracer().Debugf("font contains table (%s), will not be interpreted", t)
	return newTable(t, b, offset, size), nil
}

// --- Head table ------------------------------------------------------------

func parseHead(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 54 {
		return nil, errFontFormat("size of head table")
	}
	t := newHeadTable(tag, b, offset, size)
	t.Flags, _ = b.u16(16)
	t.UnitsPerEm, _ = b.u16(18)
	// IndexToLocFormat is needed to interpret the loca table:
	// 0 for short offsets, 1 for long
	t.IndexToLocFormat, _ = b.u16(50)
	return t, nil
}

// --- Loca table ------------------------------------------------------------

// The 'loca' table is most intimately dependent upon the contents of the
// 'glyf' table and vice versa; interpretation is wired up during the
// consistency check, once 'head' and 'maxp' are known.
func parseLoca(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	return newLocaTable(tag, b, offset, size), nil
}

// --- MaxP table ------------------------------------------------------------

// The 'maxp' table establishes the memory requirements for this font.
// Fonts with TrueType outlines must use version 1.0 of this table, which
// includes maxComponentDepth at offset 30.
func parseMaxP(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 6 {
		return nil, errFontFormat("size of maxp table")
	}
	t := newMaxPTable(tag, b, offset, size)
	n, _ := b.u16(4)
	t.NumGlyphs = int(n)
	if d, err := b.u16(30); err == nil {
		t.MaxComponentDepth = int(d)
	}
	return t, nil
}

// --- HHea table ------------------------------------------------------------

func parseHHea(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size == 0 {
		return nil, nil
	}
	if size < 36 {
		return nil, errFontFormat("hhea table incomplete")
	}
	t := newHHeaTable(tag, b, offset, size)
	n, _ := b.u16(34)
	t.NumberOfHMetrics = int(n)
	return t, nil
}

// --- HMtx table ------------------------------------------------------------

// The value of the numOfLongHorMetrics field is found in the 'hhea'
// (horizontal header) table. Fonts that lack an 'hhea' table must not have
// an 'hmtx' table.
func parseHMtx(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size == 0 {
		return nil, nil
	}
	t := newHMtxTable(tag, b, offset, size)
	return t, nil
}
