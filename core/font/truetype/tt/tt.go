package tt

// Font represents the internal structure of a TrueType font.
// It is used to locate the vector outline for a character and to read
// global font properties needed for rasterization.
//
// We only support fonts with TrueType outlines, i.e. fonts carrying a
// 'glyf' table. CFF/PostScript outlines and font collections are not
// supported.
type Font struct {
	Header *FontHeader
	tables map[Tag]Table
	CMap   *CMapTable // cmap table is mandatory
	head   *HeadTable
	maxp   *MaxPTable
	loca   *LocaTable
	glyf   binarySegm
	hmtx   *HMtxTable
	names  *NameTable
}

// FontHeader is a directory of the top-level tables in a font. The table
// directory begins at byte 0 of the font file.
//
// Fonts with TrueType outlines carry the value 0x00010000 for the FontType.
// The Apple specification additionally allows for 'true'.
type FontHeader struct {
	FontType   uint32
	TableCount uint16
}

// Table returns the font table for a given tag. If a table for a tag cannot
// be found in the font, nil is returned.
//
// The directory built in Parse is keyed by lowercased tags; tag itself is
// not lowercased here, so an uppercase tag finds no table. All tables this
// package interprets carry lowercase tags anyway:
//
//	cmap glyf head hhea hmtx loca maxp name
func (otf *Font) Table(tag Tag) Table {
	if t, ok := otf.tables[tag]; ok {
		return t
	}
	return nil
}

// TableTags returns a list of tags, one for each table contained in the font.
func (otf *Font) TableTags() []Tag {
	var tags = make([]Tag, 0, len(otf.tables))
	for tag := range otf.tables {
		tags = append(tags, tag)
	}
	return tags
}

// UnitsPerEm returns the number of font design units per EM square, as
// read from the 'head' table. Values 16 … 16384 are valid.
func (otf *Font) UnitsPerEm() uint16 {
	return otf.head.UnitsPerEm
}

// NumGlyphs returns the number of glyphs in the font, from table 'maxp'.
func (otf *Font) NumGlyphs() int {
	return otf.maxp.NumGlyphs
}

// Name returns a display name for the font, decoded from the 'name' table,
// or "" if the font carries none.
func (otf *Font) Name() string {
	if otf.names == nil {
		return ""
	}
	return otf.names.Name(nameIDFull)
}

// GlyphIndex is a glyph index in a font.
type GlyphIndex uint16

// --- Tag -------------------------------------------------------------------

// Tag is defined by the spec as:
// Array of four uint8s (length = 32 bits) used to identify a table.
type Tag uint32

// MakeTag creates a Tag from 4 bytes, e.g.,
//
//	MakeTag([]byte("cmap"))
//
// If b is shorter or longer, it will be silently extended or cut as
// appropriate.
func MakeTag(b []byte) Tag {
	if b == nil {
		b = []byte{0, 0, 0, 0}
	} else if len(b) > 4 {
		b = b[:4]
	} else if len(b) < 4 {
		b = append([]byte{0, 0, 0, 0}[:4-len(b)], b...)
	}
	return Tag(u32(b))
}

// T returns a Tag from a (4-letter) string.
// If t is shorter or longer, it will be silently extended or cut as
// appropriate.
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(u32([]byte(t)))
}

func (t Tag) String() string {
	bytes := []byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	}
	return string(bytes)
}

// lower returns the tag with its ASCII letters lowercased. The table
// directory is keyed by lowercased tags.
func (t Tag) lower() Tag {
	var l Tag
	for shift := 24; shift >= 0; shift -= 8 {
		c := byte(t >> shift & 0xff)
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		l = l<<8 | Tag(c)
	}
	return l
}

// --- Table -----------------------------------------------------------------

// Table represents one of the various TrueType font tables.
//
// Required tables for this package to function:
// 'cmap' (character to glyph mapping), 'head' (font header),
// 'loca' (index to location), 'glyf' (glyph data), 'maxp' (maximum profile).
//
// Interpreted when present: 'hhea'/'hmtx' (horizontal metrics) and
// 'name' (naming table). Any other table is retained as a generic table,
// i.e. no table information is dropped.
type Table interface {
	Extent() (uint32, uint32) // offset and byte size within the font's binary data
	Binary() []byte           // the bytes of this table; should be treated as read-only by clients
	Self() TableSelf          // reference to itself
}

func newTable(tag Tag, b binarySegm, offset, size uint32) *genericTable {
	t := &genericTable{tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	},
	}
	t.self = t
	return t
}

type genericTable struct {
	tableBase
}

// tableBase is a common parent for all kinds of TrueType tables.
type tableBase struct {
	data   binarySegm // a table is a slice of font data
	name   Tag        // 4-byte name as an integer
	offset uint32     // from offset
	length uint32     // to offset + length
	self   interface{}
}

// Extent returns offset and byte size of this table within the font.
func (tb *tableBase) Extent() (uint32, uint32) {
	return tb.offset, tb.length
}

// Binary returns the bytes of this table. Should be treated as read-only by
// clients, as it is a view into the original data.
func (tb *tableBase) Binary() []byte {
	return tb.data
}

func (tb *tableBase) Self() TableSelf {
	return TableSelf{tableBase: tb}
}

// TableSelf is a reference to a table. Its primary use is for converting
// a generic table to a concrete table flavour, and for reproducing the
// name tag of a table.
type TableSelf struct {
	tableBase *tableBase
}

// NameTag returns the 4-letter name of a table.
func (tself TableSelf) NameTag() Tag {
	return tself.tableBase.name
}

func safeSelf(tself TableSelf) interface{} {
	if tself.tableBase == nil || tself.tableBase.self == nil {
		return TableSelf{}
	}
	return tself.tableBase.self
}

// AsCMap returns this table as a cmap table, or nil.
func (tself TableSelf) AsCMap() *CMapTable {
	if k, ok := safeSelf(tself).(*CMapTable); ok {
		return k
	}
	return nil
}

// AsHead returns this table as a head table, or nil.
func (tself TableSelf) AsHead() *HeadTable {
	if k, ok := safeSelf(tself).(*HeadTable); ok {
		return k
	}
	return nil
}

// AsLoca returns this table as a loca table, or nil.
func (tself TableSelf) AsLoca() *LocaTable {
	if k, ok := safeSelf(tself).(*LocaTable); ok {
		return k
	}
	return nil
}

// AsMaxP returns this table as a maxp table, or nil.
func (tself TableSelf) AsMaxP() *MaxPTable {
	if k, ok := safeSelf(tself).(*MaxPTable); ok {
		return k
	}
	return nil
}

// AsHHea returns this table as a hhea table, or nil.
func (tself TableSelf) AsHHea() *HHeaTable {
	if k, ok := safeSelf(tself).(*HHeaTable); ok {
		return k
	}
	return nil
}

// AsHMtx returns this table as a hmtx table, or nil.
func (tself TableSelf) AsHMtx() *HMtxTable {
	if k, ok := safeSelf(tself).(*HMtxTable); ok {
		return k
	}
	return nil
}

// AsName returns this table as a name table, or nil.
func (tself TableSelf) AsName() *NameTable {
	if k, ok := safeSelf(tself).(*NameTable); ok {
		return k
	}
	return nil
}

// --- Concrete table implementations ----------------------------------------

// HeadTable gives global information about the font. Only the fields
// needed for glyph loading and rasterization are made public.
type HeadTable struct {
	tableBase
	Flags            uint16
	UnitsPerEm       uint16 // values 16 … 16384 are valid
	IndexToLocFormat uint16 // needed to interpret the loca table: 0 short, 1 long
}

func newHeadTable(tag Tag, b binarySegm, offset, size uint32) *HeadTable {
	t := &HeadTable{}
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

// LocaTable stores the offsets to the locations of the glyphs in the font,
// relative to the beginning of the glyph data table.
// By definition, index zero points to the "missing character", which is the
// character that appears if a character is not found in the font.
type LocaTable struct {
	tableBase
	inx2loc func(t *LocaTable, gid GlyphIndex) (uint32, error) // glyph location for glyph gid
	locCnt  int                                                // number of locations
}

// IndexToLocation returns the byte offset of glyph gid's data block within
// the 'glyf' table. The loca table holds numGlyphs+1 entries; entry gid+1
// bounds the data of glyph gid.
func (t *LocaTable) IndexToLocation(gid GlyphIndex) (uint32, error) {
	return t.inx2loc(t, gid)
}

func newLocaTable(tag Tag, b binarySegm, offset, size uint32) *LocaTable {
	t := &LocaTable{}
	base := tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	}
	t.tableBase = base
	t.inx2loc = shortLocaVersion // may get changed during font consistency check
	t.locCnt = 0                 // has to be set during consistency check
	t.self = t
	return t
}

// Short offsets are stored as half the real byte offset.
func shortLocaVersion(t *LocaTable, gid GlyphIndex) (uint32, error) {
	if int(gid) >= t.locCnt {
		return 0, errFontFormat("glyph index exceeds loca table")
	}
	loc, err := t.data.u16(int(gid) * 2)
	if err != nil {
		return 0, errFontFormat("loca table bounds")
	}
	return uint32(loc) * 2, nil
}

func longLocaVersion(t *LocaTable, gid GlyphIndex) (uint32, error) {
	if int(gid) >= t.locCnt {
		return 0, errFontFormat("glyph index exceeds loca table")
	}
	loc, err := t.data.u32(int(gid) * 4)
	if err != nil {
		return 0, errFontFormat("loca table bounds")
	}
	return loc, nil
}

// MaxPTable establishes the memory requirements for this font.
// The 'maxp' table contains a count for the number of glyphs in the font
// and, for version 1.0 tables, the maximum depth of compound glyph nesting.
type MaxPTable struct {
	tableBase
	NumGlyphs         int
	MaxComponentDepth int
}

func newMaxPTable(tag Tag, b binarySegm, offset, size uint32) *MaxPTable {
	t := &MaxPTable{}
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

// HHeaTable contains information for horizontal layout.
type HHeaTable struct {
	tableBase
	NumberOfHMetrics int
}

func newHHeaTable(tag Tag, b binarySegm, offset, size uint32) *HHeaTable {
	t := &HHeaTable{}
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

// HMtxTable contains metric information for the horizontal layout of each
// of the glyphs in the font. Each element in the contained hMetrics-array
// has two parts: the advance width and left side bearing. The value
// NumberOfHMetrics is taken from the 'hhea' table and copied into the
// HMtxTable for easier access. Glyphs beyond that count share the advance
// of the last entry; an array of bare left side bearings follows.
type HMtxTable struct {
	tableBase
	NumberOfHMetrics int
}

func newHMtxTable(tag Tag, b binarySegm, offset, size uint32) *HMtxTable {
	t := &HMtxTable{}
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

// Metrics returns the advance width and left side bearing of a glyph.
func (t *HMtxTable) Metrics(g GlyphIndex) (uint16, int16) {
	if int(g) < t.NumberOfHMetrics {
		a, _ := t.data.u16(int(g) * 4)
		lsb, _ := t.data.u16(int(g)*4 + 2)
		return a, int16(lsb)
	}
	diff := int(g) - t.NumberOfHMetrics
	a, _ := t.data.u16((t.NumberOfHMetrics - 1) * 4)
	lsb, _ := t.data.u16(t.NumberOfHMetrics*4 + diff*2)
	return a, int16(lsb)
}

// GlyphMetrics returns the horizontal metrics of glyph g in design units,
// or zeros if the font carries no metrics tables.
func (otf *Font) GlyphMetrics(g GlyphIndex) (advance uint16, lsb int16) {
	if otf.hmtx == nil {
		return 0, 0
	}
	return otf.hmtx.Metrics(g)
}
