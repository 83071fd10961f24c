package tt

// Helpers to assemble synthetic in-memory fonts for testing. The builders
// write the exact binary layout the parser consumes: big-endian fields,
// 16-byte table records, delta-compressed glyph coordinates.

type bytesWriter struct {
	b []byte
}

func (w *bytesWriter) u8(v uint8) *bytesWriter {
	w.b = append(w.b, v)
	return w
}

func (w *bytesWriter) u16(v uint16) *bytesWriter {
	w.b = append(w.b, byte(v>>8), byte(v))
	return w
}

func (w *bytesWriter) s16(v int16) *bytesWriter {
	return w.u16(uint16(v))
}

func (w *bytesWriter) u32(v uint32) *bytesWriter {
	w.b = append(w.b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	return w
}

func (w *bytesWriter) tag(t string) *bytesWriter {
	w.b = append(w.b, []byte((t + "    ")[:4])...)
	return w
}

func (w *bytesWriter) pad4() *bytesWriter {
	for len(w.b)%4 != 0 {
		w.b = append(w.b, 0)
	}
	return w
}

type fontTable struct {
	tag  string
	data []byte
}

// buildSfnt assembles a font container from table images. Offsets are
// 4-byte aligned, as in real fonts.
func buildSfnt(version uint32, tables []fontTable) []byte {
	w := &bytesWriter{}
	w.u32(version)
	w.u16(uint16(len(tables)))
	w.u16(0).u16(0).u16(0) // searchRange, entrySelector, rangeShift
	offset := 12 + 16*len(tables)
	offset = (offset + 3) &^ 3
	for _, tbl := range tables {
		w.tag(tbl.tag)
		w.u32(0) // checksum, unchecked
		w.u32(uint32(offset))
		w.u32(uint32(len(tbl.data)))
		offset += (len(tbl.data) + 3) &^ 3
	}
	w.pad4()
	for _, tbl := range tables {
		w.b = append(w.b, tbl.data...)
		w.pad4()
	}
	return w.b
}

func headTable(upem uint16, indexToLocFormat uint16) []byte {
	w := &bytesWriter{}
	w.b = make([]byte, 54)
	w.b[18], w.b[19] = byte(upem>>8), byte(upem)
	w.b[50], w.b[51] = byte(indexToLocFormat>>8), byte(indexToLocFormat)
	return w.b
}

func maxpTable(numGlyphs uint16, maxComponentDepth uint16) []byte {
	w := &bytesWriter{}
	w.b = make([]byte, 32)
	w.b[4], w.b[5] = byte(numGlyphs>>8), byte(numGlyphs)
	w.b[30], w.b[31] = byte(maxComponentDepth>>8), byte(maxComponentDepth)
	return w.b
}

// cmapFormat0 builds a complete cmap table with a single format 0
// sub-table holding the given byte-to-glyph mapping.
func cmapFormat0(mapping map[byte]byte) []byte {
	w := &bytesWriter{}
	w.u16(0).u16(1)               // version, one sub-table
	w.u16(1).u16(0).u32(12)       // platform, encoding, offset from cmap base
	w.u16(0).u16(262).u16(0) // format 0, length, language
	var glyphIds [256]byte
	for c, gid := range mapping {
		glyphIds[c] = gid
	}
	w.b = append(w.b, glyphIds[:]...)
	return w.b
}

type cmapSegment struct {
	start, end, delta, rangeOffset uint16
}

// cmapFormat4 builds a complete cmap table with a single format 4
// sub-table. The caller provides the segments (excluding the terminating
// 0xffff segment, which is appended) and the trailing glyph-id array.
func cmapFormat4(segments []cmapSegment, glyphIds []uint16) []byte {
	segments = append(segments, cmapSegment{start: 0xffff, end: 0xffff, delta: 1})
	segCount := len(segments)
	sub := &bytesWriter{}
	length := 14 + 8*segCount + 2 + 2*len(glyphIds)
	sub.u16(4).u16(uint16(length)).u16(0) // format, length, language
	sub.u16(uint16(segCount * 2))         // segCountX2
	sub.u16(0).u16(0).u16(0)              // searchRange, entrySelector, rangeShift
	for _, seg := range segments {
		sub.u16(seg.end)
	}
	sub.u16(0) // reservedPad
	for _, seg := range segments {
		sub.u16(seg.start)
	}
	for _, seg := range segments {
		sub.u16(seg.delta)
	}
	for _, seg := range segments {
		sub.u16(seg.rangeOffset)
	}
	for _, gid := range glyphIds {
		sub.u16(gid)
	}
	w := &bytesWriter{}
	w.u16(0).u16(1)         // version, one sub-table
	w.u16(3).u16(1).u32(12) // platform, encoding, offset from cmap base
	w.b = append(w.b, sub.b...)
	return w.b
}

// locaShort encodes glyph data offsets in the short format (half the byte
// offset, 16 bits).
func locaShort(offsets []uint32) []byte {
	w := &bytesWriter{}
	for _, off := range offsets {
		w.u16(uint16(off / 2))
	}
	return w.b
}

func locaLong(offsets []uint32) []byte {
	w := &bytesWriter{}
	for _, off := range offsets {
		w.u32(off)
	}
	return w.b
}

type gpoint struct {
	x, y int16
	on   bool
}

// simpleGlyph encodes a simple glyph record: bounding box, contour end
// indices, an empty instruction block, uncompressed flags, and coordinates
// in the long (16-bit delta) form.
func simpleGlyph(bbox [4]int16, contours [][]gpoint) []byte {
	w := &bytesWriter{}
	w.s16(int16(len(contours)))
	for _, v := range bbox {
		w.s16(v)
	}
	end := -1
	for _, c := range contours {
		end += len(c)
		w.u16(uint16(end))
	}
	w.u16(0) // no hinting instructions
	for _, c := range contours {
		for _, p := range c {
			flag := uint8(0)
			if p.on {
				flag = flagOnCurve
			}
			w.u8(flag)
		}
	}
	prev := int16(0)
	for _, c := range contours {
		for _, p := range c {
			w.s16(p.x - prev)
			prev = p.x
		}
	}
	prev = 0
	for _, c := range contours {
		for _, p := range c {
			w.s16(p.y - prev)
			prev = p.y
		}
	}
	return w.b
}

type component struct {
	glyph  uint16
	flags  uint16
	dx, dy int16
	scale  []uint16 // zero, one, two or four F2DOT14 values, per flags
}

// compoundGlyph encodes a compound glyph record from component entries.
// The more-components flag and the argument flags (16-bit x/y offsets) are
// managed here; callers set the scale flags.
func compoundGlyph(bbox [4]int16, comps []component) []byte {
	w := &bytesWriter{}
	w.s16(-1)
	for _, v := range bbox {
		w.s16(v)
	}
	for i, comp := range comps {
		flags := comp.flags | cfArg1And2AreWords | cfArgsAreXYValues
		if i < len(comps)-1 {
			flags |= cfMoreComponents
		}
		w.u16(flags)
		w.u16(comp.glyph)
		w.s16(comp.dx)
		w.s16(comp.dy)
		for _, s := range comp.scale {
			w.u16(s)
		}
	}
	return w.b
}

// buildGlyphFont assembles a complete minimal font: head, maxp, cmap,
// loca (short), and a glyf table concatenated from the given glyph
// records. An empty glyph record ([]byte nil) produces an empty loca span.
func buildGlyphFont(upem uint16, cmap []byte, glyphs [][]byte) []byte {
	glyf := &bytesWriter{}
	offsets := make([]uint32, 0, len(glyphs)+1)
	for _, g := range glyphs {
		offsets = append(offsets, uint32(len(glyf.b)))
		glyf.b = append(glyf.b, g...)
		glyf.pad4()
	}
	offsets = append(offsets, uint32(len(glyf.b)))
	return buildSfnt(0x00010000, []fontTable{
		{tag: "cmap", data: cmap},
		{tag: "glyf", data: glyf.b},
		{tag: "head", data: headTable(upem, 0)},
		{tag: "loca", data: locaShort(offsets)},
		{tag: "maxp", data: maxpTable(uint16(len(glyphs)), 4)},
	})
}
