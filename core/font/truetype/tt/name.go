package tt

import (
	"golang.org/x/text/encoding/unicode"
)

// Name IDs of interest, per the naming table specification.
const (
	nameIDFamily    uint16 = 1
	nameIDSubFamily uint16 = 2
	nameIDFull      uint16 = 4
)

// NameTable holds the font's naming table. Only Unicode-encoded name
// records (platform 0/3 with a UTF-16 encoding) are considered.
type NameTable struct {
	tableBase
	strbuf   binarySegm // string storage area of the table
	nameRecs binarySegm // 12-byte name records
	count    int
}

func newNameTable(tag Tag, b binarySegm, offset, size uint32) *NameTable {
	t := &NameTable{}
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

// The naming table header is three words: format, count, and the offset of
// the string storage area. Name records of 12 bytes each follow.
func parseName(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if len(b) < 6 {
		return nil, errFontFormat("name section corrupt")
	}
	t := newNameTable(tag, b, offset, size)
	n, _ := b.u16(2)
	strOffset, _ := b.u16(4)
	if int(strOffset) > len(b) || len(b) < 6+12*int(n) {
		return nil, errFontFormat("name section corrupt")
	}
	t.strbuf = b[strOffset:]
	t.nameRecs = b[6 : 6+12*int(n)]
	t.count = int(n)
	tracer().Debugf("name table has %d strings, starting at %d", n, strOffset)
	return t, nil
}

// Name returns the (first matching) name string for a name ID, or "" if the
// font has none. Only platform/encoding combinations carrying UTF-16BE
// strings are inspected.
func (t *NameTable) Name(nameID uint16) string {
	for i := 0; i < t.count; i++ {
		rec := t.nameRecs[i*12 : i*12+12]
		pltf, enc := u16(rec), u16(rec[2:])
		if !((pltf == 0 && enc == 3) || (pltf == 3 && enc == 1)) {
			continue
		}
		if u16(rec[6:]) != nameID {
			continue
		}
		strlen, stroff := int(u16(rec[8:])), int(u16(rec[10:]))
		if stroff+strlen > len(t.strbuf) {
			continue
		}
		if s, err := decodeUtf16(t.strbuf[stroff : stroff+strlen]); err == nil {
			return s
		}
	}
	return ""
}

func decodeUtf16(str []byte) (string, error) {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	decoder := enc.NewDecoder()
	s, err := decoder.Bytes(str)
	if err != nil {
		return "", errFontFormat("name table UTF-16 decoding")
	}
	return string(s), nil
}
