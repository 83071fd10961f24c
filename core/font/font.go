/*
Package font is for font file handling.

There is a certain confusion in the nomenclature of typesetting. We will
stick to the following definitions:

* A "typeface" is a family of fonts. An example is "Helvetica".

* A "scalable font" is a font, i.e. a variant of a typeface with a
certain weight, slant, etc. An example is "Helvetica regular".

This package deals with locating scalable fonts and getting their binary
data into memory. Interpreting that data is the job of sibling packages.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package font

import (
	"os"
	"strings"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/npillmayer/pica/core"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/gofont/goregular"
)

// tracer writes to trace with key 'pica.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("pica.fonts")
}

// ScalableFont is a font with its binary data loaded into memory.
// The data is owned by the ScalableFont and must be treated as immutable by
// clients; parsers hand out views into it.
type ScalableFont struct {
	Fontname string
	Filepath string // file path, or "internal" for packaged fonts
	Binary   []byte // raw font data
}

// LoadTrueTypeFont reads a font file into memory. The font is not parsed,
// just loaded.
func LoadTrueTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "font not found: %s", fontfile)
	}
	f := &ScalableFont{
		Fontname: basename(fontfile),
		Filepath: fontfile,
		Binary:   bytez,
	}
	tracer().Infof("loaded font %s (%d bytes)", f.Fontname, len(f.Binary))
	return f, nil
}

// Locate searches the system's font directories for a font matching name,
// using the go-findfont heuristics. name may be a family name ("Arial") or
// a file name ("arial.ttf").
func Locate(name string) (path string, err error) {
	path, err = findfont.Find(name)
	if err != nil {
		return "", core.WrapError(err, core.EMISSING, "font not found: %s", name)
	}
	tracer().Debugf("font %s located at %s", name, path)
	return path, nil
}

func basename(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.LastIndexByte(path, '.'); i > 0 {
		path = path[:i]
	}
	return path
}

// --- Fallback font ---------------------------------------------------------

// FallbackFont returns a font to be used if everything else failes. It is
// always present. Currently we use Go Sans.
func FallbackFont() *ScalableFont {
	fallbackFontLoading.Do(func() {
		fallbackFont = &ScalableFont{
			Fontname: "Go Sans",
			Filepath: "internal",
			Binary:   goregular.TTF,
		}
	})
	return fallbackFont
}

var fallbackFontLoading sync.Once

// fallbackFont is a font that is used if everything else failes.
// Currently we use Go Sans.
var fallbackFont *ScalableFont
