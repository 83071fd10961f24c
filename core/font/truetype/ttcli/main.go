package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/chzyer/readline"
	"github.com/npillmayer/pica/core"
	"github.com/npillmayer/pica/core/font"
	"github.com/npillmayer/pica/core/font/truetype"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
	"golang.org/x/image/bmp"
)

// tracer traces with key 'pica.fonts'
func tracer() tracing.Trace {
	return tracing.Select("pica.fonts")
}

// Profile is a render profile, loadable from a TOML file:
//
//	point-size = 18.0
//	dpi        = 144.0
//	quality    = "high"
type Profile struct {
	PointSize float64 `toml:"point-size"`
	DPI       float64 `toml:"dpi"`
	Quality   string  `toml:"quality"`
}

func (p Profile) options() truetype.Options {
	opts := truetype.Options{
		PointSize: p.PointSize,
		DPI:       p.DPI,
	}
	if opts.PointSize <= 0 {
		opts.PointSize = 12.0
	}
	if opts.DPI <= 0 {
		opts.DPI = 96.0
	}
	switch strings.ToLower(p.Quality) {
	case "restricted":
		opts.Quality = truetype.QualityRestricted
	case "low":
		opts.Quality = truetype.QualityLow
	case "high":
		opts.Quality = truetype.QualityHigh
	default:
		opts.Quality = truetype.QualityMedium
	}
	return opts
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":   "go",
		"trace.pica.fonts":  "Info",
		"trace.pica.raster": "Info",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	fontname := flag.String("font", "", "Font to load (file path or system font name)")
	profilepath := flag.String("profile", "", "TOML render profile to load")
	flag.Parse()
	switch strings.ToLower(*tlevel) {
	case "debug":
		tracer().SetTraceLevel(tracing.LevelDebug)
	case "error":
		tracer().SetTraceLevel(tracing.LevelError)
	default:
		tracer().SetTraceLevel(tracing.LevelInfo)
	}
	pterm.Info.Println("Welcome to the glyph rendering CLI") // colored welcome message
	//
	profile := Profile{}
	if *profilepath != "" {
		if _, err := toml.DecodeFile(*profilepath, &profile); err != nil {
			tracer().Errorf("cannot read render profile: %v", err)
			os.Exit(2)
		}
		tracer().Infof("render profile %s loaded", *profilepath)
	}
	//
	// set up REPL
	repl, err := readline.New("tt > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := &Intp{repl: repl, opts: profile.options()}
	//
	// load font to use
	if err := intp.loadFont(*fontname); err != nil { // font name provided by flag
		core.UserError(err)
		os.Exit(4)
	}
	//
	// start receiving commands
	pterm.Info.Println("Quit with <ctrl>D")
	intp.REPL()
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Intp is our interpreter object
type Intp struct {
	rend *truetype.Renderer
	repl *readline.Instance
	opts truetype.Options
}

func (intp *Intp) loadFont(fontname string) error {
	var sf *font.ScalableFont
	var err error
	switch {
	case fontname == "":
		pterm.Info.Println("no font given, using fallback font")
		sf = font.FallbackFont()
	case fileExists(fontname):
		sf, err = font.LoadTrueTypeFont(fontname)
	default:
		var path string
		if path, err = font.Locate(fontname); err == nil {
			sf, err = font.LoadTrueTypeFont(path)
		}
	}
	if err != nil {
		return err
	}
	intp.rend, err = truetype.Open(sf.Binary, intp.opts)
	if err != nil {
		return err
	}
	name := intp.rend.Font().Name()
	if name == "" {
		name = sf.Fontname
	}
	pterm.Printfln("font %s with %d glyphs", name, intp.rend.Font().NumGlyphs())
	return nil
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		quit, err := intp.execute(strings.Fields(line))
		if err != nil {
			pterm.Error.Println(core.UserMessage(err))
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

func (intp *Intp) execute(cmd []string) (quit bool, err error) {
	switch cmd[0] {
	case "quit":
		return true, nil
	case "info":
		otf := intp.rend.Font()
		pterm.Printfln("font      %s", otf.Name())
		pterm.Printfln("glyphs    %d", otf.NumGlyphs())
		pterm.Printfln("units/em  %d", otf.UnitsPerEm())
		pterm.Printfln("options   %.1fpt at %.0fdpi", intp.opts.PointSize, intp.opts.DPI)
	case "tables":
		tags := intp.rend.Font().TableTags()
		names := make([]string, len(tags))
		for i, tag := range tags {
			names[i] = tag.String()
		}
		pterm.Printfln("font tables: %v", names)
	case "map":
		c, err := argRune(cmd)
		if err != nil {
			return false, err
		}
		gid, err := intp.rend.Font().GlyphIndex(c)
		if err != nil {
			return false, err
		}
		adv, lsb, _ := intp.rend.GlyphMetrics(c)
		pterm.Printfln("%#U maps to glyph %d, advance %.1fpx, lsb %.1fpx", c, gid, adv, lsb)
	case "size":
		if len(cmd) < 2 {
			return false, core.Error(core.EINVALID, "usage: size <points>")
		}
		pts, err := strconv.ParseFloat(cmd[1], 64)
		if err != nil || pts <= 0 {
			return false, core.Error(core.EINVALID, "not a point size: %s", cmd[1])
		}
		intp.opts.PointSize = pts
		intp.rend = truetype.NewRenderer(intp.rend.Font(), intp.opts)
		pterm.Printfln("rendering at %.1fpt", pts)
	case "render":
		c, err := argRune(cmd)
		if err != nil {
			return false, err
		}
		file := fmt.Sprintf("glyph-%04x.bmp", c)
		if len(cmd) > 2 {
			file = cmd[2]
		}
		return false, intp.render(c, file)
	default:
		pterm.Println("commands: info | tables | map <char> | render <char> [file] | size <pts> | quit")
	}
	return false, nil
}

func argRune(cmd []string) (rune, error) {
	if len(cmd) < 2 || len(cmd[1]) == 0 {
		return 0, core.Error(core.EINVALID, "command wants a character argument")
	}
	return []rune(cmd[1])[0], nil
}

// render rasterizes the glyph for c and writes the bitmap to file. The
// file extension selects the image format, BMP by default.
func (intp *Intp) render(c rune, file string) error {
	bitmap, err := intp.rend.Render(c, 0)
	if err != nil {
		return err
	}
	if bitmap.IsEmpty() {
		pterm.Printfln("%#U has no outline, nothing to write", c)
		return nil
	}
	out, err := os.Create(file)
	if err != nil {
		return core.WrapError(err, core.EINVALID, "cannot create %s", file)
	}
	defer out.Close()
	img := bitmap.GrayImage()
	if filepath.Ext(file) == ".png" {
		err = png.Encode(out, img)
	} else {
		err = bmp.Encode(out, img)
	}
	if err != nil {
		return core.WrapError(err, core.EINVALID, "cannot encode %s", file)
	}
	pterm.Printfln("%#U rendered into %d x %d pixels, written to %s",
		c, bitmap.Width, bitmap.Height, file)
	return nil
}
