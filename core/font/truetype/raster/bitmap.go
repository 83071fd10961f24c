package raster

import (
	"image"

	"github.com/npillmayer/pica/core"
)

// Pixel values of a coverage bitmap.
const (
	Background byte = 0x00
	Ink        byte = 0xff
)

// maxBitmapBytes caps bitmap allocations. Glyph bitmaps are small; a
// request beyond this limit indicates corrupt extents.
const maxBitmapBytes = 1 << 26

// Bitmap is a row-major 8-bit coverage bitmap. Row 0 is the bottom row of
// the glyph (raster space grows upward, like design space). Each pixel is
// either Background or Ink.
type Bitmap struct {
	Width, Height int
	Pix           []byte
}

// NewBitmap allocates a zero-filled bitmap. A bitmap with zero area is
// legal and used for glyphs without an outline.
func NewBitmap(width, height int) (*Bitmap, error) {
	if width < 0 || height < 0 {
		return nil, core.Error(core.EINVALID, "bitmap extent %d x %d negative", width, height)
	}
	if int64(width)*int64(height) > maxBitmapBytes {
		return nil, core.Error(core.EMEMORY, "bitmap extent %d x %d exceeds allocation cap",
			width, height)
	}
	return &Bitmap{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height),
	}, nil
}

// IsEmpty is a predicate: has this bitmap zero area?
func (bm *Bitmap) IsEmpty() bool {
	return bm.Width == 0 || bm.Height == 0
}

// Pixel returns the coverage value at (x, y). Out-of-range coordinates
// read as Background.
func (bm *Bitmap) Pixel(x, y int) byte {
	if x < 0 || x >= bm.Width || y < 0 || y >= bm.Height {
		return Background
	}
	return bm.Pix[y*bm.Width+x]
}

func (bm *Bitmap) store(x, y int, v byte) {
	bm.Pix[y*bm.Width+x] = v
}

// GrayImage converts the bitmap to an image.Gray, flipping rows so that
// the glyph appears upright in the image's top-down coordinate system.
// The pixel data is copied.
func (bm *Bitmap) GrayImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, bm.Width, bm.Height))
	for y := 0; y < bm.Height; y++ {
		row := bm.Pix[y*bm.Width : (y+1)*bm.Width]
		copy(img.Pix[(bm.Height-1-y)*img.Stride:], row)
	}
	return img
}
