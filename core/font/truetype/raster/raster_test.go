package raster

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestHorizontalEdgesAreDropped(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pica.raster")
	defer teardown()
	//
	et := NewEdgeTable(1.0)
	et.AddEdge(Point{0, 5}, Point{100, 5})
	if et.Len() != 0 {
		t.Errorf("expected horizontal edge to be dropped, table has %d edges", et.Len())
	}
	et.AddEdge(Point{0, 0}, Point{100, 5})
	if et.Len() != 1 {
		t.Errorf("expected slanted edge to be kept, table has %d edges", et.Len())
	}
}

func TestEdgeClassification(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pica.raster")
	defer teardown()
	//
	et := NewEdgeTable(1.0)
	et.AddEdge(Point{10, 80}, Point{20, 20}) // apex given first
	e := et.edges[0]
	if e.apex.Y != 80 || e.base.Y != 20 {
		t.Errorf("edge not classified into apex/base: %v", e)
	}
	if e.vertical {
		t.Error("slanted edge classified as vertical")
	}
	// slope and intercept describe the supporting line
	if got := e.m*10 + e.c; got != 80 {
		t.Errorf("supporting line misses apex: %v", got)
	}
	et.AddEdge(Point{5, 0}, Point{5, 50})
	if !et.edges[1].vertical {
		t.Error("vertical edge not flagged")
	}
}

// distanceToCurve returns the minimum distance of p to the quadratic arc
// defined by p0, ctrl, p1, sampled densely.
func distanceToCurve(p, p0, ctrl, p1 Point) float64 {
	best := math.Inf(+1)
	for i := 0; i <= 1024; i++ {
		u := float64(i) / 1024.0
		v := 1.0 - u
		x := v*v*p0.X + 2*u*v*ctrl.X + u*u*p1.X
		y := v*v*p0.Y + 2*u*v*ctrl.Y + u*u*p1.Y
		d := math.Hypot(p.X-x, p.Y-y)
		if d < best {
			best = d
		}
	}
	return best
}

func TestBezierFlatteningConvergence(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pica.raster")
	defer teardown()
	//
	p0, ctrl, p1 := Point{0, 0}, Point{100, 200}, Point{200, 0}
	et := NewEdgeTable(1.0)
	et.AddBezier(p0, ctrl, p1)
	if et.Len() < 4 {
		t.Errorf("expected a strongly curved arc to subdivide, got %d edges", et.Len())
	}
	// every chord endpoint must lie on the original curve
	for _, e := range et.edges {
		for _, p := range []Point{e.apex, e.base} {
			if d := distanceToCurve(p, p0, ctrl, p1); d > 0.5 {
				t.Errorf("chord endpoint (%.2f,%.2f) misses the curve by %.2f", p.X, p.Y, d)
			}
		}
	}
}

func TestBezierFlatNeedsNoSubdivision(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pica.raster")
	defer teardown()
	//
	// control point within tolerance of the chord: a single edge suffices
	et := NewEdgeTable(1.0)
	et.AddBezier(Point{0, 0}, Point{50, 100.4}, Point{100, 200})
	if et.Len() != 1 {
		t.Errorf("expected a near-flat arc to emit one chord, got %d edges", et.Len())
	}
}

func TestBezierDegenerateArc(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pica.raster")
	defer teardown()
	//
	// coinciding endpoints must not loop forever
	et := NewEdgeTable(1.0)
	et.AddBezier(Point{10, 10}, Point{50, 80}, Point{10, 10})
	_ = et.Len() // termination is the property under test
}

func TestTriangleRaster(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pica.raster")
	defer teardown()
	//
	// a triangle with full-width base, already in raster space
	et := NewEdgeTable(1.0)
	outline := Outline{{
		{X: 0, Y: 0, On: true},
		{X: 1152, Y: 0, On: true},
		{X: 576, Y: 1152, On: true},
	}}
	et.AddOutline(outline)
	if et.Len() != 2 {
		t.Errorf("expected 2 edges (base is horizontal), got %d", et.Len())
	}
	bitmap, err := et.Render(1152, 1152)
	if err != nil {
		t.Fatal(err)
	}
	if bitmap.Pixel(576, 576) != Ink {
		t.Error("expected the triangle's center pixel to be filled")
	}
	if bitmap.Pixel(0, 1151) != Background || bitmap.Pixel(1151, 1151) != Background {
		t.Error("expected the upper bitmap corners to be empty")
	}
	if bitmap.Pixel(40, 200) != Background || bitmap.Pixel(1111, 200) != Background {
		t.Error("expected pixels outside the flanks to be empty")
	}
}

func TestRectangleRasterCrossings(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pica.raster")
	defer teardown()
	//
	et := NewEdgeTable(1.0)
	et.AddOutline(Outline{{
		{X: 100, Y: 0, On: true},
		{X: 100, Y: 500, On: true},
		{X: 200, Y: 500, On: true},
		{X: 200, Y: 0, On: true},
	}})
	// two vertical edges survive, the horizontals drop out
	if et.Len() != 2 {
		t.Fatalf("expected 2 vertical edges, got %d", et.Len())
	}
	bitmap, err := et.Render(250, 500)
	if err != nil {
		t.Fatal(err)
	}
	for _, y := range []int{0, 250, 499} {
		if bitmap.Pixel(150, y) != Ink {
			t.Errorf("expected rectangle interior filled at row %d", y)
		}
		if bitmap.Pixel(99, y) != Background || bitmap.Pixel(201, y) != Background {
			t.Errorf("expected pixels beside the rectangle empty at row %d", y)
		}
	}
}

func TestSmallSquareBitmap(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pica.raster")
	defer teardown()
	//
	et := NewEdgeTable(1.0)
	et.AddOutline(Outline{{
		{X: 0, Y: 0, On: true},
		{X: 4, Y: 0, On: true},
		{X: 4, Y: 4, On: true},
		{X: 0, Y: 4, On: true},
	}})
	bitmap, err := et.Render(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff,
	}
	if diff := cmp.Diff(want, bitmap.Pix); diff != "" {
		t.Errorf("bitmap mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyBitmapRender(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pica.raster")
	defer teardown()
	//
	et := NewEdgeTable(1.0)
	bitmap, err := et.Render(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !bitmap.IsEmpty() {
		t.Error("expected a zero-extent bitmap")
	}
}

func TestBitmapAllocationCap(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pica.raster")
	defer teardown()
	//
	if _, err := NewBitmap(1<<16, 1<<16); err == nil {
		t.Error("expected oversized bitmap allocation to be rejected")
	}
}

func TestDeviceScale(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pica.raster")
	defer teardown()
	//
	dm := Default()
	if dm.PointSize != 12.0 || dm.DPI != 96.0 {
		t.Fatalf("unexpected default device metrics: %v", dm)
	}
	if s := dm.Scale(1000); s != 1.152 {
		t.Errorf("expected scale 1.152 for 1000 upem, got %v", s)
	}
}

func TestGrayImageFlipsRows(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pica.raster")
	defer teardown()
	//
	bitmap, err := NewBitmap(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	bitmap.store(0, 0, Ink) // bottom-left in raster space
	img := bitmap.GrayImage()
	if img.GrayAt(0, 1).Y != 0xff {
		t.Error("expected bottom-left ink to appear in the image's bottom row")
	}
	if img.GrayAt(0, 0).Y != 0 {
		t.Error("expected the image's top-left pixel to be empty")
	}
}
