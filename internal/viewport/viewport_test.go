package viewport

import (
	"math"
	"math/rand"
	"testing"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertXY(t *testing.T, want, got geom.XY) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y")
}

func mustClamp(t *testing.T, cand geom.XY, scale float64, img *Size, container Size) geom.XY {
	t.Helper()
	got, ok := ClampTranslation(cand, scale, img, container)
	require.True(t, ok)
	return got
}

func TestToScene_ClickExample(t *testing.T) {
	got := ToScene(geom.XY{X: 250, Y: 170}, 2, geom.XY{X: 10, Y: 10})
	assertXY(t, geom.XY{X: 120, Y: 80}, got)
}

func TestTransform_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		p := geom.XY{X: r.Float64()*4000 - 2000, Y: r.Float64()*4000 - 2000}
		s := MinScale + r.Float64()*(MaxScale-MinScale)
		tr := geom.XY{X: r.Float64()*2000 - 1000, Y: r.Float64()*2000 - 1000}

		assertXY(t, p, ToScreen(ToScene(p, s, tr), s, tr))
		assertXY(t, p, ToScene(ToScreen(p, s, tr), s, tr))
	}
}

func TestClampTranslation_SmallImageIsCentered(t *testing.T) {
	img := &Size{W: 500, H: 300}
	got := mustClamp(t, geom.XY{X: -999, Y: 42}, 1, img, Size{W: 800, H: 600})
	assertXY(t, geom.XY{X: 150, Y: 150}, got)
}

func TestClampTranslation_LargeImageIsBounded(t *testing.T) {
	img := &Size{W: 2000, H: 1500}
	got := mustClamp(t, geom.XY{X: 50, Y: 50}, 1, img, Size{W: 800, H: 600})
	assertXY(t, geom.XY{X: 0, Y: 0}, got)

	got = mustClamp(t, geom.XY{X: -5000, Y: -5000}, 1, img, Size{W: 800, H: 600})
	assertXY(t, geom.XY{X: -1200, Y: -900}, got)

	got = mustClamp(t, geom.XY{X: -300, Y: -100}, 1, img, Size{W: 800, H: 600})
	assertXY(t, geom.XY{X: -300, Y: -100}, got)
}

func TestClampTranslation_MixedAxes(t *testing.T) {
	img := &Size{W: 2000, H: 200}
	got := mustClamp(t, geom.XY{X: 100, Y: -50}, 1, img, Size{W: 800, H: 600})
	assertXY(t, geom.XY{X: 0, Y: 200}, got)
}

func TestClampTranslation_NoImageIsNoop(t *testing.T) {
	in := geom.XY{X: 1234, Y: -987}
	assertXY(t, in, mustClamp(t, in, 3, nil, Size{W: 800, H: 600}))
}

func TestClampTranslation_Coverage(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	container := Size{W: 800, H: 600}
	for i := 0; i < 500; i++ {
		img := &Size{W: 100 + r.Float64()*3000, H: 100 + r.Float64()*3000}
		s := MinScale + r.Float64()*(MaxScale-MinScale)
		cand := geom.XY{X: r.Float64()*8000 - 4000, Y: r.Float64()*8000 - 4000}

		got := mustClamp(t, cand, s, img, container)

		for _, axis := range []struct{ t, scaled, c float64 }{
			{got.X, img.W * s, container.W},
			{got.Y, img.H * s, container.H},
		} {
			if axis.scaled <= axis.c {
				assert.InDelta(t, (axis.c-axis.scaled)/2, axis.t, 1e-9)
			} else {
				assert.LessOrEqual(t, axis.t, 0.0)
				assert.GreaterOrEqual(t, axis.t+axis.scaled, axis.c-1e-9)
			}
		}
	}
}

func TestClampScale(t *testing.T) {
	assert.Equal(t, MinScale, ClampScale(0.01))
	assert.Equal(t, MaxScale, ClampScale(50))
	assert.Equal(t, 1.5, ClampScale(1.5))
}

func TestViewport_SetImageFitsAndCenters(t *testing.T) {
	v := New(Size{W: 800, H: 600})
	v.SetImage(Size{W: 1600, H: 600})

	assert.InDelta(t, 0.5, v.Scale, 1e-9)
	assertXY(t, geom.XY{X: 0, Y: 150}, v.Translation)
}

func TestViewport_FitRespectsScaleBounds(t *testing.T) {
	v := New(Size{W: 800, H: 600})
	v.SetImage(Size{W: 10, H: 10})
	assert.Equal(t, MaxScale, v.Scale)
	assertXY(t, geom.XY{X: 375, Y: 275}, v.Translation)

	v.SetImage(Size{W: 100000, H: 100000})
	assert.Equal(t, MinScale, v.Scale)
}

func TestViewport_InvalidImageClears(t *testing.T) {
	v := New(Size{W: 800, H: 600})
	v.SetImage(Size{W: 0, H: 100})
	assert.Nil(t, v.Image)
}

func TestViewport_ZoomAtKeepsPointerAnchored(t *testing.T) {
	v := New(Size{W: 800, H: 600})
	pointer := geom.XY{X: 300, Y: 200}
	before := v.ToScene(pointer)

	v.ZoomAt(pointer, 2)

	assert.Equal(t, 2.0, v.Scale)
	assertXY(t, pointer, v.ToScreen(before))
}

func TestViewport_ResizeReclamps(t *testing.T) {
	v := New(Size{W: 800, H: 600})
	v.SetImage(Size{W: 2000, H: 1500})
	v.ZoomAt(geom.XY{X: 400, Y: 300}, 1)
	v.SetTranslation(geom.XY{X: -1200, Y: -900})

	v.Resize(Size{W: 1000, H: 800})

	assertXY(t, geom.XY{X: -1000, Y: -700}, v.Translation)
}

func TestClampTranslation_RejectsNonFinite(t *testing.T) {
	img := &Size{W: 2000, H: 1500}
	for _, cand := range []geom.XY{
		{X: math.NaN(), Y: 0},
		{X: 0, Y: math.Inf(-1)},
		{X: math.Inf(1), Y: math.NaN()},
	} {
		_, ok := ClampTranslation(cand, 1, img, Size{W: 800, H: 600})
		assert.False(t, ok)
		_, ok = ClampTranslation(cand, 1, nil, Size{W: 800, H: 600})
		assert.False(t, ok)
	}
}

func TestViewport_SetTranslationKeepsFiniteState(t *testing.T) {
	v := New(Size{W: 800, H: 600})
	v.SetImage(Size{W: 2000, H: 1500})
	v.ZoomAt(geom.XY{X: 400, Y: 300}, 2)
	before := v.Translation

	v.SetTranslation(geom.XY{X: math.NaN(), Y: -100})
	assertXY(t, before, v.Translation)

	v.Place(geom.XY{X: math.Inf(1), Y: 0}, geom.XY{X: 10, Y: 10}, 2)
	v.Place(geom.XY{}, geom.XY{X: 10, Y: 10}, math.NaN())
	assertXY(t, before, v.Translation)
	assert.Equal(t, 2.0, v.Scale)
}

func TestViewport_EmptyImageStopsClamping(t *testing.T) {
	v := New(Size{W: 800, H: 600})
	v.SetImage(Size{W: 2000, H: 1500})
	require.NotNil(t, v.Image)

	v.SetImage(Size{})
	assert.Nil(t, v.Image)
	v.SetTranslation(geom.XY{X: 50, Y: 50})
	assertXY(t, geom.XY{X: 50, Y: 50}, v.Translation)
}
