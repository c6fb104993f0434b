package handle

import (
	"math"
	"testing"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/sitesurvey/camplan/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCamera(x, y float64) core.Camera {
	c := core.NewCamera(x, y, nil)
	c.RotationDeg = 0
	c.FOVAngleDeg = 90
	c.FOVRadius = 200
	return c
}

func polar(origin geom.XY, deg, r float64) geom.XY {
	rad := deg * math.Pi / 180
	return geom.XY{X: origin.X + r*math.Cos(rad), Y: origin.Y + r*math.Sin(rad)}
}

func TestLayoutOf(t *testing.T) {
	c := testCamera(100, 100)
	l := LayoutOf(c)

	assert.Equal(t, geom.XY{X: 100, Y: 100}, l.Body)
	assert.InDelta(t, 260, l.ArrowTip.X, 1e-9)
	assert.InDelta(t, 100, l.ArrowTip.Y, 1e-9)

	corner := polar(l.Body, 45, 200)
	assert.InDelta(t, corner.X, l.Corner.X, 1e-9)
	assert.InDelta(t, corner.Y, l.Corner.Y, 1e-9)
}

func TestLayout_HitTestPriority(t *testing.T) {
	c := testCamera(100, 100)
	l := LayoutOf(c)

	assert.Equal(t, Corner, l.HitTest(l.Corner, 0))
	assert.Equal(t, Body, l.HitTest(geom.XY{X: 105, Y: 100}, 0))
	assert.Equal(t, Arrow, l.HitTest(geom.XY{X: 180, Y: 102}, 0))
	assert.Equal(t, Arrow, l.HitTest(l.ArrowTip, 0))
	assert.Equal(t, Wedge, l.HitTest(polar(l.Body, 30, 150), 0))
	assert.Equal(t, None, l.HitTest(geom.XY{X: 0, Y: 0}, 0))
}

func TestLayout_HitTestSlop(t *testing.T) {
	l := LayoutOf(testCamera(100, 100))
	p := geom.XY{X: 100, Y: 113}

	assert.Equal(t, None, l.HitTest(p, 0))
	assert.Equal(t, Body, l.HitTest(p, 4))
}

func TestHitTest_TopmostCameraWins(t *testing.T) {
	a := testCamera(100, 100)
	b := testCamera(100, 100)

	key, kind := HitTest([]core.Camera{a, b}, geom.XY{X: 100, Y: 100}, 0)

	assert.Equal(t, b.Key, key)
	assert.Equal(t, Body, kind)

	key, kind = HitTest([]core.Camera{a, b}, geom.XY{X: -500, Y: -500}, 0)
	assert.Empty(t, key)
	assert.Equal(t, None, kind)
}

func TestDrag_BodyMovesByDisplacement(t *testing.T) {
	c := testCamera(100, 100)
	d := Begin(c, Body, geom.XY{X: 104, Y: 98})

	p, ok := d.Move(geom.XY{X: 154, Y: 68})
	require.True(t, ok)
	require.NotNil(t, p.X)
	assert.InDelta(t, 150, *p.X, 1e-9)
	assert.InDelta(t, 70, *p.Y, 1e-9)
	assert.Nil(t, p.RotationDeg)
}

func TestDrag_ArrowNormalizesNegativeAngle(t *testing.T) {
	c := testCamera(0, 0)
	l := LayoutOf(c)
	d := Begin(c, Arrow, l.ArrowTip)

	target := polar(l.Body, -30, 160)
	p, ok := d.Move(target)

	require.True(t, ok)
	require.NotNil(t, p.RotationDeg)
	assert.InDelta(t, 330, *p.RotationDeg, 1e-9)
	assert.Nil(t, p.FOVRadius)
}

func TestDrag_ArrowDegenerateSkipped(t *testing.T) {
	c := testCamera(0, 0)
	l := LayoutOf(c)
	d := Begin(c, Arrow, l.ArrowTip)

	_, ok := d.Move(l.Body)
	assert.False(t, ok)
}

func TestDrag_CornerClampsAngleAndRadius(t *testing.T) {
	c := testCamera(0, 0)
	c.RotationDeg = 90
	c.FOVAngleDeg = 60
	l := LayoutOf(c)
	d := Begin(c, Corner, l.Corner)

	// leading edge is at 60 degrees; 60 + 200 = 260 would be a 200 degree cone
	p, ok := d.Move(polar(l.Body, 260, 5))
	require.True(t, ok)
	assert.Equal(t, 180.0, *p.FOVAngleDeg)
	assert.Equal(t, 40.0, *p.FOVRadius)
	assert.Nil(t, p.RotationDeg)

	p, ok = d.Move(polar(l.Body, 60+45, 300))
	require.True(t, ok)
	assert.InDelta(t, 45, *p.FOVAngleDeg, 1e-9)
	assert.InDelta(t, 300, *p.FOVRadius, 1e-9)

	p, _ = d.Move(polar(l.Body, 62, 5000))
	assert.Equal(t, 10.0, *p.FOVAngleDeg)
	assert.Equal(t, 1000.0, *p.FOVRadius)
}

func TestDrag_CornerUsesTotalDisplacement(t *testing.T) {
	c := testCamera(0, 0)
	l := LayoutOf(c)
	// grab slightly off-center: the offset must not leak into the result
	grab := l.Corner.Add(geom.XY{X: 3, Y: -2})
	d := Begin(c, Corner, grab)

	p, ok := d.Move(grab)
	require.True(t, ok)
	assert.InDelta(t, c.FOVAngleDeg, *p.FOVAngleDeg, 1e-9)
	assert.InDelta(t, c.FOVRadius, *p.FOVRadius, 1e-9)
}

func TestDrag_WedgeSetsRotationAndRadius(t *testing.T) {
	c := testCamera(50, 50)
	d := Begin(c, Wedge, geom.XY{X: 150, Y: 60})

	p, ok := d.Move(polar(geom.XY{X: 50, Y: 50}, 120, 2000))
	require.True(t, ok)
	assert.InDelta(t, 120, *p.RotationDeg, 1e-9)
	assert.Equal(t, 1000.0, *p.FOVRadius)
	assert.Nil(t, p.FOVAngleDeg)

	_, ok = d.Move(geom.XY{X: 50, Y: 50})
	assert.False(t, ok)
}

func TestDrag_PatchesAlwaysInRange(t *testing.T) {
	c := testCamera(0, 0)
	for _, kind := range []Kind{Arrow, Corner, Wedge} {
		d := Begin(c, kind, LayoutOf(c).Corner)
		for deg := -720.0; deg <= 720; deg += 7.5 {
			for _, r := range []float64{1, 39, 41, 500, 999, 1001, 1e6} {
				p, ok := d.Move(polar(geom.XY{}, deg, r))
				if !ok {
					continue
				}
				if p.RotationDeg != nil {
					assert.GreaterOrEqual(t, *p.RotationDeg, 0.0)
					assert.Less(t, *p.RotationDeg, 360.0)
				}
				if p.FOVAngleDeg != nil {
					assert.GreaterOrEqual(t, *p.FOVAngleDeg, core.MinFOVAngleDeg)
					assert.LessOrEqual(t, *p.FOVAngleDeg, core.MaxFOVAngleDeg)
				}
				if p.FOVRadius != nil {
					assert.GreaterOrEqual(t, *p.FOVRadius, core.MinFOVRadius)
					assert.LessOrEqual(t, *p.FOVRadius, core.MaxFOVRadius)
				}
			}
		}
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "corner", Corner.String())
	assert.Equal(t, "none", Kind(99).String())
}
