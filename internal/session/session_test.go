package session

import (
	"math"
	"strings"
	"testing"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/sitesurvey/camplan/internal/store"
	"github.com/sitesurvey/camplan/internal/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, opts Options) *Session {
	t.Helper()
	st := store.New(store.Options{})
	vp := viewport.New(viewport.Size{W: 800, H: 600})
	return New(st, vp, opts)
}

func xy(x, y float64) geom.XY { return geom.XY{X: x, Y: y} }

func click(s *Session, p geom.XY) bool {
	s.PointerDown(p)
	return s.PointerUp(p)
}

func TestBackgroundClick_CreatesAtScenePoint(t *testing.T) {
	s := newSession(t, Options{})
	s.vp.Scale = 2
	s.vp.Translation = xy(10, 10)

	require.True(t, click(s, xy(250, 170)))

	cams := s.store.Cameras()
	require.Len(t, cams, 1)
	assert.Equal(t, 120.0, cams[0].X)
	assert.Equal(t, 80.0, cams[0].Y)
	assert.Equal(t, cams[0].Key, s.store.SelectedKey())
}

func TestClickOnCamera_SelectsWithoutCreating(t *testing.T) {
	s := newSession(t, Options{})
	key := s.store.Add(100, 100)
	s.store.Select("")

	assert.True(t, s.PointerDown(xy(100, 100)))
	assert.False(t, s.PointerUp(xy(100, 100)))

	assert.Len(t, s.store.Cameras(), 1)
	assert.Equal(t, key, s.store.SelectedKey())
}

func TestBackgroundClickWhileSelected(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		s := newSession(t, Options{Policy: CreateAlways})
		first := s.store.Add(100, 100)

		require.True(t, click(s, xy(500, 500)))

		assert.Len(t, s.store.Cameras(), 2)
		assert.NotEqual(t, first, s.store.SelectedKey())
		assert.NotEmpty(t, s.store.SelectedKey())
	})
	t.Run("deselect", func(t *testing.T) {
		s := newSession(t, Options{Policy: DeselectOnly})
		s.store.Add(100, 100)

		assert.False(t, click(s, xy(500, 500)))

		assert.Len(t, s.store.Cameras(), 1)
		assert.Empty(t, s.store.SelectedKey())

		// nothing selected now, so the next click creates
		assert.True(t, click(s, xy(500, 500)))
		assert.Len(t, s.store.Cameras(), 2)
	})
}

func TestBodyDrag_UsesSceneDisplacement(t *testing.T) {
	s := newSession(t, Options{})
	s.vp.Scale = 2
	key := s.store.Add(100, 100)

	require.True(t, s.PointerDown(xy(200, 200)))
	assert.True(t, s.Dragging())
	require.True(t, s.PointerMove(xy(300, 260)))
	assert.False(t, s.PointerUp(xy(300, 260)))

	c, ok := s.store.Camera(key)
	require.True(t, ok)
	assert.Equal(t, 150.0, c.X)
	assert.Equal(t, 130.0, c.Y)
	assert.Len(t, s.store.Cameras(), 1)
	assert.False(t, s.Dragging())
}

func TestDrag_BelowThresholdDoesNotMove(t *testing.T) {
	s := newSession(t, Options{})
	key := s.store.Add(100, 100)

	s.PointerDown(xy(100, 100))
	assert.False(t, s.PointerMove(xy(101, 101)))
	s.PointerUp(xy(101, 101))

	c, _ := s.store.Camera(key)
	assert.Equal(t, 100.0, c.X)
	assert.Equal(t, 100.0, c.Y)
}

func TestArrowDrag_Rotates(t *testing.T) {
	s := newSession(t, Options{})
	key := s.store.Add(100, 100)

	require.True(t, s.PointerDown(xy(276, 100)))
	require.True(t, s.PointerMove(xy(100, 276)))
	s.PointerUp(xy(100, 276))

	c, _ := s.store.Camera(key)
	assert.InDelta(t, 90, c.RotationDeg, 1e-9)
	assert.Equal(t, 100.0, c.X)

	// the arrow handle is derived again from the committed rotation
	m, ok := s.Frame().Marker(key)
	require.True(t, ok)
	assert.InDelta(t, 100, m.ArrowTip.X, 1e-9)
	assert.InDelta(t, 276, m.ArrowTip.Y, 1e-9)
}

func TestBackgroundDrag_Pans(t *testing.T) {
	s := newSession(t, Options{})

	assert.False(t, s.PointerDown(xy(10, 10)))
	assert.True(t, s.PointerMove(xy(60, 40)))
	assert.False(t, s.PointerUp(xy(60, 40)))

	assert.Equal(t, xy(50, 30), s.vp.Translation)
	assert.Empty(t, s.store.Cameras())
}

func TestPointerLeave_CancelsClick(t *testing.T) {
	s := newSession(t, Options{})
	s.PointerDown(xy(10, 10))
	s.PointerLeave()
	assert.False(t, s.PointerUp(xy(10, 10)))
	assert.Empty(t, s.store.Cameras())
}

func TestWheel_KeepsPointerAnchored(t *testing.T) {
	s := newSession(t, Options{})
	p := xy(400, 300)
	before := s.vp.ToScene(p)

	require.True(t, s.Wheel(p, -120))
	assert.InDelta(t, 1.1, s.vp.Scale, 1e-9)

	after := s.vp.ToScene(p)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)

	assert.False(t, s.Wheel(p, 0))
}

func TestPinch_ZoomsWithoutCreating(t *testing.T) {
	s := newSession(t, Options{})

	s.TouchStart([]geom.XY{xy(100, 100)})
	s.TouchStart([]geom.XY{xy(100, 100), xy(200, 100)})
	require.True(t, s.TouchMove([]geom.XY{xy(50, 100), xy(250, 100)}))
	s.TouchEnd([]geom.XY{xy(250, 100)})
	assert.False(t, s.TouchMove([]geom.XY{xy(260, 100)}))
	assert.False(t, s.TouchEnd(nil))

	assert.InDelta(t, 2, s.vp.Scale, 1e-9)
	assert.Equal(t, xy(-150, -100), s.vp.Translation)
	assert.Empty(t, s.store.Cameras())
}

func TestPinch_DegenerateStartKeepsScale(t *testing.T) {
	s := newSession(t, Options{})

	s.TouchStart([]geom.XY{xy(100, 100), xy(100, 100)})
	s.TouchMove([]geom.XY{xy(90, 100), xy(110, 100)})

	assert.Equal(t, 1.0, s.vp.Scale)
}

func TestSingleTouchTap_Creates(t *testing.T) {
	s := newSession(t, Options{})

	s.TouchStart([]geom.XY{xy(300, 300)})
	require.True(t, s.TouchEnd(nil))

	cams := s.store.Cameras()
	require.Len(t, cams, 1)
	assert.Equal(t, 300.0, cams[0].X)
}

func TestTouchEnd_ReanchorsOnRemainingPair(t *testing.T) {
	s := newSession(t, Options{})

	s.TouchStart([]geom.XY{xy(100, 100), xy(200, 100)})
	s.TouchStart([]geom.XY{xy(100, 100), xy(200, 100), xy(150, 300)})
	assert.False(t, s.TouchEnd([]geom.XY{xy(100, 100), xy(300, 100)}))
	assert.Equal(t, 1.0, s.vp.Scale)

	require.True(t, s.TouchMove([]geom.XY{xy(0, 100), xy(400, 100)}))
	assert.InDelta(t, 2, s.vp.Scale, 1e-9)
	assert.Equal(t, xy(-200, -100), s.vp.Translation)
}

func TestTouchHeld_IgnoresSingleTouchUntilAllLift(t *testing.T) {
	s := newSession(t, Options{})

	s.TouchStart([]geom.XY{xy(300, 300)})
	s.TouchStart([]geom.XY{xy(300, 300), xy(400, 300)})
	s.TouchEnd([]geom.XY{xy(300, 300)})

	assert.False(t, s.TouchStart([]geom.XY{xy(500, 500)}))
	assert.False(t, s.TouchMove([]geom.XY{xy(520, 500)}))
	assert.False(t, s.TouchEnd(nil))
	assert.Empty(t, s.store.Cameras())

	// a fresh tap after every finger lifted is a click again
	s.TouchStart([]geom.XY{xy(300, 300)})
	require.True(t, s.TouchEnd(nil))
	assert.Len(t, s.store.Cameras(), 1)
}

func TestPinch_NonFiniteTouchDoesNotReachCameras(t *testing.T) {
	s := newSession(t, Options{})
	s.SetImage(viewport.Size{W: 2000, H: 1500})
	s.vp.ZoomAt(xy(400, 300), 2)

	s.TouchStart([]geom.XY{xy(100, 100), xy(200, 100)})
	s.TouchMove([]geom.XY{xy(math.NaN(), 100), xy(200, 100)})
	s.TouchMove([]geom.XY{xy(math.Inf(1), 100), xy(200, 100)})
	s.TouchEnd(nil)

	assert.Equal(t, 2.0, s.vp.Scale)
	assert.Equal(t, xy(-1600, -1200), s.vp.Translation)

	s.TouchStart([]geom.XY{xy(10, 10)})
	require.True(t, s.TouchEnd(nil))
	cams := s.store.Cameras()
	require.Len(t, cams, 1)
	assert.InDelta(t, 805, cams[0].X, 1e-9)
	assert.InDelta(t, 605, cams[0].Y, 1e-9)
}

func TestTouchCancel(t *testing.T) {
	s := newSession(t, Options{})
	s.TouchStart([]geom.XY{xy(300, 300)})
	s.TouchCancel()
	assert.False(t, s.TouchEnd(nil))
	assert.Empty(t, s.store.Cameras())
}

func TestDeleteSelected(t *testing.T) {
	s := newSession(t, Options{})
	assert.False(t, s.DeleteSelected())

	s.store.Add(10, 10)
	assert.True(t, s.DeleteSelected())
	assert.Empty(t, s.store.Cameras())
	assert.Empty(t, s.store.SelectedKey())
}

func TestNonFinitePointerIgnored(t *testing.T) {
	s := newSession(t, Options{})
	assert.False(t, s.PointerDown(xy(math.NaN(), 0)))
	assert.False(t, s.PointerUp(xy(0, 0)))
	assert.Empty(t, s.store.Cameras())
}

func TestFrame(t *testing.T) {
	s := newSession(t, Options{})
	s.vp.Scale = 2
	key := s.store.Add(100, 100)

	f := s.Frame()
	require.Len(t, f.Markers, 1)
	m := f.Markers[0]

	assert.Equal(t, key, m.Key)
	assert.True(t, m.Selected)
	assert.Equal(t, "Camera", m.Name)
	assert.Equal(t, xy(200, 200), m.Origin)
	assert.Equal(t, xy(200, 200), m.Body)
	assert.Equal(t, 440.0, m.Radius)
	assert.Equal(t, -35.0, m.StartDeg)
	assert.Equal(t, 70.0, m.SweepDeg)
	assert.InDelta(t, 552, m.ArrowTip.X, 1e-9)
	assert.InDelta(t, 200, m.ArrowTip.Y, 1e-9)

	_, ok := f.Marker("nope")
	assert.False(t, ok)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, CreateAlways, p)

	p, err = ParsePolicy("deselect")
	require.NoError(t, err)
	assert.Equal(t, DeselectOnly, p)
	assert.Equal(t, "deselect", p.String())

	_, err = ParsePolicy("explode")
	assert.Error(t, err)
}

func TestReplay(t *testing.T) {
	s := newSession(t, Options{})
	events := strings.Join([]string{
		`{"type":"resize","width":1000,"height":800}`,
		``,
		`{"type":"pointerdown","x":250,"y":170}`,
		`{"type":"pointerup","x":250,"y":170}`,
		`{"type":"wheel","x":0,"y":0,"deltaY":-100}`,
		`{"type":"touchstart","touches":[{"x":600,"y":600}]}`,
		`{"type":"touchend"}`,
	}, "\n")

	n, err := s.Replay(strings.NewReader(events))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	cams := s.store.Cameras()
	require.Len(t, cams, 2)
	assert.Equal(t, 250.0, cams[0].X)
	assert.InDelta(t, 600/1.1, cams[1].X, 1e-9)
	assert.Equal(t, viewport.Size{W: 1000, H: 800}, s.vp.Container)
}

func TestReplay_Errors(t *testing.T) {
	s := newSession(t, Options{})

	_, err := s.Replay(strings.NewReader(`{"type":"pointerdown"}` + "\n" + `{"type":"teleport"}`))
	assert.ErrorContains(t, err, "line 2")
	assert.ErrorContains(t, err, "teleport")

	_, err = s.Replay(strings.NewReader(`not json`))
	assert.ErrorContains(t, err, "line 1")
}
