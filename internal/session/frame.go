package session

import (
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/sitesurvey/camplan/internal/handle"
)

// MarkerFrame is everything needed to draw one camera, in screen space.
// Handle positions are recomputed from committed attributes on every frame.
type MarkerFrame struct {
	Key      string
	RemoteID string
	Name     string
	Status   string
	Selected bool

	Origin   geom.XY
	StartDeg float64
	SweepDeg float64
	Radius   float64

	Body     geom.XY
	ArrowTip geom.XY
	Corner   geom.XY
}

// Frame is one rendering of the canvas.
type Frame struct {
	Scale       float64
	Translation geom.XY
	Markers     []MarkerFrame
}

// Frame renders the current state, markers in paint order.
func (s *Session) Frame() Frame {
	cams := s.store.Cameras()
	selected := s.store.SelectedKey()

	f := Frame{
		Scale:       s.vp.Scale,
		Translation: s.vp.Translation,
		Markers:     make([]MarkerFrame, 0, len(cams)),
	}
	for _, c := range cams {
		l := handle.LayoutOf(c)
		f.Markers = append(f.Markers, MarkerFrame{
			Key:      c.Key,
			RemoteID: c.RemoteID,
			Name:     c.Name,
			Status:   c.StatusLabel(),
			Selected: c.Key == selected,
			Origin:   s.vp.ToScreen(l.Wedge.Origin),
			StartDeg: l.Wedge.StartDeg,
			SweepDeg: l.Wedge.SweepDeg,
			Radius:   l.Wedge.Radius * s.vp.Scale,
			Body:     s.vp.ToScreen(l.Body),
			ArrowTip: s.vp.ToScreen(l.ArrowTip),
			Corner:   s.vp.ToScreen(l.Corner),
		})
	}
	return f
}

// Marker returns the frame of one camera.
func (f Frame) Marker(key string) (MarkerFrame, bool) {
	for _, m := range f.Markers {
		if m.Key == key {
			return m, true
		}
	}
	return MarkerFrame{}, false
}
