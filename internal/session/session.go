// Package session is the interaction session of one canvas: it owns the
// viewport, the gesture controller and the drag in progress, and turns
// pointer, touch and wheel input into viewport changes and store intents.
// A Session is driven from a single goroutine.
package session

import (
	"fmt"
	"log/slog"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/sitesurvey/camplan/internal/gesture"
	"github.com/sitesurvey/camplan/internal/handle"
	"github.com/sitesurvey/camplan/internal/store"
	"github.com/sitesurvey/camplan/internal/viewport"
)

// Input defaults, in screen pixels.
const (
	DefaultClickThreshold = 3.0
	DefaultHitSlop        = 4.0
)

// BackgroundClickPolicy decides what a click on empty canvas does while a
// camera is selected.
type BackgroundClickPolicy int

const (
	// CreateAlways deselects and creates a camera at the click point.
	CreateAlways BackgroundClickPolicy = iota
	// DeselectOnly only clears the selection.
	DeselectOnly
)

func (p BackgroundClickPolicy) String() string {
	if p == DeselectOnly {
		return "deselect"
	}
	return "create"
}

// ParsePolicy parses "create" or "deselect". Empty means CreateAlways.
func ParsePolicy(s string) (BackgroundClickPolicy, error) {
	switch s {
	case "", "create":
		return CreateAlways, nil
	case "deselect":
		return DeselectOnly, nil
	default:
		return CreateAlways, fmt.Errorf("unknown background click policy %q", s)
	}
}

// Options configures a Session.
type Options struct {
	// ClickThreshold is the pointer travel below which a press-release is a
	// click rather than a drag.
	ClickThreshold float64
	// HitSlop widens handle hit targets.
	HitSlop float64
	Policy  BackgroundClickPolicy
	Logger  *slog.Logger
}

// press is the pointer interaction between down and up.
type press struct {
	start geom.XY // screen
	moved bool
	key   string
	drag  *handle.Drag
}

// Session is not safe for concurrent use.
type Session struct {
	store    *store.Store
	vp       *viewport.Viewport
	gestures *gesture.Controller
	opts     Options

	press *press
	// touchHeld suppresses single-touch presses until every finger of a
	// pinch has been lifted.
	touchHeld bool
	lastTouch geom.XY
}

// New creates a session editing st through vp.
func New(st *store.Store, vp *viewport.Viewport, opts Options) *Session {
	if opts.ClickThreshold <= 0 {
		opts.ClickThreshold = DefaultClickThreshold
	}
	if opts.HitSlop < 0 {
		opts.HitSlop = 0
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{
		store:    st,
		vp:       vp,
		gestures: gesture.NewController(vp),
		opts:     opts,
	}
}

// Viewport returns the session viewport.
func (s *Session) Viewport() *viewport.Viewport {
	return s.vp
}

// Store returns the edited store.
func (s *Session) Store() *store.Store {
	return s.store
}

// Dragging reports whether a handle drag is in progress.
func (s *Session) Dragging() bool {
	return s.press != nil && s.press.drag != nil
}

// PointerDown starts a press at screen point p. A press on a camera handle
// selects the camera and starts a drag; elsewhere it starts a background
// pan. It reports whether the press was claimed by a camera.
func (s *Session) PointerDown(p geom.XY) bool {
	if s.gestures.Pinching() || !viewport.Finite(p) {
		return false
	}
	s.press = &press{start: p}

	scene := s.vp.ToScene(p)
	key, kind := handle.HitTest(s.store.Cameras(), scene, s.opts.HitSlop/s.vp.Scale)
	if kind == handle.None {
		s.gestures.BeginPan(p)
		return false
	}

	cam, ok := s.store.Camera(key)
	if !ok {
		s.gestures.BeginPan(p)
		return false
	}
	s.store.Select(key)
	s.press.key = key
	s.press.drag = handle.Begin(cam, kind, scene)
	return true
}

// PointerMove advances the press. Handle drags issue one clamped patch per
// tick once the pointer has left the click threshold; background presses
// pan. It reports whether anything changed.
func (s *Session) PointerMove(p geom.XY) bool {
	pr := s.press
	if pr == nil || !viewport.Finite(p) {
		return false
	}
	if !pr.moved && distance(p, pr.start) > s.opts.ClickThreshold {
		pr.moved = true
	}
	if !pr.moved {
		return false
	}

	if pr.drag != nil {
		patch, ok := pr.drag.Move(s.vp.ToScene(p))
		if !ok {
			return false
		}
		return s.store.Patch(pr.key, patch)
	}
	return s.gestures.MovePan(p)
}

// PointerUp ends the press. A press that never left the click threshold on
// empty canvas is a background click. It reports whether a camera was
// created.
func (s *Session) PointerUp(p geom.XY) bool {
	pr := s.press
	s.press = nil
	s.gestures.EndPan()
	if pr == nil || pr.moved || pr.key != "" {
		return false
	}
	if !viewport.Finite(p) {
		p = pr.start
	}
	return s.backgroundClick(p)
}

// PointerLeave abandons the press without a click.
func (s *Session) PointerLeave() {
	s.press = nil
	s.gestures.EndPan()
}

func (s *Session) backgroundClick(p geom.XY) bool {
	if sel := s.store.SelectedKey(); sel != "" {
		s.store.Select("")
		if s.opts.Policy == DeselectOnly {
			return false
		}
	}
	scene := s.vp.ToScene(p)
	key := s.store.Add(scene.X, scene.Y)
	s.opts.Logger.Debug("camera added", "key", key, "x", scene.X, "y", scene.Y)
	return true
}

// Wheel zooms one step at p.
func (s *Session) Wheel(p geom.XY, deltaY float64) bool {
	return s.gestures.Wheel(p, deltaY)
}

// TouchStart reports the active touches after a finger went down. One touch
// behaves like a pointer; two anchor a pinch and cancel any press.
func (s *Session) TouchStart(points []geom.XY) bool {
	switch len(points) {
	case 1:
		if s.touchHeld || !viewport.Finite(points[0]) {
			return false
		}
		s.lastTouch = points[0]
		return s.PointerDown(points[0])
	case 2:
		s.cancelPressForPinch()
		return s.gestures.Touches(points)
	default:
		s.cancelPressForPinch()
		s.gestures.EndTouches()
		return false
	}
}

// TouchMove reports the active touches after they moved.
func (s *Session) TouchMove(points []geom.XY) bool {
	switch len(points) {
	case 1:
		if s.touchHeld || !viewport.Finite(points[0]) {
			return false
		}
		s.lastTouch = points[0]
		return s.PointerMove(points[0])
	case 2:
		s.cancelPressForPinch()
		return s.gestures.Touches(points)
	default:
		return false
	}
}

// TouchEnd reports the touches still active after a finger lifted.
func (s *Session) TouchEnd(remaining []geom.XY) bool {
	if len(remaining) > 0 {
		s.gestures.EndTouches()
		if len(remaining) == 2 {
			// re-anchor on the fingers still down
			s.gestures.Touches(remaining)
		}
		return false
	}
	s.gestures.EndTouches()
	if s.touchHeld {
		s.touchHeld = false
		return false
	}
	return s.PointerUp(s.lastTouch)
}

// TouchCancel abandons every touch interaction.
func (s *Session) TouchCancel() {
	s.gestures.EndTouches()
	s.touchHeld = false
	s.PointerLeave()
}

func (s *Session) cancelPressForPinch() {
	s.touchHeld = true
	if s.press != nil {
		s.PointerLeave()
	}
}

// DeleteSelected removes the selected camera.
func (s *Session) DeleteSelected() bool {
	key := s.store.SelectedKey()
	if key == "" {
		return false
	}
	return s.store.Remove(key)
}

// SetImage records the loaded floor plan size and fits it.
func (s *Session) SetImage(size viewport.Size) {
	s.vp.SetImage(size)
}

// Resize updates the canvas size.
func (s *Session) Resize(size viewport.Size) {
	s.vp.Resize(size)
}

func distance(a, b geom.XY) float64 {
	d := a.Sub(b)
	return math.Hypot(d.X, d.Y)
}
