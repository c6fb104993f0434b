package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/sitesurvey/camplan/internal/viewport"
)

// Input event types.
const (
	EventPointerDown  = "pointerdown"
	EventPointerMove  = "pointermove"
	EventPointerUp    = "pointerup"
	EventPointerLeave = "pointerleave"
	EventWheel        = "wheel"
	EventTouchStart   = "touchstart"
	EventTouchMove    = "touchmove"
	EventTouchEnd     = "touchend"
	EventTouchCancel  = "touchcancel"
	EventResize       = "resize"
	EventImage        = "image"
	EventDelete       = "delete"
)

// Point is a screen point in an input event.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// XY converts the point.
func (p Point) XY() geom.XY {
	return geom.XY{X: p.X, Y: p.Y}
}

// InputEvent is the serialized form of one input event, as recorded from a
// client for replay. Touches holds the touches active after the event.
// Width and Height size the canvas (resize) or the floor plan (image).
type InputEvent struct {
	Type    string  `json:"type"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	DeltaY  float64 `json:"deltaY,omitempty"`
	Touches []Point `json:"touches,omitempty"`
	Width   float64 `json:"width,omitempty"`
	Height  float64 `json:"height,omitempty"`
}

func (e InputEvent) point() geom.XY {
	return geom.XY{X: e.X, Y: e.Y}
}

func (e InputEvent) touches() []geom.XY {
	out := make([]geom.XY, len(e.Touches))
	for i, t := range e.Touches {
		out[i] = t.XY()
	}
	return out
}

// Apply feeds one event to the session. It reports whether the event
// changed the viewport or the store.
func (s *Session) Apply(e InputEvent) (bool, error) {
	switch e.Type {
	case EventPointerDown:
		before := s.store.Revision()
		s.PointerDown(e.point())
		return s.store.Revision() != before, nil
	case EventPointerMove:
		return s.PointerMove(e.point()), nil
	case EventPointerUp:
		return s.PointerUp(e.point()), nil
	case EventPointerLeave:
		s.PointerLeave()
		return false, nil
	case EventWheel:
		return s.Wheel(e.point(), e.DeltaY), nil
	case EventTouchStart:
		before := s.store.Revision()
		changed := s.TouchStart(e.touches())
		return changed || s.store.Revision() != before, nil
	case EventTouchMove:
		return s.TouchMove(e.touches()), nil
	case EventTouchEnd:
		return s.TouchEnd(e.touches()), nil
	case EventTouchCancel:
		s.TouchCancel()
		return false, nil
	case EventResize:
		s.Resize(viewport.Size{W: e.Width, H: e.Height})
		return true, nil
	case EventImage:
		s.SetImage(viewport.Size{W: e.Width, H: e.Height})
		return true, nil
	case EventDelete:
		return s.DeleteSelected(), nil
	default:
		return false, fmt.Errorf("unknown input event type %q", e.Type)
	}
}

// Replay applies newline-delimited JSON input events from r. Blank lines
// are skipped. It returns the number of events applied.
func (s *Session) Replay(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	n := 0
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var e InputEvent
		if err := json.Unmarshal([]byte(text), &e); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := s.Apply(e); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("reading events: %w", err)
	}
	return n, nil
}
