// Package measure implements a measuring tape anchored in front of the camera.
// A tap drops a start marker a short distance ahead of the lens; every frame
// after that reports how far the camera has moved from it. Tapping again
// lifts the marker.
package measure

import (
	"errors"
	"sync"

	"github.com/banshee-data/arcontrol/internal/geom"
	"github.com/banshee-data/arcontrol/internal/placement"
	"github.com/banshee-data/arcontrol/internal/units"
)

// ErrNoStart is returned by Measure before a start point has been placed.
var ErrNoStart = errors.New("no measuring start point")

// Measurement is the offset from the start marker to the camera.
type Measurement struct {
	DX       float64 `json:"dx"`
	DY       float64 `json:"dy"`
	DZ       float64 `json:"dz"`
	Distance float64 `json:"distance"`
}

// Labels is a Measurement formatted for display.
type Labels struct {
	X        string `json:"x"`
	Y        string `json:"y"`
	Z        string `json:"z"`
	Distance string `json:"distance"`
}

// Format renders each component with two decimals in the given length unit.
func (m Measurement) Format(unit string) Labels {
	return Labels{
		X:        units.FormatLength(m.DX, unit),
		Y:        units.FormatLength(m.DY, unit),
		Z:        units.FormatLength(m.DZ, unit),
		Distance: units.FormatLength(m.Distance, unit),
	}
}

// Tape holds at most one start marker.
type Tape struct {
	mu       sync.Mutex
	distance float64
	start    *geom.Pose
}

// NewTape returns a tape whose marker is placed distance meters ahead.
func NewTape(distance float64) *Tape {
	return &Tape{distance: distance}
}

// Distance returns how far ahead of the camera the marker is placed.
func (t *Tape) Distance() float64 {
	return t.distance
}

// Toggle places a marker in front of pose if none exists, otherwise removes
// it. It reports whether a marker is present afterwards.
func (t *Tape) Toggle(pose geom.Pose) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.start != nil {
		t.start = nil
		return false
	}
	t.setLocked(pose)
	return true
}

// Start places (or moves) the marker in front of pose and returns its transform.
func (t *Tape) Start(pose geom.Pose) geom.Pose {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.setLocked(pose)
}

func (t *Tape) setLocked(pose geom.Pose) geom.Pose {
	marker := placement.ForwardTransform(pose, t.distance)
	t.start = &marker
	return marker
}

// Clear removes the marker.
func (t *Tape) Clear() {
	t.mu.Lock()
	t.start = nil
	t.mu.Unlock()
}

// StartPoint returns the marker position, if any.
func (t *Tape) StartPoint() (geom.Vec, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.start == nil {
		return geom.Vec{}, false
	}
	return t.start.Position(), true
}

// Measure returns the offset from the marker to the camera at pose.
func (t *Tape) Measure(pose geom.Pose) (Measurement, error) {
	start, ok := t.StartPoint()
	if !ok {
		return Measurement{}, ErrNoStart
	}
	d := geom.Sub(pose.Position(), start)
	return Measurement{DX: d.X, DY: d.Y, DZ: d.Z, Distance: geom.Norm(d)}, nil
}
