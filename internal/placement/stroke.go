package placement

import (
	"sync"

	"github.com/banshee-data/arcontrol/internal/geom"
)

// Stroke follows a drawing brush held in front of the camera. While the brush
// is down every tick adds a point to the stroke; while it is up only the
// pointer moves, showing where drawing would start.
type Stroke struct {
	mu       sync.Mutex
	distance float64
	pointer  geom.Vec
	points   []geom.Vec
}

// NewStroke returns an empty stroke drawn distance meters from the camera.
func NewStroke(distance float64) *Stroke {
	return &Stroke{distance: distance}
}

// Distance returns how far ahead of the camera the brush is held.
func (s *Stroke) Distance() float64 {
	return s.distance
}

// Tick records one render frame. It returns the forward point and whether
// it was appended to the stroke.
func (s *Stroke) Tick(pose geom.Pose, brushDown bool) (geom.Vec, bool) {
	p := ComputeForwardPoint(pose, s.distance)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointer = p
	if brushDown {
		s.points = append(s.points, p)
	}
	return p, brushDown
}

// Pointer returns the latest forward point.
func (s *Stroke) Pointer() geom.Vec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer
}

// Points returns a copy of the drawn points in order.
func (s *Stroke) Points() []geom.Vec {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]geom.Vec, len(s.points))
	copy(out, s.points)
	return out
}

// Clear drops every drawn point.
func (s *Stroke) Clear() {
	s.mu.Lock()
	s.points = nil
	s.mu.Unlock()
}
