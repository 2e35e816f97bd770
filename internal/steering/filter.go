// Package steering turns accelerometer samples into a steering angle and
// touch counts into engine and brake forces for a simulated vehicle.
package steering

import (
	"fmt"
	"sync"
	"time"
)

// DefaultAlpha weighs a new sample and the previous filtered value equally.
const DefaultAlpha = 0.5

// Sample is one accelerometer reading. X and Y are the gravity components
// along the device's short and long edges, roughly in [-1, 1].
type Sample struct {
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
	Time time.Time `json:"time,omitempty"`
}

// FilterState is the last filtered value of each axis.
type FilterState struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Tilt derives the steering estimate from the filtered values. The sign of
// X tells which edge of the device the camera is on; flipping Y keeps the
// same physical tilt steering the same way for either grip. The sign changes
// abruptly when X crosses zero.
func (s FilterState) Tilt() float64 {
	if s.X > 0 {
		return -s.Y
	}
	return s.Y
}

// Filter is a single-pole low-pass filter over both accelerometer axes.
// All updates go through its mutex, so it may be fed from any goroutine.
type Filter struct {
	mu    sync.Mutex
	alpha float64
	state FilterState
	count uint64
}

// NewFilter returns a zeroed filter. alpha must be in (0, 1].
func NewFilter(alpha float64) (*Filter, error) {
	if !(alpha > 0 && alpha <= 1) {
		return nil, fmt.Errorf("smoothing alpha must be in (0, 1], got %v", alpha)
	}
	return &Filter{alpha: alpha}, nil
}

// Alpha returns the smoothing factor.
func (f *Filter) Alpha() float64 {
	return f.alpha
}

// Update folds s into the filter and returns the new tilt estimate.
func (f *Filter) Update(s Sample) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.X = s.X*f.alpha + f.state.X*(1-f.alpha)
	f.state.Y = s.Y*f.alpha + f.state.Y*(1-f.alpha)
	f.count++
	return f.state.Tilt()
}

// State returns a copy of the filter state.
func (f *Filter) State() FilterState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Tilt returns the current tilt estimate without updating.
func (f *Filter) Tilt() float64 {
	return f.State().Tilt()
}

// Count returns how many samples have been folded in since the last reset.
func (f *Filter) Count() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// Reset zeroes the filter.
func (f *Filter) Reset() {
	f.mu.Lock()
	f.state = FilterState{}
	f.count = 0
	f.mu.Unlock()
}
