// Package drive runs the vehicle control loop: accelerometer lines feed the
// steering filter and, once per tick, the current touch count becomes the
// engine and brake command for the scene.
package drive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/arcontrol/internal/db"
	"github.com/banshee-data/arcontrol/internal/monitoring"
	"github.com/banshee-data/arcontrol/internal/serialmux"
	"github.com/banshee-data/arcontrol/internal/steering"
	"github.com/banshee-data/arcontrol/internal/timeutil"
)

var logf = monitoring.Prefixed("drive")

// LineSource delivers raw accelerometer lines. serialmux implementations
// satisfy it.
type LineSource interface {
	Subscribe() (string, chan string)
	Unsubscribe(string)
}

// Recorder persists sessions. *db.DB satisfies it.
type Recorder interface {
	CreateSession(label, source string, alpha float64, startedAt time.Time) (db.Session, error)
	EndSession(id string, endedAt time.Time) error
	RecordSample(sessionID string, p db.TracePoint) error
	RecordCommand(sessionID string, c db.CommandRecord) error
}

// Config wires a Session. Filter is required; the rest have defaults.
type Config struct {
	Filter       *steering.Filter
	Forces       steering.ForceMap
	Clock        timeutil.Clock
	TickInterval time.Duration

	// Recorder is optional. RecordSamples additionally stores every sample;
	// commands are stored whenever they change.
	Recorder      Recorder
	RecordSamples bool
	Label         string
	Source        string
}

// State is a snapshot of the loop for the scene and the API.
type State struct {
	SessionID string                  `json:"session_id,omitempty"`
	Filter    steering.FilterState    `json:"filter"`
	Tilt      float64                 `json:"tilt"`
	Touches   int                     `json:"touches"`
	Command   steering.ControlCommand `json:"command"`
	Samples   uint64                  `json:"samples"`
	Dropped   uint64                  `json:"dropped"`
	Ticks     uint64                  `json:"ticks"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// Session owns the filter state for one vehicle. Samples may arrive from the
// serial line and from HTTP at the same time; the filter serialises them.
type Session struct {
	cfg Config

	touches atomic.Int64
	samples atomic.Uint64
	dropped atomic.Uint64
	ticks   atomic.Uint64

	mu        sync.Mutex
	command   steering.ControlCommand
	updatedAt time.Time
	sessionID string
}

// NewSession validates cfg and fills in defaults.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Filter == nil {
		return nil, errors.New("drive session requires a steering filter")
	}
	if cfg.Forces == (steering.ForceMap{}) {
		cfg.Forces = steering.DefaultForceMap()
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 16 * time.Millisecond
	}
	return &Session{cfg: cfg}, nil
}

// SetTouches records how many fingers are on the screen. It takes effect on
// the next tick.
func (s *Session) SetTouches(n int) {
	s.touches.Store(int64(n))
}

// CommandFor returns the command a tick would publish for n touches.
func (s *Session) CommandFor(n int) steering.ControlCommand {
	return s.cfg.Forces.Command(n)
}

// Touches returns the last touch count.
func (s *Session) Touches() int {
	return int(s.touches.Load())
}

// Ingest folds one sample into the filter and returns the new steering angle.
func (s *Session) Ingest(sample steering.Sample) float64 {
	if sample.Time.IsZero() {
		sample.Time = s.cfg.Clock.Now()
	}
	tilt := s.cfg.Filter.Update(sample)
	s.samples.Add(1)

	s.mu.Lock()
	s.updatedAt = sample.Time
	id := s.sessionID
	s.mu.Unlock()

	if id != "" && s.cfg.RecordSamples {
		state := s.cfg.Filter.State()
		err := s.cfg.Recorder.RecordSample(id, db.TracePoint{
			Time:      sample.Time,
			RawX:      sample.X,
			RawY:      sample.Y,
			FilteredX: state.X,
			FilteredY: state.Y,
			Tilt:      tilt,
		})
		if err != nil {
			logf("failed to record sample: %v", err)
		}
	}
	return tilt
}

// IngestLine parses a raw sensor line and folds it in. Malformed lines are
// counted and rejected without touching the filter.
func (s *Session) IngestLine(line string) (float64, error) {
	sample, err := serialmux.ParseSample(line, s.cfg.Clock.Now())
	if err != nil {
		if n := s.dropped.Add(1); n&(n-1) == 0 {
			logf("dropped %d malformed lines, latest: %v", n, err)
		}
		return 0, err
	}
	return s.Ingest(sample), nil
}

// Tick maps the current touch count to a command and publishes it.
func (s *Session) Tick(now time.Time) steering.ControlCommand {
	touches := s.Touches()
	cmd := s.cfg.Forces.Command(touches)
	s.ticks.Add(1)

	s.mu.Lock()
	changed := cmd != s.command
	s.command = cmd
	s.updatedAt = now
	id := s.sessionID
	s.mu.Unlock()

	if changed && id != "" {
		err := s.cfg.Recorder.RecordCommand(id, db.CommandRecord{Time: now, Touches: touches, Command: cmd})
		if err != nil {
			logf("failed to record command: %v", err)
		}
	}
	return cmd
}

// Command returns the command published by the last tick.
func (s *Session) Command() steering.ControlCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.command
}

// Reset zeroes the filter, for example when the device changes hands.
func (s *Session) Reset() {
	s.cfg.Filter.Reset()
}

// State returns a snapshot of the loop.
func (s *Session) State() State {
	filter := s.cfg.Filter.State()
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		SessionID: s.sessionID,
		Filter:    filter,
		Tilt:      filter.Tilt(),
		Touches:   s.Touches(),
		Command:   s.command,
		Samples:   s.samples.Load(),
		Dropped:   s.dropped.Load(),
		Ticks:     s.ticks.Load(),
		UpdatedAt: s.updatedAt,
	}
}

// ID returns the recorded session id, or "" when not recording.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Run consumes src and ticks until ctx is done or src closes the
// subscription. A recorded session spans exactly one Run.
func (s *Session) Run(ctx context.Context, src LineSource) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	id, lines := src.Subscribe()
	defer src.Unsubscribe(id)

	ticker := s.cfg.Clock.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				logf("sensor subscription closed")
				return nil
			}
			// Malformed lines are counted by IngestLine.
			_, _ = s.IngestLine(line)
		case now := <-ticker.C():
			s.Tick(now)
		}
	}
}

func (s *Session) begin() error {
	if s.cfg.Recorder == nil {
		return nil
	}
	rec, err := s.cfg.Recorder.CreateSession(s.cfg.Label, s.cfg.Source, s.cfg.Filter.Alpha(), s.cfg.Clock.Now())
	if err != nil {
		return fmt.Errorf("failed to start drive session: %w", err)
	}
	s.mu.Lock()
	s.sessionID = rec.ID
	s.mu.Unlock()
	logf("recording session %s", rec.ID)
	return nil
}

func (s *Session) end() {
	s.mu.Lock()
	id := s.sessionID
	s.sessionID = ""
	s.mu.Unlock()
	if id == "" {
		return
	}
	if err := s.cfg.Recorder.EndSession(id, s.cfg.Clock.Now()); err != nil {
		logf("failed to end session %s: %v", id, err)
	}
}
