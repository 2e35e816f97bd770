package serialmux

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/arcontrol/internal/steering"
)

// ErrMalformedSample is wrapped by every ParseSample failure.
var ErrMalformedSample = errors.New("malformed accelerometer sample")

const (
	EventTypeSample  = "sample"
	EventTypeStatus  = "status"
	EventTypeUnknown = "unknown"
)

// ClassifyPayload inspects a line from the device and returns a coarse event
// type. Status lines are the device's replies to commands ("OK", "ERR ...",
// "RATE=60").
func ClassifyPayload(payload string) string {
	p := strings.TrimSpace(payload)
	switch {
	case p == "":
		return EventTypeUnknown
	case strings.HasPrefix(p, "{"):
		if strings.Contains(p, `"x"`) {
			return EventTypeSample
		}
		return EventTypeStatus
	case p == "OK", strings.HasPrefix(p, "ERR"), strings.Contains(p, "="):
		return EventTypeStatus
	case strings.Contains(p, ","):
		return EventTypeSample
	}
	return EventTypeUnknown
}

type jsonSample struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// ParseSample decodes one sample line, either "x,y" (a trailing z column is
// ignored) or {"x":..,"y":..}. The returned sample is stamped with at.
func ParseSample(line string, at time.Time) (steering.Sample, error) {
	line = strings.TrimSpace(line)
	var x, y float64

	if strings.HasPrefix(line, "{") {
		var js jsonSample
		if err := json.Unmarshal([]byte(line), &js); err != nil {
			return steering.Sample{}, fmt.Errorf("%w: %v", ErrMalformedSample, err)
		}
		if js.X == nil || js.Y == nil {
			return steering.Sample{}, fmt.Errorf("%w: missing x or y in %q", ErrMalformedSample, line)
		}
		x, y = *js.X, *js.Y
	} else {
		fields := strings.Split(line, ",")
		if len(fields) < 2 || len(fields) > 3 {
			return steering.Sample{}, fmt.Errorf("%w: want 2 or 3 fields, got %d in %q", ErrMalformedSample, len(fields), line)
		}
		var err error
		if x, err = strconv.ParseFloat(strings.TrimSpace(fields[0]), 64); err != nil {
			return steering.Sample{}, fmt.Errorf("%w: x: %v", ErrMalformedSample, err)
		}
		if y, err = strconv.ParseFloat(strings.TrimSpace(fields[1]), 64); err != nil {
			return steering.Sample{}, fmt.Errorf("%w: y: %v", ErrMalformedSample, err)
		}
	}

	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return steering.Sample{}, fmt.Errorf("%w: non-finite value in %q", ErrMalformedSample, line)
	}
	return steering.Sample{X: x, Y: y, Time: at}, nil
}
