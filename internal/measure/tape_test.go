package measure

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/arcontrol/internal/geom"
)

func TestMeasureWithoutStart(t *testing.T) {
	tape := NewTape(0.1)
	_, err := tape.Measure(geom.Identity())
	assert.ErrorIs(t, err, ErrNoStart)
	_, ok := tape.StartPoint()
	assert.False(t, ok)
}

func TestToggle(t *testing.T) {
	tape := NewTape(0.1)
	assert.True(t, tape.Toggle(geom.Identity()))
	p, ok := tape.StartPoint()
	require.True(t, ok)
	assert.InDelta(t, -0.1, p.Z, 1e-12)

	assert.False(t, tape.Toggle(geom.Identity()))
	_, ok = tape.StartPoint()
	assert.False(t, ok)
}

func TestMeasure(t *testing.T) {
	tape := NewTape(0.1)
	tape.Start(geom.Identity())

	// Step back 0.3 m and up 0.4 m from the camera's starting point.
	m, err := tape.Measure(geom.Translation(geom.Vec{Y: 0.4, Z: 0.3}))
	require.NoError(t, err)

	want := Measurement{DX: 0, DY: 0.4, DZ: 0.4, Distance: 0.565685424949238}
	if diff := cmp.Diff(want, m, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Measure mismatch (-want +got):\n%s", diff)
	}

	labels := m.Format("m")
	assert.Equal(t, Labels{X: "0.00m", Y: "0.40m", Z: "0.40m", Distance: "0.57m"}, labels)
	assert.Equal(t, "56.57cm", m.Format("cm").Distance)
}

func TestStartFollowsCameraOrientation(t *testing.T) {
	tape := NewTape(0.1)
	pose := geom.Translation(geom.Vec{X: 2}).Mul(geom.Rotation(geom.DegToRad(90), geom.Vec{Y: 1}))
	marker := tape.Start(pose)

	assert.InDelta(t, 1.9, marker.Position().X, 1e-12)
	assert.Equal(t, pose.Column(2), marker.Column(2))

	tape.Clear()
	_, ok := tape.StartPoint()
	assert.False(t, ok)
}
