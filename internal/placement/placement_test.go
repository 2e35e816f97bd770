package placement

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/arcontrol/internal/geom"
)

func TestComputeForwardPointIdentity(t *testing.T) {
	got := ComputeForwardPoint(geom.Identity(), 1.0)
	assert.InDelta(t, 0, got.X, 1e-12)
	assert.InDelta(t, 0, got.Y, 1e-12)
	assert.InDelta(t, -1, got.Z, 1e-12)
}

func TestComputeForwardPointFlippedCamera(t *testing.T) {
	// Raw third column (0, 0, -1): the camera faces +Z.
	pose := geom.FromBasis(geom.Vec{X: -1}, geom.Vec{Y: 1}, geom.Vec{Z: -1}, geom.Vec{})
	require.True(t, pose.IsRigid())

	got := ComputeForwardPoint(pose, 1.0)
	assert.Equal(t, geom.Vec{X: 0, Y: 0, Z: 1}, got)
}

func TestComputeForwardPointMatchesDefinition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		axis := geom.Vec{X: rng.Float64() - 0.5, Y: rng.Float64() - 0.5, Z: rng.Float64() - 0.5}
		if geom.Norm(axis) < 1e-3 {
			continue
		}
		pos := geom.Vec{X: rng.Float64()*10 - 5, Y: rng.Float64()*10 - 5, Z: rng.Float64()*10 - 5}
		pose := geom.Translation(pos).Mul(geom.Rotation(rng.Float64()*2*math.Pi, axis))
		d := 0.05 + rng.Float64()*2

		got := ComputeForwardPoint(pose, d)
		want := geom.Add(pos, geom.Scale(d, pose.Forward()))
		assert.Equal(t, want, got)
		assert.InDelta(t, d, geom.Distance(got, pos), 1e-9)
	}
}

func TestComputeForwardPointIsDeterministic(t *testing.T) {
	pose := geom.Translation(geom.Vec{X: 0.3, Y: 1.4, Z: -2}).Mul(geom.Rotation(0.9, geom.Vec{X: 1, Y: 2, Z: 0.5}))
	a := ComputeForwardPoint(pose, 0.37)
	b := ComputeForwardPoint(pose, 0.37)
	assert.Equal(t, math.Float64bits(a.X), math.Float64bits(b.X))
	assert.Equal(t, math.Float64bits(a.Y), math.Float64bits(b.Y))
	assert.Equal(t, math.Float64bits(a.Z), math.Float64bits(b.Z))
}

func TestComputeForwardPointNonRigid(t *testing.T) {
	// Uniform scale of 2 doubles the offset; the function does not correct it.
	pose := geom.Pose{2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 1}
	got := ComputeForwardPoint(pose, 1)
	assert.InDelta(t, 2.0, geom.Norm(got), 1e-12)
}

func TestForwardTransform(t *testing.T) {
	pose := geom.Translation(geom.Vec{X: 1, Y: 1.5, Z: 0}).Mul(geom.Rotation(0.4, geom.Vec{Y: 1}))
	tr := ForwardTransform(pose, 0.1)

	want := ComputeForwardPoint(pose, 0.1)
	got := tr.Position()
	assert.InDelta(t, want.X, got.X, 1e-12)
	assert.InDelta(t, want.Y, got.Y, 1e-12)
	assert.InDelta(t, want.Z, got.Z, 1e-12)

	for k := 0; k < 3; k++ {
		assert.Equal(t, pose.Column(k), tr.Column(k), "orientation column %d", k)
	}
}

func TestCalculator(t *testing.T) {
	rigid := geom.Translation(geom.Vec{Y: 1})
	scaled := geom.Pose{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 3, 0, 0, 0, 0, 1}

	tests := []struct {
		name     string
		validate bool
		pose     geom.Pose
		site     Site
		want     geom.Vec
		wantErr  error
	}{
		{"draw", true, rigid, SiteDraw, geom.Vec{Y: 1, Z: -1}, nil},
		{"spawn", true, rigid, SiteSpawn, geom.Vec{Y: 1, Z: -1}, nil},
		{"measure", true, rigid, SiteMeasure, geom.Vec{Y: 1, Z: -0.1}, nil},
		{"unknown site", true, rigid, Site("nope"), geom.Vec{}, ErrUnknownSite},
		{"non rigid rejected", true, scaled, SiteDraw, geom.Vec{}, ErrNonRigidPose},
		{"non rigid passed through", false, scaled, SiteDraw, geom.Vec{Z: -3}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCalculator(DefaultDistances(), tt.validate)
			got, err := c.Place(tt.pose, tt.site)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want.X, got.X, 1e-12)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-12)
			assert.InDelta(t, tt.want.Z, got.Z, 1e-12)
		})
	}
}

func TestCalculatorRejectsBadDistance(t *testing.T) {
	c := NewCalculator(DefaultDistances(), true)
	for _, d := range []float64{0, -0.5, math.NaN(), math.Inf(1)} {
		_, err := c.PlaceAt(geom.Identity(), d)
		assert.ErrorIs(t, err, ErrInvalidDistance, "distance %v", d)
		_, err = c.TransformAt(geom.Identity(), d)
		assert.ErrorIs(t, err, ErrInvalidDistance, "distance %v", d)
	}
}

func TestCalculatorRejectsOverflow(t *testing.T) {
	// Rigid, but far enough down -Z that one more step overflows.
	huge := geom.Translation(geom.Vec{Z: -1.7e308})

	for _, validate := range []bool{false, true} {
		c := NewCalculator(DefaultDistances(), validate)
		_, err := c.PlaceAt(huge, 1e308)
		assert.ErrorIs(t, err, ErrNonFinite, "validate=%v", validate)
		_, err = c.TransformAt(huge, 1e308)
		assert.ErrorIs(t, err, ErrNonFinite, "validate=%v", validate)
	}

	c := NewCalculator(DefaultDistances(), false)
	_, err := c.PlaceAt(geom.Identity(), math.Inf(1))
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestParseSite(t *testing.T) {
	s, err := ParseSite(" Draw ")
	require.NoError(t, err)
	assert.Equal(t, SiteDraw, s)

	_, err = ParseSite("portal")
	assert.ErrorIs(t, err, ErrUnknownSite)
}

func TestStroke(t *testing.T) {
	s := NewStroke(1)
	pose := geom.Identity()

	p, drawn := s.Tick(pose, false)
	assert.False(t, drawn)
	assert.Equal(t, p, s.Pointer())
	assert.Empty(t, s.Points())

	s.Tick(pose, true)
	s.Tick(geom.Translation(geom.Vec{X: 0.1}), true)
	pts := s.Points()
	require.Len(t, pts, 2)
	assert.InDelta(t, 0.1, pts[1].X, 1e-12)

	s.Clear()
	assert.Empty(t, s.Points())
}
