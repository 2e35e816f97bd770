// Package placement computes world-space anchor points in front of the
// camera. Everything here is pure and safe for concurrent use.
package placement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/banshee-data/arcontrol/internal/geom"
)

var (
	ErrNonRigidPose    = errors.New("pose is not a rigid transform")
	ErrInvalidDistance = errors.New("placement distance must be positive and finite")
	ErrUnknownSite     = errors.New("unknown placement site")
	ErrNonFinite       = errors.New("placement result is not finite")
)

// Site names a call site that places markers at its own nominal distance.
type Site string

const (
	// SiteDraw is the drawing brush and pointer.
	SiteDraw Site = "draw"
	// SiteSpawn is where a new vehicle chassis is dropped.
	SiteSpawn Site = "spawn"
	// SiteMeasure is the measuring tape's start anchor.
	SiteMeasure Site = "measure"
)

// Default distances in meters.
const (
	DefaultDrawDistance    = 1.0
	DefaultSpawnDistance   = 1.0
	DefaultMeasureDistance = 0.1
)

// ParseSite converts a user-supplied name into a Site.
func ParseSite(name string) (Site, error) {
	switch s := Site(strings.ToLower(strings.TrimSpace(name))); s {
	case SiteDraw, SiteSpawn, SiteMeasure:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSite, name)
	}
}

// ComputeForwardPoint returns the point distance meters along the camera's
// line of sight. The forward axis is not renormalised, so the offset is
// exactly distance only when the pose is rigid.
func ComputeForwardPoint(pose geom.Pose, distance float64) geom.Vec {
	return geom.Add(pose.Position(), geom.Scale(distance, pose.Forward()))
}

// ForwardTransform returns pose moved distance meters along its own forward
// axis, keeping its orientation. A marker given this transform sits at
// ComputeForwardPoint(pose, distance) and faces the same way as the camera.
func ForwardTransform(pose geom.Pose, distance float64) geom.Pose {
	local := geom.Translation(geom.Scale(distance*geom.ForwardSign, geom.Vec{Z: 1}))
	return pose.Mul(local)
}

// Distances holds the nominal distance per site.
type Distances struct {
	Draw    float64
	Spawn   float64
	Measure float64
}

// DefaultDistances returns the distances the demo apps used.
func DefaultDistances() Distances {
	return Distances{
		Draw:    DefaultDrawDistance,
		Spawn:   DefaultSpawnDistance,
		Measure: DefaultMeasureDistance,
	}
}

// For returns the distance configured for site.
func (d Distances) For(site Site) (float64, error) {
	switch site {
	case SiteDraw:
		return d.Draw, nil
	case SiteSpawn:
		return d.Spawn, nil
	case SiteMeasure:
		return d.Measure, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSite, site)
	}
}

// Calculator wraps ComputeForwardPoint with per-site distances and optional
// input checks. The zero value places nothing useful; use NewCalculator.
type Calculator struct {
	distances Distances
	validate  bool
}

// NewCalculator returns a Calculator. When validate is true, non-rigid poses
// and non-positive distances are rejected instead of being used as-is.
func NewCalculator(d Distances, validate bool) *Calculator {
	return &Calculator{distances: d, validate: validate}
}

// Distances returns the configured site distances.
func (c *Calculator) Distances() Distances {
	return c.distances
}

// Place returns the anchor point for site.
func (c *Calculator) Place(pose geom.Pose, site Site) (geom.Vec, error) {
	d, err := c.distances.For(site)
	if err != nil {
		return geom.Vec{}, err
	}
	return c.PlaceAt(pose, d)
}

// PlaceAt returns the anchor point at an explicit distance. A result that
// overflows to Inf or NaN is reported as ErrNonFinite even when validation
// is off.
func (c *Calculator) PlaceAt(pose geom.Pose, distance float64) (geom.Vec, error) {
	if err := c.check(pose, distance); err != nil {
		return geom.Vec{}, err
	}
	p := ComputeForwardPoint(pose, distance)
	if !geom.IsFinite(p) {
		return geom.Vec{}, fmt.Errorf("%w: %s", ErrNonFinite, geom.FormatVec(p))
	}
	return p, nil
}

// TransformAt returns ForwardTransform with the same checks as PlaceAt.
func (c *Calculator) TransformAt(pose geom.Pose, distance float64) (geom.Pose, error) {
	if err := c.check(pose, distance); err != nil {
		return geom.Pose{}, err
	}
	t := ForwardTransform(pose, distance)
	if !t.IsFinite() {
		return geom.Pose{}, fmt.Errorf("%w: transform", ErrNonFinite)
	}
	return t, nil
}

func (c *Calculator) check(pose geom.Pose, distance float64) error {
	if !c.validate {
		return nil
	}
	if !(distance > 0) || !geom.IsFinite(geom.Vec{X: distance}) {
		return fmt.Errorf("%w: got %v", ErrInvalidDistance, distance)
	}
	if issues := pose.RigidIssues(); len(issues) > 0 {
		return fmt.Errorf("%w: %s", ErrNonRigidPose, strings.Join(issues, "; "))
	}
	return nil
}
