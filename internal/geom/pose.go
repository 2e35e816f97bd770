package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ForwardSign turns the third basis column of a camera pose into the
// direction the lens faces. Poses are right-handed and the camera looks down
// its local -Z axis, so that column points backwards.
const ForwardSign = -1.0

// RigidTolerance is the tolerance used by IsRigid for orthonormality,
// determinant and homogeneous row checks.
const RigidTolerance = 1e-3

// Pose is a 4x4 homogeneous transform stored row-major:
// m00,m01,m02,m03, m10,... Points are column vectors, so the translation
// lives in elements 3, 7 and 11 and basis column k in elements k, 4+k, 8+k.
type Pose [16]float64

// Identity returns the identity pose.
func Identity() Pose {
	return Pose{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation returns a pure translation by v.
func Translation(v Vec) Pose {
	p := Identity()
	p[3], p[7], p[11] = v.X, v.Y, v.Z
	return p
}

// Rotation returns a pure rotation of angle radians about axis.
func Rotation(angle float64, axis Vec) Pose {
	rot := r3.NewRotation(angle, axis)
	x := rot.Rotate(Vec{X: 1})
	y := rot.Rotate(Vec{Y: 1})
	z := rot.Rotate(Vec{Z: 1})
	return FromBasis(x, y, z, Vec{})
}

// FromQuat builds a pose from a unit orientation quaternion and a position,
// the form tracking frameworks usually report. q is normalised first; a zero
// quaternion yields a non-finite pose.
func FromQuat(q quat.Number, t Vec) Pose {
	q = quat.Scale(1/quat.Abs(q), q)
	rotate := func(v Vec) Vec {
		r := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
		return Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
	}
	return FromBasis(rotate(Vec{X: 1}), rotate(Vec{Y: 1}), rotate(Vec{Z: 1}), t)
}

// FromBasis builds a pose from three basis columns and a translation.
func FromBasis(x, y, z, t Vec) Pose {
	return Pose{
		x.X, y.X, z.X, t.X,
		x.Y, y.Y, z.Y, t.Y,
		x.Z, y.Z, z.Z, t.Z,
		0, 0, 0, 1,
	}
}

// Position returns the translation column.
func (p Pose) Position() Vec {
	return Vec{X: p[3], Y: p[7], Z: p[11]}
}

// Column returns basis column k (0, 1 or 2).
func (p Pose) Column(k int) Vec {
	return Vec{X: p[k], Y: p[4+k], Z: p[8+k]}
}

// Forward returns the direction the camera looks along.
func (p Pose) Forward() Vec {
	return Scale(ForwardSign, p.Column(2))
}

// Apply transforms the point v by p.
func (p Pose) Apply(v Vec) Vec {
	return Vec{
		X: p[0]*v.X + p[1]*v.Y + p[2]*v.Z + p[3],
		Y: p[4]*v.X + p[5]*v.Y + p[6]*v.Z + p[7],
		Z: p[8]*v.X + p[9]*v.Y + p[10]*v.Z + p[11],
	}
}

// Mul returns p*q, i.e. q applied first.
func (p Pose) Mul(q Pose) Pose {
	var out Pose
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += p[r*4+k] * q[k*4+c]
			}
			out[r*4+c] = sum
		}
	}
	return out
}

// IsFinite reports whether every element of p is finite.
func (p Pose) IsFinite() bool {
	for _, v := range p {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

// IsRigid reports whether p is a proper rigid transform: orthonormal
// rotation block with determinant 1 and a last row of [0 0 0 1].
func (p Pose) IsRigid() bool {
	return len(p.RigidIssues()) == 0
}

// RigidIssues lists every reason p fails to be a rigid transform.
func (p Pose) RigidIssues() []string {
	var issues []string
	if !p.IsFinite() {
		return append(issues, "pose contains NaN or infinite values")
	}

	cols := [3]Vec{p.Column(0), p.Column(1), p.Column(2)}
	for i, c := range cols {
		if n := Norm(c); math.Abs(n-1) > RigidTolerance {
			issues = append(issues, fmt.Sprintf("basis column %d has length %.4f", i, n))
		}
	}
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if d := r3.Dot(cols[i], cols[j]); math.Abs(d) > RigidTolerance {
				issues = append(issues, fmt.Sprintf("basis columns %d and %d are not orthogonal (dot %.4f)", i, j, d))
			}
		}
	}

	// Determinant of the rotation block; -1 means a reflection.
	det := r3.Dot(cols[0], r3.Cross(cols[1], cols[2]))
	if math.Abs(det-1) > RigidTolerance {
		issues = append(issues, fmt.Sprintf("rotation determinant is %.4f, want 1", det))
	}

	if p[12] != 0 || p[13] != 0 || p[14] != 0 || math.Abs(p[15]-1) > RigidTolerance {
		issues = append(issues, "last row is not [0 0 0 1]")
	}
	return issues
}

// PlaneAnchorPose places a flat plane node on a detected horizontal anchor.
// Plane geometry faces the camera by default, so it is tipped 90 degrees
// about X, and the anchor's z is mirrored into the node's frame.
func PlaneAnchorPose(center Vec) Pose {
	rot := Rotation(DegToRad(90), Vec{X: 1})
	return Translation(Vec{X: center.X, Y: center.Y, Z: -center.Z}).Mul(rot)
}
