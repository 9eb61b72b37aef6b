package geom

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b Vec3) bool {
	return math.Abs(a.X-b.X) < epsilon &&
		math.Abs(a.Y-b.Y) < epsilon &&
		math.Abs(a.Z-b.Z) < epsilon
}

func TestNormalize(t *testing.T) {
	v := Vec3{3, 4, 0}.Normalize()
	if math.Abs(v.Norm()-1.0) > epsilon {
		t.Errorf("expected unit length, got %f", v.Norm())
	}
	if !almostEqual(v, (Vec3{0.6, 0.8, 0})) {
		t.Errorf("unexpected normalized vector: %+v", v)
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Vec3{}.Normalize()
	if v != (Vec3{}) {
		t.Errorf("zero vector should normalize to itself, got %+v", v)
	}
}

func TestCrossRightHanded(t *testing.T) {
	x := Vec3{X: 1}
	y := Vec3{Y: 1}
	z := x.Cross(y)
	if !almostEqual(z, (Vec3{Z: 1})) {
		t.Errorf("expected X cross Y = Z, got %+v", z)
	}
}

func TestIdentityApply(t *testing.T) {
	v := Vec3{1, 2, 3}
	got := Identity().Apply(v)
	if got != v {
		t.Errorf("identity rotation changed vector: %+v", got)
	}
}

func TestIdentityForward(t *testing.T) {
	fwd := Identity().Forward()
	if fwd != (Vec3{Z: 1}) {
		t.Errorf("expected forward +Z, got %+v", fwd)
	}
}

func TestLookRotationForward(t *testing.T) {
	cases := []Vec3{
		{Z: 1},
		{X: 1},
		{X: 1, Z: 1},
		{X: 0.3, Y: -0.2, Z: 0.9},
	}
	for _, dir := range cases {
		r := LookRotation(dir, Vec3{Y: 1})
		want := dir.Normalize()
		if !almostEqual(r.Forward(), want) {
			t.Errorf("LookRotation(%+v): forward %+v, want %+v", dir, r.Forward(), want)
		}
		if !IsValidRotation(r) {
			t.Errorf("LookRotation(%+v) is not a proper rotation", dir)
		}
	}
}

func TestLookRotationDegenerateUp(t *testing.T) {
	// dir parallel to up must still yield an orthonormal basis
	r := LookRotation(Vec3{Y: 1}, Vec3{Y: 1})
	if !IsValidRotation(r) {
		t.Error("expected valid rotation for dir parallel to up")
	}
	if !almostEqual(r.Forward(), (Vec3{Y: 1})) {
		t.Errorf("forward should still be +Y, got %+v", r.Forward())
	}
}

func TestLookRotationPreservesLength(t *testing.T) {
	r := LookRotation(Vec3{X: 1, Y: 2, Z: 3}, Vec3{Y: 1})
	v := Vec3{-0.4, 0.7, 1.3}
	got := r.Apply(v).Norm()
	if math.Abs(got-v.Norm()) > epsilon {
		t.Errorf("rotation changed vector length: %f vs %f", got, v.Norm())
	}
}

func TestPoseForward(t *testing.T) {
	p := Pose{Origin: Vec3{X: 5}, R: LookRotation(Vec3{X: 1}, Vec3{Y: 1})}
	if !almostEqual(p.Forward(), (Vec3{X: 1})) {
		t.Errorf("expected pose forward +X, got %+v", p.Forward())
	}
}
