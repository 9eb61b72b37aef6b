package scan

import (
	"math"

	"github.com/ln6000/lidar-unity/internal/geom"
)

// Hit describes a ray/scene intersection.
type Hit struct {
	Point    geom.Vec3
	Normal   geom.Vec3
	Distance float64
}

// RayOracle answers spatial intersection queries. The scan core only calls
// it; a miss is a normal outcome, not an error.
type RayOracle interface {
	// Cast intersects a ray with the scene. dir must be unit length. Only
	// surfaces whose layer mask overlaps mask are considered. Returns
	// false when nothing is hit within maxRange.
	Cast(origin, dir geom.Vec3, maxRange float64, mask uint32) (Hit, bool)
}

// MaskAll matches every scene layer.
const MaskAll uint32 = 0xFFFFFFFF

// Plane is an infinite plane through Point with the given outward Normal.
type Plane struct {
	Point  geom.Vec3
	Normal geom.Vec3
	Mask   uint32
}

// Sphere is a solid sphere.
type Sphere struct {
	Center geom.Vec3
	Radius float64
	Mask   uint32
}

// Box is an axis-aligned box.
type Box struct {
	Min, Max geom.Vec3
	Mask     uint32
}

// Scene is an analytic RayOracle over planes, spheres and axis-aligned
// boxes. The nearest hit within range wins.
type Scene struct {
	Planes  []Plane
	Spheres []Sphere
	Boxes   []Box
}

// Cast implements RayOracle.
func (sc *Scene) Cast(origin, dir geom.Vec3, maxRange float64, mask uint32) (Hit, bool) {
	best := Hit{Distance: maxRange}
	found := false

	for _, p := range sc.Planes {
		if p.Mask&mask == 0 {
			continue
		}
		if h, ok := castPlane(origin, dir, p); ok && h.Distance < best.Distance {
			best = h
			found = true
		}
	}
	for _, s := range sc.Spheres {
		if s.Mask&mask == 0 {
			continue
		}
		if h, ok := castSphere(origin, dir, s); ok && h.Distance < best.Distance {
			best = h
			found = true
		}
	}
	for _, b := range sc.Boxes {
		if b.Mask&mask == 0 {
			continue
		}
		if h, ok := castBox(origin, dir, b); ok && h.Distance < best.Distance {
			best = h
			found = true
		}
	}

	return best, found
}

func castPlane(origin, dir geom.Vec3, p Plane) (Hit, bool) {
	n := p.Normal.Normalize()
	denom := dir.Dot(n)
	if math.Abs(denom) < 1e-9 {
		return Hit{}, false
	}
	t := p.Point.Sub(origin).Dot(n) / denom
	if t <= 0 {
		return Hit{}, false
	}
	normal := n
	if denom > 0 {
		normal = n.Scale(-1) // hit the back face; report the facing normal
	}
	return Hit{
		Point:    origin.Add(dir.Scale(t)),
		Normal:   normal,
		Distance: t,
	}, true
}

func castSphere(origin, dir geom.Vec3, s Sphere) (Hit, bool) {
	oc := origin.Sub(s.Center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - s.Radius*s.Radius
	disc := b*b - c
	if disc < 0 {
		return Hit{}, false
	}
	sqrtDisc := math.Sqrt(disc)
	t := -b - sqrtDisc
	if t <= 0 {
		t = -b + sqrtDisc // origin inside the sphere
	}
	if t <= 0 {
		return Hit{}, false
	}
	point := origin.Add(dir.Scale(t))
	return Hit{
		Point:    point,
		Normal:   point.Sub(s.Center).Normalize(),
		Distance: t,
	}, true
}

// castBox uses the slab method; the hit normal is the axis of the entry
// slab, signed away from the ray.
func castBox(origin, dir geom.Vec3, b Box) (Hit, bool) {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)
	normal := geom.Vec3{}

	axes := [3]struct {
		o, d, lo, hi float64
		n            geom.Vec3
	}{
		{origin.X, dir.X, b.Min.X, b.Max.X, geom.Vec3{X: 1}},
		{origin.Y, dir.Y, b.Min.Y, b.Max.Y, geom.Vec3{Y: 1}},
		{origin.Z, dir.Z, b.Min.Z, b.Max.Z, geom.Vec3{Z: 1}},
	}

	for _, a := range axes {
		if a.d == 0 {
			if a.o < a.lo || a.o > a.hi {
				return Hit{}, false
			}
			continue
		}
		t1 := (a.lo - a.o) / a.d
		t2 := (a.hi - a.o) / a.d
		n := a.n.Scale(-sign(a.d))
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
			normal = n
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return Hit{}, false
		}
	}

	t := tmin
	if t <= 0 {
		return Hit{}, false
	}
	return Hit{
		Point:    origin.Add(dir.Scale(t)),
		Normal:   normal,
		Distance: t,
	}, true
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
