package scan

import (
	"math"
	"math/rand"

	"github.com/ln6000/lidar-unity/internal/geom"
)

// ConeSampler generates ray directions by independently perturbing yaw and
// pitch within a fixed angular half-width around the sensor's forward axis.
// Independent uniform sampling on the two axes approximates sensor noise
// cheaply and avoids the banding artifacts of a fixed scan grid.
type ConeSampler struct {
	halfAngleRad float64
	rng          *rand.Rand
}

// NewConeSampler creates a sampler for the given full cone angle in
// degrees. rng may be nil, in which case an unseeded source is used;
// tests pass a seeded source for determinism.
func NewConeSampler(coneAngleDeg float64, rng *rand.Rand) *ConeSampler {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &ConeSampler{
		halfAngleRad: coneAngleDeg / 2.0 * math.Pi / 180.0,
		rng:          rng,
	}
}

// Sample returns a world-space unit direction for the next ray given the
// sensor's orientation. With a zero cone angle the result is exactly the
// sensor's forward direction.
func (cs *ConeSampler) Sample(orientation geom.Rotation) geom.Vec3 {
	return orientation.Apply(cs.sampleLocal())
}

// sampleLocal draws two independent uniform offsets in
// [-halfAngle, +halfAngle] for the horizontal and vertical axes and maps
// them onto a sensor-local unit direction (X=right, Y=up, Z=forward).
func (cs *ConeSampler) sampleLocal() geom.Vec3 {
	h := cs.uniformOffset()
	v := cs.uniformOffset()
	local := geom.Vec3{
		X: math.Sin(h),
		Y: math.Sin(v),
		Z: math.Cos(h) * math.Cos(v),
	}
	return local.Normalize()
}

func (cs *ConeSampler) uniformOffset() float64 {
	if cs.halfAngleRad == 0 {
		return 0
	}
	return (cs.rng.Float64()*2.0 - 1.0) * cs.halfAngleRad
}
