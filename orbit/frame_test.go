package orbit

import (
	"math"
	"testing"
)

func TestTEMEToECEFZeroAngle(t *testing.T) {
	pos := Vec3{X: 7000, Y: 100, Z: -200}
	gotPos, _ := TEMEToECEF(pos, Vec3{}, 0)
	if gotPos != pos {
		t.Fatalf("expected identity rotation at gmst=0, got %+v", gotPos)
	}
}

func TestTEMEToECEFQuarterTurn(t *testing.T) {
	pos := Vec3{X: 7000, Y: 0, Z: 42}
	gotPos, _ := TEMEToECEF(pos, Vec3{}, math.Pi/2)

	// A quarter sidereal turn maps +X onto -Y.
	if math.Abs(gotPos.X) > 1e-9 {
		t.Fatalf("expected X ~ 0, got %v", gotPos.X)
	}
	if math.Abs(gotPos.Y+7000) > 1e-9 {
		t.Fatalf("expected Y ~ -7000, got %v", gotPos.Y)
	}
	if gotPos.Z != 42 {
		t.Fatalf("expected Z unchanged, got %v", gotPos.Z)
	}
}

func TestTEMEToECEFPreservesRadius(t *testing.T) {
	pos := Vec3{X: 1234.5, Y: -6543.2, Z: 987.6}
	for _, gmst := range []float64{0.1, 1.0, 2.5, 4.0, 6.2} {
		gotPos, _ := TEMEToECEF(pos, Vec3{}, gmst)
		if math.Abs(gotPos.Norm()-pos.Norm()) > 1e-9 {
			t.Fatalf("rotation at %v changed the radius: %v -> %v", gmst, pos.Norm(), gotPos.Norm())
		}
	}
}

func TestTEMEToECEFVelocityCorotation(t *testing.T) {
	// A point on the equator moving exactly with the Earth's rotation
	// is stationary in the Earth-fixed frame.
	r := 42164.0
	pos := Vec3{X: r}
	vel := Vec3{Y: OmegaEarthRadS * r}

	_, gotVel := TEMEToECEF(pos, vel, 0)
	if gotVel.Norm() > 1e-9 {
		t.Fatalf("expected co-rotating point to be fixed in ECEF, residual %v km/s", gotVel.Norm())
	}
}
