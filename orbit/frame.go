package orbit

import "math"

// TEMEToECEF rotates a TEME state vector into the Earth-fixed frame by
// the sidereal angle gmst (radians). The velocity picks up the frame
// rotation term -ω×r.
func TEMEToECEF(pos, vel Vec3, gmst float64) (Vec3, Vec3) {
	sinG, cosG := math.Sincos(gmst)

	ecefPos := Vec3{
		X: cosG*pos.X + sinG*pos.Y,
		Y: -sinG*pos.X + cosG*pos.Y,
		Z: pos.Z,
	}

	rotated := Vec3{
		X: cosG*vel.X + sinG*vel.Y,
		Y: -sinG*vel.X + cosG*vel.Y,
		Z: vel.Z,
	}
	omega := Vec3{Z: OmegaEarthRadS}
	ecefVel := rotated.Sub(omega.Cross(ecefPos))

	return ecefPos, ecefVel
}
