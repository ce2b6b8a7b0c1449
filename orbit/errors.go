package orbit

import "errors"

var (
	// ErrMalformedTLE reports a TLE that fails structural validation:
	// wrong length, bad line prefix, checksum mismatch, mismatched
	// catalog numbers or an unparseable field.
	ErrMalformedTLE = errors.New("malformed TLE")

	// ErrInvalidElements reports an element set the SGP4 model rejects
	// at initialization.
	ErrInvalidElements = errors.New("invalid orbital elements")

	// ErrOrbitDecayed reports a propagation whose position fell below
	// the valid orbital regime, i.e. the object has reentered.
	ErrOrbitDecayed = errors.New("orbit decayed")

	// ErrNumericalInstability reports non-finite or absurd propagator
	// output that cannot be attributed to decay.
	ErrNumericalInstability = errors.New("propagation numerically unstable")

	// ErrNoConvergence reports a geodetic conversion whose iteration
	// failed to settle within the iteration cap.
	ErrNoConvergence = errors.New("geodetic conversion did not converge")
)
