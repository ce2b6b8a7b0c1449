// Package orbit implements the tracking pipeline: TLE validation and
// parsing, SGP4 propagation, sidereal time, TEME to ECEF rotation and
// geodetic subpoint conversion on the WGS84 ellipsoid.
//
// Everything in this package is a pure function of its inputs. There is
// no hidden state and no lazy initialization, so the same element set
// and timestamp always produce bit-identical output and every entry
// point is safe for concurrent use.
package orbit
