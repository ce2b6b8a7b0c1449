package orbit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// tleLineLen is the fixed length of a NORAD two-line element line.
const tleLineLen = 69

// TLE is a parsed two-line element set. Line1 and Line2 hold the
// original 69-character lines; the remaining fields are decoded from
// the fixed NORAD columns.
type TLE struct {
	Line1 string
	Line2 string

	CatalogNumber  int
	IntlDesignator string
	Epoch          time.Time

	InclinationDeg   float64
	RAANDeg          float64
	Eccentricity     float64
	ArgPerigeeDeg    float64
	MeanAnomalyDeg   float64
	MeanMotionRevDay float64
	BStar            float64
}

// ValidateTLE checks both lines structurally without returning the
// parsed set. All violations wrap ErrMalformedTLE.
func ValidateTLE(line1, line2 string) error {
	_, err := ParseTLE(line1, line2)
	return err
}

// ParseTLE validates and decodes a two-line element set.
//
// Validation is strict on purpose: the SGP4 library terminates the
// process when a column it slices does not parse, so every column it
// will read is parsed here first, with the same whitespace handling
// the library applies. Lines must be exactly 69 characters; callers
// trim line endings before handing lines over.
func ParseTLE(line1, line2 string) (TLE, error) {
	if err := checkLineFrame(1, line1, '1'); err != nil {
		return TLE{}, err
	}
	if err := checkLineFrame(2, line2, '2'); err != nil {
		return TLE{}, err
	}

	cat1, err := parseCatalogNumber(1, line1)
	if err != nil {
		return TLE{}, err
	}
	cat2, err := parseCatalogNumber(2, line2)
	if err != nil {
		return TLE{}, err
	}
	if cat1 != cat2 {
		return TLE{}, fmt.Errorf("%w: catalog number %d on line 1 but %d on line 2", ErrMalformedTLE, cat1, cat2)
	}

	epochYear, err := parseTLEInt(1, "epoch year", line1[18:20])
	if err != nil {
		return TLE{}, err
	}
	epochDays, err := parseTLEFloat(1, "epoch day", line1[20:32])
	if err != nil {
		return TLE{}, err
	}
	if epochDays < 1 || epochDays >= 367 {
		return TLE{}, fmt.Errorf("%w: line 1 epoch day %v out of range", ErrMalformedTLE, epochDays)
	}

	// Drag and derivative columns are signed; the library strips up to
	// two embedded spaces before parsing, so the same form is required
	// here. The second derivative and B* use the implied-decimal
	// exponent notation.
	if _, err := parseTLEFloat(1, "mean motion first derivative", signedField(line1[33:43])); err != nil {
		return TLE{}, err
	}
	if _, err := parseTLEFloat(1, "mean motion second derivative", signedField(impliedDecimal(line1[44:45], line1[45:50], line1[50:52]))); err != nil {
		return TLE{}, err
	}
	bstar, err := parseTLEFloat(1, "B* drag term", signedField(impliedDecimal(line1[53:54], line1[54:59], line1[59:61])))
	if err != nil {
		return TLE{}, err
	}

	incl, err := parseTLEFloat(2, "inclination", signedField(line2[8:16]))
	if err != nil {
		return TLE{}, err
	}
	raan, err := parseTLEFloat(2, "right ascension", signedField(line2[17:25]))
	if err != nil {
		return TLE{}, err
	}
	ecc, err := parseTLEFloat(2, "eccentricity", "."+line2[26:33])
	if err != nil {
		return TLE{}, err
	}
	argp, err := parseTLEFloat(2, "argument of perigee", signedField(line2[34:42]))
	if err != nil {
		return TLE{}, err
	}
	meanAnomaly, err := parseTLEFloat(2, "mean anomaly", signedField(line2[43:51]))
	if err != nil {
		return TLE{}, err
	}
	meanMotion, err := parseTLEFloat(2, "mean motion", signedField(line2[52:63]))
	if err != nil {
		return TLE{}, err
	}

	return TLE{
		Line1:            line1,
		Line2:            line2,
		CatalogNumber:    cat1,
		IntlDesignator:   strings.TrimSpace(line1[9:17]),
		Epoch:            tleEpochTime(epochYear, epochDays),
		InclinationDeg:   incl,
		RAANDeg:          raan,
		Eccentricity:     ecc,
		ArgPerigeeDeg:    argp,
		MeanAnomalyDeg:   meanAnomaly,
		MeanMotionRevDay: meanMotion,
		BStar:            bstar,
	}, nil
}

// checkLineFrame validates length, line number prefix and checksum.
func checkLineFrame(n int, line string, want byte) error {
	if len(line) != tleLineLen {
		return fmt.Errorf("%w: line %d is %d characters, want %d", ErrMalformedTLE, n, len(line), tleLineLen)
	}
	if line[0] != want || line[1] != ' ' {
		return fmt.Errorf("%w: line %d must begin with %q", ErrMalformedTLE, n, string(want)+" ")
	}
	recorded := line[68]
	if recorded < '0' || recorded > '9' {
		return fmt.Errorf("%w: line %d checksum column %q is not a digit", ErrMalformedTLE, n, string(recorded))
	}
	if sum := lineChecksum(line); sum != int(recorded-'0') {
		return fmt.Errorf("%w: line %d checksum mismatch: computed %d, recorded %d", ErrMalformedTLE, n, sum, recorded-'0')
	}
	return nil
}

// lineChecksum computes the NORAD mod-10 checksum over the first 68
// columns: digits add their value, a minus sign adds one, everything
// else adds nothing.
func lineChecksum(line string) int {
	sum := 0
	for i := 0; i < 68; i++ {
		switch ch := line[i]; {
		case ch >= '0' && ch <= '9':
			sum += int(ch - '0')
		case ch == '-':
			sum++
		}
	}
	return sum % 10
}

func parseCatalogNumber(n int, line string) (int, error) {
	raw := strings.TrimSpace(line[2:7])
	num, err := strconv.Atoi(raw)
	if err != nil || num <= 0 {
		return 0, fmt.Errorf("%w: line %d catalog number %q", ErrMalformedTLE, n, line[2:7])
	}
	return num, nil
}

func parseTLEInt(n int, field, raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d %s %q", ErrMalformedTLE, n, field, raw)
	}
	return v, nil
}

func parseTLEFloat(n int, field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d %s %q", ErrMalformedTLE, n, field, raw)
	}
	return v, nil
}

// signedField strips the leading space padding of sign-bearing columns
// the same way the SGP4 library does before parsing.
func signedField(s string) string {
	return strings.Replace(s, " ", "", 2)
}

// impliedDecimal reassembles the TLE exponent notation (±NNNNN±N) into
// a parseable float literal.
func impliedDecimal(sign, mantissa, exponent string) string {
	return sign + "." + mantissa + "e" + exponent
}

// tleEpochTime converts the two-digit year and fractional day of year
// to a UTC instant. Years below 57 are 2000s, the rest 1900s; day 1.0
// is January 1 00:00:00.
func tleEpochTime(yy int, days float64) time.Time {
	year := yy + 1900
	if yy < 57 {
		year = yy + 2000
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration((days - 1) * 24 * float64(time.Hour)))
}
