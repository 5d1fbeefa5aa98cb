package band

import "fmt"

// Range is a half-open [Start, End) span of signature positions.
type Range struct {
	Start int
	End   int
}

// Len returns the number of rows in the band.
func (r Range) Len() int { return r.End - r.Start }

// Validate checks that r is a non-empty span inside a signature of length h.
func (r Range) Validate(h int) error {
	if r.Start < 0 || r.End <= r.Start || r.End > h {
		return fmt.Errorf("band: range [%d, %d) out of bounds for signature length %d", r.Start, r.End, h)
	}
	return nil
}

func (r Range) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }
