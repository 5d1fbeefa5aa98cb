// Package params derives the banding layout of a MinHash LSH index: the
// number of bands b, the rows per band r and the b contiguous signature
// ranges. The core index consumes the result as immutable configuration.
package params

import (
	"errors"
	"fmt"
	"math"

	"github.com/viant/sqlite-lsh/band"
)

// ErrInvalidParams is returned for out-of-range thresholds, weights or band
// layouts.
var ErrInvalidParams = errors.New("params: invalid parameters")

// Weights trades false positives against false negatives. Both lie in [0,1]
// and they sum to 1.
type Weights struct {
	FalsePositive float64 `yaml:"falsePositive"`
	FalseNegative float64 `yaml:"falseNegative"`
}

// DefaultWeights weighs both error kinds equally.
var DefaultWeights = Weights{FalsePositive: 0.5, FalseNegative: 0.5}

// Validate checks the weight constraints.
func (w Weights) Validate() error {
	if w.FalsePositive < 0 || w.FalsePositive > 1 || w.FalseNegative < 0 || w.FalseNegative > 1 {
		return fmt.Errorf("%w: weights must be in [0, 1], got (%v, %v)", ErrInvalidParams, w.FalsePositive, w.FalseNegative)
	}
	if math.Abs(w.FalsePositive+w.FalseNegative-1) > 1e-9 {
		return fmt.Errorf("%w: weights must sum to 1, got %v", ErrInvalidParams, w.FalsePositive+w.FalseNegative)
	}
	return nil
}

// Params is a banding layout. When B*R is less than the signature length the
// trailing positions are never read.
type Params struct {
	B      int
	R      int
	Ranges []band.Range
}

// New returns the layout of b contiguous bands of r rows, starting at
// position 0.
func New(b, r int) Params {
	ranges := make([]band.Range, b)
	for i := range ranges {
		ranges[i] = band.Range{Start: i * r, End: (i + 1) * r}
	}
	return Params{B: b, R: r, Ranges: ranges}
}

// Validate checks p against signature length h.
func (p Params) Validate(h int) error {
	if p.B < 1 || p.R < 1 {
		return fmt.Errorf("%w: b and r must be positive, got b=%d r=%d", ErrInvalidParams, p.B, p.R)
	}
	if p.B*p.R > h {
		return fmt.Errorf("%w: b*r = %d exceeds signature length %d", ErrInvalidParams, p.B*p.R, h)
	}
	if len(p.Ranges) != p.B {
		return fmt.Errorf("%w: %d ranges for %d bands", ErrInvalidParams, len(p.Ranges), p.B)
	}
	for _, r := range p.Ranges {
		if err := r.Validate(h); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
	}
	return nil
}

// Parameterizer computes the banding layout for a similarity threshold,
// signature length h and error weighting.
type Parameterizer interface {
	Parameterize(threshold float64, h int, w Weights) (Params, error)
}

// Fixed returns an explicit layout, ignoring threshold and weights.
type Fixed struct {
	B int
	R int
}

// Parameterize implements Parameterizer.
func (f Fixed) Parameterize(threshold float64, h int, w Weights) (Params, error) {
	if err := validateInputs(threshold, h, w); err != nil {
		return Params{}, err
	}
	p := New(f.B, f.R)
	if err := p.Validate(h); err != nil {
		return Params{}, err
	}
	return p, nil
}

func validateInputs(threshold float64, h int, w Weights) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: threshold must be in [0.0, 1.0], got %v", ErrInvalidParams, threshold)
	}
	if h < 2 {
		return fmt.Errorf("%w: signature length must be at least 2, got %d", ErrInvalidParams, h)
	}
	return w.Validate()
}
