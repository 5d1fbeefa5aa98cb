package params

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// simpsonIntervals is the (even) number of sub-intervals used per integral.
const simpsonIntervals = 256

// Optimal picks the (b, r) with b*r <= h that minimises the weighted sum of
// the false positive and false negative probability mass around the
// threshold. Ties keep the smallest b, then the smallest r.
type Optimal struct{}

// Parameterize implements Parameterizer.
func (Optimal) Parameterize(threshold float64, h int, w Weights) (Params, error) {
	if err := validateInputs(threshold, h, w); err != nil {
		return Params{}, err
	}

	// errs[b-1][r-1] holds the weighted error of layout (b, r).
	errs := make([][]float64, h)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for b := 1; b <= h; b++ {
		row := make([]float64, h/b)
		errs[b-1] = row
		g.Go(func() error {
			for r := 1; r <= len(row); r++ {
				fp := FalsePositive(threshold, b, r)
				fn := FalseNegative(threshold, b, r)
				row[r-1] = fp*w.FalsePositive + fn*w.FalseNegative
			}
			return nil
		})
	}
	_ = g.Wait()

	best, bestB, bestR := math.Inf(1), 0, 0
	for b, row := range errs {
		for r, e := range row {
			if e < best {
				best, bestB, bestR = e, b+1, r+1
			}
		}
	}
	return New(bestB, bestR), nil
}

// FalsePositive is the probability mass of pairs below threshold that still
// share at least one band: the integral over [0, threshold] of 1-(1-s^r)^b.
func FalsePositive(threshold float64, b, r int) float64 {
	fb, fr := float64(b), float64(r)
	return simpson(func(s float64) float64 {
		return 1 - math.Pow(1-math.Pow(s, fr), fb)
	}, 0, threshold)
}

// FalseNegative is the probability mass of pairs above threshold that share
// no band: the integral over [threshold, 1] of (1-s^r)^b.
func FalseNegative(threshold float64, b, r int) float64 {
	fb, fr := float64(b), float64(r)
	return simpson(func(s float64) float64 {
		return math.Pow(1-math.Pow(s, fr), fb)
	}, threshold, 1)
}

func simpson(f func(float64) float64, a, b float64) float64 {
	if b <= a {
		return 0
	}
	step := (b - a) / simpsonIntervals
	sum := f(a) + f(b)
	for i := 1; i < simpsonIntervals; i++ {
		x := a + float64(i)*step
		if i%2 == 1 {
			sum += 4 * f(x)
		} else {
			sum += 2 * f(x)
		}
	}
	return sum * step / 3
}
