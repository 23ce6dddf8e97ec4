package source

import (
	"math"
	"math/rand"
)

// poissonSample draws a single sample from a Poisson distribution with the
// given mean, using Knuth's algorithm. No third-party statistics library
// appears anywhere in the reference corpus, so this narrow numerical
// primitive is hand-rolled rather than imported.
func poissonSample(rng *rand.Rand, mean float64) int {
	if mean <= 0 {
		return 0
	}
	l := math.Exp(-mean)
	k := 0
	p := 1.0
	for {
		k++
		p *= rng.Float64()
		if p <= l {
			break
		}
	}
	return k - 1
}
