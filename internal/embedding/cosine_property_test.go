package embedding

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Cosine similarity must always land in [-1, 1] and must be symmetric,
// regardless of the vectors fed to it — the two invariants every caller
// (fast-path discovery, recall fusion, consolidation merge) silently relies on.
func TestProperty_Cosine_BoundedAndSymmetric(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	vecGen := gen.SliceOfN(6, gen.Float64Range(-100, 100))

	properties.Property("cosine is bounded in [-1,1] and symmetric", prop.ForAll(
		func(a, b []float64) bool {
			ab := Cosine(a, b)
			ba := Cosine(b, a)
			if ab < -1.0001 || ab > 1.0001 {
				return false
			}
			return math.Abs(ab-ba) < 1e-9
		},
		vecGen, vecGen,
	))

	properties.TestingRun(t)
}

// A vector is always maximally similar to itself (score 1), unless it's the
// zero vector, where Cosine defines similarity as 0 rather than NaN.
func TestProperty_Cosine_SelfSimilarityIsOneUnlessZero(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("self-similarity is 1, or 0 for the zero vector", prop.ForAll(
		func(v []float64) bool {
			score := Cosine(v, v)
			isZero := true
			for _, x := range v {
				if x != 0 {
					isZero = false
					break
				}
			}
			if isZero {
				return score == 0
			}
			return math.Abs(score-1.0) < 1e-9
		},
		gen.SliceOfN(6, gen.Float64Range(-100, 100)),
	))

	properties.TestingRun(t)
}
