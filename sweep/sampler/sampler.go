// Package sampler expands the hyperparameter grid and draws the subset a run will sweep.
package sampler

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/twitter/sweep/sweep/domain"
)

// Axes of the grid. The product is taken in field order.
type Axes struct {
	Topics []int
	Alpha  []domain.Prior
	Beta   []domain.Prior
	Phases []domain.Phase
}

// Size counts combinations before repeated values are dropped.
func (a Axes) Size() int {
	return len(a.Topics) * len(a.Alpha) * len(a.Beta) * len(a.Phases)
}

// Product is the full cartesian product, deterministic in axis order. Priors
// are canonical, so a value repeated on an axis ("0.31" and "0.310") yields
// its combinations once, at the first occurrence.
func Product(axes Axes) []domain.Combination {
	combos := make([]domain.Combination, 0, axes.Size())
	seen := make(map[domain.Combination]bool, axes.Size())
	for _, topics := range axes.Topics {
		for _, alpha := range axes.Alpha {
			for _, beta := range axes.Beta {
				for _, phase := range axes.Phases {
					c := domain.Combination{Topics: topics, Alpha: alpha, Beta: beta, Phase: phase}
					if !seen[c] {
						seen[c] = true
						combos = append(combos, c)
					}
				}
			}
		}
	}
	return combos
}

// SampleSize is round(fraction*total) clamped to [1, total].
func SampleSize(fraction float64, total int) int {
	n := int(math.Round(fraction * float64(total)))
	if n < 1 {
		n = 1
	}
	if n > total {
		n = total
	}
	return n
}

// Sample splits the grid into the combinations this run sweeps and the rest.
type Sample struct {
	// In draw order.
	Sampled []domain.Combination
	// In product order, informational only.
	Remainder []domain.Combination
}

// WorkBound is the most tasks the sampled set can generate.
func (s Sample) WorkBound(trainBatches, validationBatches, testBatches int) int {
	return len(s.Sampled) * (trainBatches + validationBatches + testBatches)
}

// Draw samples without replacement. The same axes, fraction and seed always give the same Sample.
func Draw(axes Axes, fraction float64, seed int64) (Sample, error) {
	if fraction <= 0 || fraction > 1 {
		return Sample{}, fmt.Errorf("sample fraction must be in (0, 1], got %v", fraction)
	}
	full := Product(axes)
	if len(full) == 0 {
		return Sample{}, errors.New("hyperparameter grid is empty")
	}

	size := SampleSize(fraction, len(full))
	rng := rand.New(rand.NewSource(seed))
	order := rng.Perm(len(full))

	drawn := make([]bool, len(full))
	sample := Sample{Sampled: make([]domain.Combination, 0, size)}
	for _, i := range order[:size] {
		drawn[i] = true
		sample.Sampled = append(sample.Sampled, full[i])
	}
	sample.Remainder = make([]domain.Combination, 0, len(full)-size)
	for i, c := range full {
		if !drawn[i] {
			sample.Remainder = append(sample.Remainder, c)
		}
	}
	return sample, nil
}
