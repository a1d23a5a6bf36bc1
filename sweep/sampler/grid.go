package sampler

import (
	"fmt"
	"math"

	"github.com/twitter/sweep/sweep/domain"
)

// TopicRange returns start, start+step, ... up to and including end.
func TopicRange(start, end, step int) ([]int, error) {
	if start < 1 {
		return nil, fmt.Errorf("start topics must be >= 1, got %d", start)
	}
	if step < 1 {
		return nil, fmt.Errorf("topic step must be >= 1, got %d", step)
	}
	if end < start {
		return nil, fmt.Errorf("end topics %d is below start topics %d", end, start)
	}
	topics := []int{}
	for n := start; n <= end; n += step {
		topics = append(topics, n)
	}
	return topics, nil
}

// ArangePriors returns numeric priors start, start+step, ... strictly below stop.
func ArangePriors(start, stop, step float64) ([]domain.Prior, error) {
	if step <= 0 || start <= 0 || stop <= start {
		return nil, fmt.Errorf("invalid prior range [%v, %v) step %v", start, stop, step)
	}
	n := int(math.Ceil((stop - start) / step))
	priors := make([]domain.Prior, 0, n)
	for i := 0; i < n; i++ {
		priors = append(priors, domain.Numeric(start+float64(i)*step))
	}
	return priors, nil
}

// DefaultAlphas is [symmetric, asymmetric] followed by the numeric range.
func DefaultAlphas(numeric []domain.Prior) []domain.Prior {
	return append([]domain.Prior{domain.Symbol(domain.Symmetric), domain.Symbol(domain.Asymmetric)}, numeric...)
}

// DefaultBetas is [symmetric] followed by the numeric range.
func DefaultBetas(numeric []domain.Prior) []domain.Prior {
	return append([]domain.Prior{domain.Symbol(domain.Symmetric)}, numeric...)
}

// Grid holds the derived numeric stand-ins for symbolic priors over a topic range.
type Grid struct {
	topics []int
}

func NewGrid(topics []int) Grid {
	return Grid{topics: topics}
}

// NumTopics is the number of topic-count values swept, not a topic count itself.
func (g Grid) NumTopics() int {
	return len(g.topics)
}

func (g Grid) NumericSymmetric() float64 {
	return 1.0 / float64(g.NumTopics())
}

func (g Grid) NumericAsymmetric() float64 {
	n := float64(g.NumTopics())
	return 1.0 / (n + math.Sqrt(n))
}

// Resolve maps a prior to the number handed to the trainer. "auto" and other
// symbols without a fixed value resolve to 0 and are left to the trainer.
func (g Grid) Resolve(p domain.Prior) float64 {
	if !p.IsSymbolic() {
		return p.Value
	}
	switch p.Symbol {
	case domain.Symmetric:
		return g.NumericSymmetric()
	case domain.Asymmetric:
		return g.NumericAsymmetric()
	}
	return 0
}
