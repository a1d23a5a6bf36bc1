// Package trainer defines the model training routine the sweep drives.
// The routine itself is supplied by an implementation; see trainer/sim.
package trainer

import (
	"context"

	"github.com/twitter/sweep/sweep/domain"
)

// ModelConfig holds the fitting knobs shared by every task of a run.
type ModelConfig struct {
	Passes        int  `yaml:"passes"`
	Iterations    int  `yaml:"iterations"`
	UpdateEvery   int  `yaml:"update_every"`
	EvalEvery     int  `yaml:"eval_every"`
	RandomState   int  `yaml:"random_state"`
	PerWordTopics bool `yaml:"per_word_topics"`
}

// Request parameterizes one train or evaluate call.
type Request struct {
	Key   domain.ModelKey
	Phase domain.Phase

	// Numeric values for Key's priors; symbolic priors are resolved by the caller.
	ResolvedAlpha float64
	ResolvedBeta  float64

	Seed          int64
	Passes        int
	Iterations    int
	UpdateEvery   int
	EvalEvery     int
	Workers       int
	PerWordTopics bool

	// The trained model to evaluate. Nil for train requests.
	Model domain.Model
}

func NewRequest(key domain.ModelKey, phase domain.Phase, cfg ModelConfig, workers int, model domain.Model) Request {
	return Request{
		Key:           key,
		Phase:         phase,
		Seed:          int64(cfg.RandomState),
		Passes:        cfg.Passes,
		Iterations:    cfg.Iterations,
		UpdateEvery:   cfg.UpdateEvery,
		EvalEvery:     cfg.EvalEvery,
		Workers:       workers,
		PerWordTopics: cfg.PerWordTopics,
		Model:         model,
	}
}

// Trainer fits a model on a train batch, or scores an existing model on a validation or test batch.
type Trainer interface {
	TrainOrEvaluate(ctx context.Context, req Request, docs domain.Documents) (domain.TaskResult, error)
}
