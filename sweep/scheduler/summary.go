package scheduler

import (
	"fmt"

	"github.com/twitter/sweep/sweep/domain"
)

// PhaseCounts tallies one phase across the sweep.
type PhaseCounts struct {
	Submitted int
	Results   int
	// Tasks that resolved with an error.
	Failed int
	// Batches not submitted because no model, or no usable key, was found.
	Skipped      int
	SubmitFailed int
}

type Summary struct {
	Phases             map[domain.Phase]*PhaseCounts
	Iterations         int
	DegradedAdmissions int
	VisualizeSkipped   int
	PersistFailed      int
	// Futures still pending when a wave's wait timed out.
	Abandoned int
}

func newSummary() Summary {
	s := Summary{Phases: make(map[domain.Phase]*PhaseCounts)}
	for _, p := range domain.AllPhases {
		s.Phases[p] = &PhaseCounts{}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("Final counts - Train results: %d, Validation results: %d, Test results: %d (%d iterations, %d degraded admissions, %d skipped visualizations)",
		s.Phases[domain.Train].Results, s.Phases[domain.Validation].Results, s.Phases[domain.Test].Results,
		s.Iterations, s.DegradedAdmissions, s.VisualizeSkipped)
}
