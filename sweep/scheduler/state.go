package scheduler

import (
	"github.com/twitter/sweep/substrate"
	"github.com/twitter/sweep/sweep/domain"
	"github.com/twitter/sweep/sweep/visualize"
)

// State of one sweep iteration. Iterations move through the states in declaration order.
type State int

const (
	Throttle State = iota
	TrainSubmit
	TrainWait
	ValidateSubmit
	ValidateWait
	TestSubmit
	TestWait
	Visualize
	Recycle
	// Done follows Recycle; the loop moves on to the next combination.
	Done
)

var stateNames = []string{
	"THROTTLE",
	"TRAIN_SUBMIT",
	"TRAIN_WAIT",
	"VALIDATE_SUBMIT",
	"VALIDATE_WAIT",
	"TEST_SUBMIT",
	"TEST_WAIT",
	"VISUALIZE",
	"RECYCLE",
	"DONE",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// iteration is the per-combination state owned by the coordinator goroutine.
type iteration struct {
	n     int
	combo domain.Combination
	state State

	// Workers reported at admission, passed to trainer and visualizer.
	workers  int
	degraded bool

	// Futures of the wave in flight.
	pending   []substrate.Future
	results   map[domain.Phase][]domain.TaskResult
	artifacts visualize.Artifacts
}

func newIteration(n int, combo domain.Combination) *iteration {
	return &iteration{
		n:       n,
		combo:   combo,
		state:   Throttle,
		workers: 1,
		results: make(map[domain.Phase][]domain.TaskResult),
	}
}

func (it *iteration) counts() (train, validation, test int) {
	return len(it.results[domain.Train]), len(it.results[domain.Validation]), len(it.results[domain.Test])
}

// clear drops everything the iteration holds.
func (it *iteration) clear() {
	it.pending = nil
	it.results = make(map[domain.Phase][]domain.TaskResult)
	it.artifacts = visualize.Artifacts{}
}
