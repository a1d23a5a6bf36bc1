package domain

import (
	"time"
)

// Model is an opaque trained artifact produced by a train task.
type Model interface {
	ID() string
	Key() ModelKey
}

// TaskResult is what a train, validation or test task resolves to.
// Only train results carry a Model that later phases consume.
type TaskResult struct {
	Key   ModelKey
	Phase Phase
	Model Model
	// Key of the data handle the task ran against.
	Batch    string
	Metrics  map[string]float64
	Worker   string
	Started  time.Time
	Duration time.Duration
}
