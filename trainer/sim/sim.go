// Package sim provides a Trainer that simulates fitting with deterministic
// metrics, for tests and for running the orchestrator without a real model.
package sim

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/twitter/sweep/sweep/domain"
	"github.com/twitter/sweep/trainer"
)

var ErrInjected = errors.New("simulated failure")

// Model is the artifact a simulated train task returns.
type Model struct {
	id        string
	key       domain.ModelKey
	Documents int
	Tokens    int
}

func (m *Model) ID() string           { return m.id }
func (m *Model) Key() domain.ModelKey { return m.key }

func NewTrainer() *Trainer {
	return &Trainer{fail: make(map[failKey]bool), Now: time.Now}
}

// Trainer simulates TrainOrEvaluate.
//   - Delay is slept before every call (interruptible by ctx).
//   - Fail(key, phase) makes matching calls return ErrInjected.
type Trainer struct {
	Delay time.Duration
	Now   func() time.Time

	mu    sync.Mutex
	fail  map[failKey]bool
	calls int
}

type failKey struct {
	key   domain.ModelKey
	phase domain.Phase
}

func (t *Trainer) Fail(key domain.ModelKey, phase domain.Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fail[failKey{key, phase}] = true
}

func (t *Trainer) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

func (t *Trainer) TrainOrEvaluate(ctx context.Context, req trainer.Request, docs domain.Documents) (domain.TaskResult, error) {
	t.mu.Lock()
	t.calls++
	fail := t.fail[failKey{req.Key, req.Phase}]
	t.mu.Unlock()

	started := t.Now()
	if t.Delay > 0 {
		timer := time.NewTimer(t.Delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return domain.TaskResult{}, ctx.Err()
		}
	}
	if fail {
		return domain.TaskResult{}, fmt.Errorf("%w: %s %s", ErrInjected, req.Phase, req.Key)
	}

	model := req.Model
	if req.Phase == domain.Train {
		model = &Model{
			id:        fmt.Sprintf("lda-%016x", fingerprint(req, docs)),
			key:       req.Key,
			Documents: len(docs),
			Tokens:    docs.Tokens(),
		}
	} else if model == nil {
		return domain.TaskResult{}, fmt.Errorf("%s of %s needs a trained model", req.Phase, req.Key)
	}

	return domain.TaskResult{
		Key:      req.Key,
		Phase:    req.Phase,
		Model:    model,
		Metrics:  metrics(req, docs),
		Started:  started,
		Duration: t.Now().Sub(started),
	}, nil
}

func fingerprint(req trainer.Request, docs domain.Documents) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d|", req.Key, req.Phase, req.Seed)
	for _, doc := range docs {
		for _, tok := range doc {
			h.Write([]byte(tok))
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}
	return h.Sum64()
}

// metrics derives plausible, reproducible scores from the request and data.
func metrics(req trainer.Request, docs domain.Documents) map[string]float64 {
	f := fingerprint(req, docs)
	unit := float64(f%10000) / 10000
	passes := math.Max(float64(req.Passes), 1)
	return map[string]float64{
		"perplexity":  -6 - 2*unit - float64(req.Key.Topics)/100,
		"coherence":   0.3 + 0.4*unit,
		"convergence": 1 / passes,
		"documents":   float64(len(docs)),
		"tokens":      float64(docs.Tokens()),
	}
}
