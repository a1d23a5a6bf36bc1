// Package correlator indexes trained models by key so later phases can find them.
package correlator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/twitter/sweep/common/stats"
	"github.com/twitter/sweep/sweep/domain"
)

var (
	ErrNotTrainResult = errors.New("only train results can be recorded")
	ErrNoModel        = errors.New("train result carries no model")
	ErrMissingModel   = errors.New("no trained model for key")
)

// ModelIndex maps a model key to the artifact its train task produced.
//
// Not thread-safe: the scheduler writes only while joining a train wave and
// reads only while submitting the following waves, never concurrently.
type ModelIndex struct {
	models map[domain.ModelKey]domain.Model
	stat   stats.StatsReceiver
}

func NewModelIndex(stat stats.StatsReceiver) *ModelIndex {
	return &ModelIndex{
		models: make(map[domain.ModelKey]domain.Model),
		stat:   stat,
	}
}

// Record stores a train result's model under its key. A later result for
// the same key replaces the earlier one; replaced reports whether that happened.
func (m *ModelIndex) Record(result domain.TaskResult) (replaced bool, err error) {
	if result.Phase != domain.Train {
		return false, fmt.Errorf("%w: got %s for %s", ErrNotTrainResult, result.Phase, result.Key)
	}
	if result.Model == nil {
		return false, fmt.Errorf("%w: %s", ErrNoModel, result.Key)
	}
	_, replaced = m.models[result.Key]
	if replaced {
		m.stat.Counter(stats.ModelIndexReplacedCounter).Inc(1)
	}
	m.models[result.Key] = result.Model
	return replaced, nil
}

func (m *ModelIndex) Lookup(key domain.ModelKey) (domain.Model, bool) {
	model, ok := m.models[key]
	return model, ok
}

// Require returns an error wrapping ErrMissingModel if key has no model.
func (m *ModelIndex) Require(key domain.ModelKey) error {
	if _, ok := m.models[key]; !ok {
		return fmt.Errorf("%w %s", ErrMissingModel, key)
	}
	return nil
}

func (m *ModelIndex) Len() int {
	return len(m.models)
}

// Keys returns the indexed keys in ModelKey order.
func (m *ModelIndex) Keys() []domain.ModelKey {
	keys := make([]domain.ModelKey, 0, len(m.models))
	for k := range m.models {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Reset retires every entry.
func (m *ModelIndex) Reset() {
	m.models = make(map[domain.ModelKey]domain.Model)
}
