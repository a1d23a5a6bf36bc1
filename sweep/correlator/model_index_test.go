package correlator

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/sweep/common/stats"
	"github.com/twitter/sweep/sweep/domain"
)

type fakeModel struct {
	id  string
	key domain.ModelKey
}

func (m *fakeModel) ID() string           { return m.id }
func (m *fakeModel) Key() domain.ModelKey { return m.key }

func trainResult(key domain.ModelKey, id string) domain.TaskResult {
	return domain.TaskResult{Key: key, Phase: domain.Train, Model: &fakeModel{id: id, key: key}}
}

func TestLookupExactKey(t *testing.T) {
	idx := NewModelIndex(stats.NilStatsReceiver())
	key := domain.NewModelKey(10, domain.Symbol(domain.Symmetric), domain.Numeric(0.31))

	_, err := idx.Record(trainResult(key, "m1"))
	require.NoError(t, err)

	model, ok := idx.Lookup(domain.NewModelKey(10, domain.Symbol(domain.Symmetric), domain.Numeric(0.31)))
	assert.True(t, ok)
	assert.Equal(t, "m1", model.ID())
	assert.NoError(t, idx.Require(key))

	unseen := domain.NewModelKey(10, domain.Symbol(domain.Symmetric), domain.Numeric(0.32))
	_, ok = idx.Lookup(unseen)
	assert.False(t, ok)
	assert.True(t, errors.Is(idx.Require(unseen), ErrMissingModel))
}

func TestLastWriterWins(t *testing.T) {
	reg := stats.NewJsonStatsRegistry()
	idx := NewModelIndex(stats.NewCustomStatsReceiver(func() stats.StatsRegistry { return reg }))
	key := domain.NewModelKey(5, domain.Symbol(domain.Asymmetric), domain.Symbol(domain.Symmetric))

	replaced, err := idx.Record(trainResult(key, "first"))
	require.NoError(t, err)
	assert.False(t, replaced)
	replaced, err = idx.Record(trainResult(key, "second"))
	require.NoError(t, err)
	assert.True(t, replaced)

	model, _ := idx.Lookup(key)
	assert.Equal(t, "second", model.ID())
	assert.Equal(t, 1, idx.Len())
	stats.VerifyStats("", reg, t, map[string]stats.Rule{
		stats.ModelIndexReplacedCounter: {Checker: stats.Int64EqTest, Value: 1},
	})
}

func TestRecordRejectsNonTrainResults(t *testing.T) {
	idx := NewModelIndex(stats.NilStatsReceiver())
	key := domain.NewModelKey(5, domain.Numeric(0.01), domain.Numeric(0.01))

	r := trainResult(key, "m")
	r.Phase = domain.Validation
	_, err := idx.Record(r)
	assert.True(t, errors.Is(err, ErrNotTrainResult))

	_, err = idx.Record(domain.TaskResult{Key: key, Phase: domain.Train})
	assert.True(t, errors.Is(err, ErrNoModel))
	assert.Equal(t, 0, idx.Len())
}

func TestResetAndKeys(t *testing.T) {
	idx := NewModelIndex(stats.NilStatsReceiver())
	b := domain.NewModelKey(10, domain.Numeric(0.01), domain.Numeric(0.01))
	a := domain.NewModelKey(5, domain.Numeric(0.61), domain.Numeric(0.01))
	idx.Record(trainResult(b, "b"))
	idx.Record(trainResult(a, "a"))

	assert.Equal(t, []domain.ModelKey{a, b}, idx.Keys())
	idx.Reset()
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Keys())
}

func TestOneEntryPerDistinctKey(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("index holds one entry per distinct key, last writer wins", prop.ForAll(
		func(keys []domain.ModelKey) bool {
			idx := NewModelIndex(stats.NilStatsReceiver())
			last := map[domain.ModelKey]string{}
			for i, k := range keys {
				id := string(rune('a' + i%26))
				if _, err := idx.Record(trainResult(k, id)); err != nil {
					return false
				}
				last[k] = id
			}
			if idx.Len() != len(last) {
				return false
			}
			for k, id := range last {
				m, ok := idx.Lookup(k)
				if !ok || m.ID() != id {
					return false
				}
			}
			return true
		},
		gen.SliceOf(domain.GenModelKey()),
	))

	properties.TestingRun(t)
}
