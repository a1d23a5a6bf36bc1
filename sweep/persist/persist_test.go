package persist

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/sweep/common/stats"
	"github.com/twitter/sweep/sweep/domain"
	"github.com/twitter/sweep/sweep/visualize"
)

type exec struct {
	query string
	args  []interface{}
}

type fakeDB struct {
	execs []exec
	// Errors returned by successive inserts, nil once exhausted.
	insertErrs []error
}

func (db *fakeDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	db.execs = append(db.execs, exec{query, args})
	if strings.HasPrefix(query, "INSERT") && len(db.insertErrs) > 0 {
		err := db.insertErrs[0]
		db.insertErrs = db.insertErrs[1:]
		return nil, err
	}
	return nil, nil
}

func (db *fakeDB) inserts() []exec {
	var out []exec
	for _, e := range db.execs {
		if strings.HasPrefix(e.query, "INSERT") {
			out = append(out, e)
		}
	}
	return out
}

type model struct {
	id  string
	key domain.ModelKey
}

func (m model) ID() string           { return m.id }
func (m model) Key() domain.ModelKey { return m.key }

var key = domain.NewModelKey(10, domain.Symbol(domain.Symmetric), domain.Numeric(0.31))

func result(phase domain.Phase) domain.TaskResult {
	return domain.TaskResult{
		Key:      key,
		Phase:    phase,
		Model:    model{"m1", key},
		Metrics:  map[string]float64{"coherence": 0.5},
		Worker:   "worker-1",
		Duration: 1500 * time.Millisecond,
	}
}

func newPersister(db DB, batchSize int, reg stats.StatsRegistry) *PostgresPersister {
	p := NewPostgresPersister(db, "corpus_one", batchSize, stats.NewCustomStatsReceiver(func() stats.StatsRegistry { return reg }))
	p.Now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return p.WithBackOff(func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2) })
}

func TestPersistChunksRows(t *testing.T) {
	db := &fakeDB{}
	reg := stats.NewJsonStatsRegistry()
	p := newPersister(db, 2, reg)

	trainBase := visualize.ArtifactBase(domain.Train, result(domain.Train))
	batch := Batch{
		Train:      []domain.TaskResult{result(domain.Train)},
		Validation: []domain.TaskResult{result(domain.Validation)},
		Test:       []domain.TaskResult{result(domain.Test)},
		Artifacts: visualize.Artifacts{
			TopicMaps:   []string{"visuals/topicmaps/" + trainBase + ".json"},
			Ordinations: []string{"visuals/ordination/" + trainBase + ".csv"},
		},
	}
	drained, err := p.Persist(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 0, drained.Len())

	require.Len(t, db.execs, 3)
	assert.Contains(t, db.execs[0].query, `CREATE TABLE IF NOT EXISTS "corpus_one"`)
	inserts := db.inserts()
	require.Len(t, inserts, 2)
	assert.Contains(t, inserts[0].query, "($12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)")
	assert.Len(t, inserts[0].args, 22)
	assert.Len(t, inserts[1].args, 11)

	first := inserts[0].args
	assert.Equal(t, "train", first[1])
	assert.Equal(t, 10, first[2])
	assert.Equal(t, "symmetric", first[3])
	assert.Equal(t, "0.31", first[4])
	assert.Equal(t, "m1", first[5])
	assert.Equal(t, int64(1500), first[7])
	assert.Equal(t, `{"coherence":0.5}`, first[8])
	assert.Equal(t, `["visuals/topicmaps/`+trainBase+`.json"]`, first[9])
	assert.Equal(t, `[]`, inserts[0].args[numColumns+9])

	stats.VerifyStats("", reg, t, map[string]stats.Rule{
		"persist/" + stats.PersistRowsWrittenCounter: {Checker: stats.Int64EqTest, Value: 3},
	})

	// The table is created once.
	_, err = p.Persist(context.Background(), Batch{Test: []domain.TaskResult{result(domain.Test)}})
	require.NoError(t, err)
	assert.Len(t, db.execs, 4)
}

func TestPersistMatchesArtifactsPerBatch(t *testing.T) {
	db := &fakeDB{}
	p := newPersister(db, 10, stats.NewJsonStatsRegistry())

	first, second := result(domain.Test), result(domain.Test)
	first.Batch, second.Batch = "test-0", "test-1"
	arts := visualize.Artifacts{}
	for _, res := range []domain.TaskResult{first, second} {
		arts.TopicMaps = append(arts.TopicMaps, "visuals/topicmaps/"+visualize.ArtifactBase(domain.Test, res)+".json")
	}
	_, err := p.Persist(context.Background(), Batch{Test: []domain.TaskResult{first, second}, Artifacts: arts})
	require.NoError(t, err)

	inserts := db.inserts()
	require.Len(t, inserts, 1)
	assert.Equal(t, `["visuals/topicmaps/test_10_symmetric_0.31_m1_test-0.json"]`, inserts[0].args[9])
	assert.Equal(t, `["visuals/topicmaps/test_10_symmetric_0.31_m1_test-1.json"]`, inserts[0].args[numColumns+9])
}

func TestPersistRetriesInsert(t *testing.T) {
	db := &fakeDB{insertErrs: []error{errors.New("conn reset")}}
	p := newPersister(db, 10, stats.NewJsonStatsRegistry())
	_, err := p.Persist(context.Background(), Batch{Train: []domain.TaskResult{result(domain.Train)}})
	require.NoError(t, err)
	assert.Len(t, db.inserts(), 2)
}

func TestPersistGivesUp(t *testing.T) {
	boom := errors.New("disk full")
	db := &fakeDB{insertErrs: []error{boom, boom, boom}}
	p := newPersister(db, 10, stats.NewJsonStatsRegistry())
	drained, err := p.Persist(context.Background(), Batch{Train: []domain.TaskResult{result(domain.Train)}})
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 0, drained.Len())
}

func TestPersistEmptyBatchIsNoop(t *testing.T) {
	db := &fakeDB{}
	_, err := newPersister(db, 10, stats.NewJsonStatsRegistry()).Persist(context.Background(), Batch{})
	require.NoError(t, err)
	assert.Empty(t, db.execs)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig("postgresql://u:p@localhost:5432/db").Validate())
	assert.Error(t, DefaultConfig("").Validate())
	cfg := DefaultConfig("postgresql://u:p@localhost:5432/db")
	cfg.MaxIdleConns = cfg.MaxOpenConns + 1
	assert.Error(t, cfg.Validate())
}
