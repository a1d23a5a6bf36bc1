// Package persist records completed phase results in a relational table.
package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/sweep/common/stats"
	"github.com/twitter/sweep/sweep/domain"
	"github.com/twitter/sweep/sweep/visualize"
)

// Batch is one iteration's completed results and rendered artifacts.
type Batch struct {
	Train      []domain.TaskResult
	Validation []domain.TaskResult
	Test       []domain.TaskResult
	Artifacts  visualize.Artifacts
}

func (b Batch) Len() int {
	return len(b.Train) + len(b.Validation) + len(b.Test)
}

// Persister writes a batch and returns it drained.
type Persister interface {
	Persist(ctx context.Context, batch Batch) (Batch, error)
}

// DB is the part of *sql.DB the persister uses.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const columns = "time_key, phase, num_topics, alpha_str, beta_str, model_id, worker, duration_ms, metrics, topic_maps, ordinations"

const numColumns = 11

type PostgresPersister struct {
	db         DB
	table      string
	batchSize  int
	created    bool
	newBackOff func() backoff.BackOff
	Now        func() time.Time
	stat       stats.StatsReceiver
}

// NewPostgresPersister writes into table, at most batchSize rows per INSERT.
func NewPostgresPersister(db DB, table string, batchSize int, stat stats.StatsReceiver) *PostgresPersister {
	if batchSize < 1 {
		batchSize = 1
	}
	return &PostgresPersister{
		db:        db,
		table:     pgx.Identifier{table}.Sanitize(),
		batchSize: batchSize,
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
		},
		Now:  time.Now,
		stat: stat.Scope("persist"),
	}
}

func (p *PostgresPersister) WithBackOff(newBackOff func() backoff.BackOff) *PostgresPersister {
	p.newBackOff = newBackOff
	return p
}

func (p *PostgresPersister) createTable(ctx context.Context) error {
	if p.created {
		return nil
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	time_key TIMESTAMPTZ NOT NULL,
	phase TEXT NOT NULL,
	num_topics INTEGER NOT NULL,
	alpha_str TEXT NOT NULL,
	beta_str TEXT NOT NULL,
	model_id TEXT NOT NULL,
	worker TEXT,
	duration_ms BIGINT,
	metrics JSONB,
	topic_maps JSONB,
	ordinations JSONB
)`, p.table)
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", p.table, err)
	}
	p.created = true
	return nil
}

type row []interface{}

func (p *PostgresPersister) rows(batch Batch) ([]row, error) {
	now := p.Now()
	var rows []row
	for _, results := range [][]domain.TaskResult{batch.Train, batch.Validation, batch.Test} {
		for _, res := range results {
			modelID := ""
			var topicMaps, ordinations []string
			if res.Model != nil {
				modelID = res.Model.ID()
				base := visualize.ArtifactBase(res.Phase, res)
				topicMaps = matching(batch.Artifacts.TopicMaps, base)
				ordinations = matching(batch.Artifacts.Ordinations, base)
			}
			metrics, err := json.Marshal(res.Metrics)
			if err != nil {
				return nil, err
			}
			tm, _ := json.Marshal(topicMaps)
			ord, _ := json.Marshal(ordinations)
			rows = append(rows, row{
				now,
				res.Phase.String(),
				res.Key.Topics,
				res.Key.Alpha.String(),
				res.Key.Beta.String(),
				modelID,
				res.Worker,
				res.Duration.Nanoseconds() / int64(time.Millisecond),
				string(metrics),
				string(tm),
				string(ord),
			})
		}
	}
	return rows, nil
}

func matching(names []string, base string) []string {
	out := []string{}
	for _, name := range names {
		if strings.TrimSuffix(path.Base(name), path.Ext(name)) == base {
			out = append(out, name)
		}
	}
	return out
}

func (p *PostgresPersister) insert(rows []row) (string, []interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", p.table, columns)
	args := make([]interface{}, 0, len(rows)*numColumns)
	for i, r := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range r {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", len(args)+j+1)
		}
		b.WriteString(")")
		args = append(args, r...)
	}
	return b.String(), args
}

// Persist inserts every result as a row. The returned batch is always empty;
// on error some chunks may already have been written.
func (p *PostgresPersister) Persist(ctx context.Context, batch Batch) (Batch, error) {
	if batch.Len() == 0 {
		return Batch{}, nil
	}
	if err := p.createTable(ctx); err != nil {
		return Batch{}, err
	}
	rows, err := p.rows(batch)
	if err != nil {
		return Batch{}, err
	}

	for start := 0; start < len(rows); start += p.batchSize {
		end := start + p.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		query, args := p.insert(rows[start:end])
		try := 1
		err := backoff.Retry(func() error {
			log.Debugf("Insert rows %d-%d into %s, try #%d", start, end-1, p.table, try)
			try++
			_, err := p.db.ExecContext(ctx, query, args...)
			return err
		}, backoff.WithContext(p.newBackOff(), ctx))
		if err != nil {
			return Batch{}, fmt.Errorf("inserting rows %d-%d into %s: %w", start, end-1, p.table, err)
		}
		p.stat.Counter(stats.PersistRowsWrittenCounter).Inc(int64(end - start))
	}
	log.WithFields(log.Fields{
		"table": p.table,
		"rows":  len(rows),
	}).Info("Persisted results")
	return Batch{}, nil
}
