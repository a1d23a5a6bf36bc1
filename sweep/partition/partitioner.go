// Package partition reads the labeled corpus and scatters it across the
// substrate into train, validation and test pools.
package partition

import (
	"context"
	"io"

	"github.com/cenkalti/backoff"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/sweep/common/stats"
	"github.com/twitter/sweep/substrate"
	"github.com/twitter/sweep/sweep/domain"
)

// Pools of handles to scattered batches, by phase.
type Pools struct {
	Train      []substrate.DataHandle
	Validation []substrate.DataHandle
	Test       []substrate.DataHandle
}

func (p Pools) Counts() (train, validation, test int) {
	return len(p.Train), len(p.Validation), len(p.Test)
}

// Placer is the part of the substrate the partitioner needs.
type Placer interface {
	Scatter(ctx context.Context, batch domain.LabeledBatch) (substrate.DataHandle, error)
}

type Partitioner struct {
	placer     Placer
	newBackOff func() backoff.BackOff
	stat       stats.StatsReceiver
}

// NewPartitioner retries a failed placement up to retries more times with exponential backoff.
// With retries <= 0 each batch gets a single attempt.
func NewPartitioner(placer Placer, retries int, stat stats.StatsReceiver) *Partitioner {
	return NewCustomPartitioner(placer, func() backoff.BackOff {
		// WithMaxRetries treats 0 as no limit
		if retries <= 0 {
			return &backoff.StopBackOff{}
		}
		return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(retries))
	}, stat)
}

func NewCustomPartitioner(placer Placer, newBackOff func() backoff.BackOff, stat stats.StatsReceiver) *Partitioner {
	return &Partitioner{
		placer:     placer,
		newBackOff: newBackOff,
		stat:       stat.Scope("partition"),
	}
}

// Partition drains reader. Batches that cannot be placed, or carry an unknown
// phase, are logged and skipped. Reader errors other than io.EOF are returned.
func (p *Partitioner) Partition(ctx context.Context, reader BatchReader) (Pools, error) {
	defer p.stat.Latency(stats.PartitionLatency_ms).Time().Stop()
	pools := Pools{}
	for {
		batch, err := reader.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return pools, err
		}
		p.stat.Histogram(stats.PartitionBatchDocsHistogram).Update(int64(len(batch.Docs)))

		if !batch.Phase.Valid() {
			log.WithFields(log.Fields{
				"phase": int(batch.Phase),
				"index": batch.Index,
				"docs":  len(batch.Docs),
			}).Error("Unknown phase: documents not being scattered")
			p.stat.Counter(stats.PartitionUnknownPhaseCounter).Inc(1)
			continue
		}

		handle, err := p.scatter(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return pools, ctx.Err()
			}
			log.WithFields(log.Fields{
				"phase": batch.Phase,
				"index": batch.Index,
				"docs":  len(batch.Docs),
				"err":   err,
			}).Errorf("Failed to scatter %s batch, skipping", batch.Phase)
			p.stat.Scope(batch.Phase.String()).Counter(stats.PartitionScatterFailedCounter).Inc(1)
			continue
		}
		p.stat.Scope(batch.Phase.String()).Counter(stats.PartitionScatteredCounter).Inc(1)

		switch batch.Phase {
		case domain.Train:
			pools.Train = append(pools.Train, handle)
		case domain.Validation:
			pools.Validation = append(pools.Validation, handle)
		case domain.Test:
			pools.Test = append(pools.Test, handle)
		}
	}

	train, validation, test := pools.Counts()
	log.WithFields(log.Fields{
		"train":      train,
		"validation": validation,
		"test":       test,
	}).Info("Partitioned corpus")
	return pools, nil
}

func (p *Partitioner) scatter(ctx context.Context, batch domain.LabeledBatch) (handle substrate.DataHandle, err error) {
	try := 1
	backoff.Retry(func() error {
		log.Debugf("Scatter %s batch %d, try #%d", batch.Phase, batch.Index, try)
		handle, err = p.placer.Scatter(ctx, batch)
		try++
		return err
	}, backoff.WithContext(p.newBackOff(), ctx))
	return handle, err
}
