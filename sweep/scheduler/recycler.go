package scheduler

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/sweep/common/stats"
	"github.com/twitter/sweep/sweep/correlator"
)

type Rebalancer interface {
	Rebalance(ctx context.Context) error
}

// Recycler ends an iteration: it drops per-iteration state, retires trained
// models, asks the substrate to rebalance and advances progress.
type Recycler struct {
	index      *correlator.ModelIndex
	rebalancer Rebalancer
	progress   *Progress
	stat       stats.StatsReceiver
}

func NewRecycler(index *correlator.ModelIndex, rebalancer Rebalancer, progress *Progress, stat stats.StatsReceiver) *Recycler {
	return &Recycler{index: index, rebalancer: rebalancer, progress: progress, stat: stat}
}

func (r *Recycler) recycle(ctx context.Context, it *iteration) {
	train, validation, test := it.counts()
	it.clear()
	r.index.Reset()

	if err := r.rebalancer.Rebalance(ctx); err != nil {
		log.WithFields(log.Fields{
			"iteration": it.n + 1,
			"err":       err,
		}).Warn("Rebalance failed, continuing")
		r.stat.Counter(stats.RebalanceFailedCounter).Inc(1)
	}
	r.progress.Advance(train, validation, test)
}
