// Package substrate defines the execution layer the sweep runs on: a pool of
// workers that hold scattered data and run tasks next to it.
package substrate

//go:generate mockgen -source=substrate.go -package=mocks -destination=mocks/mock_substrate.go

import (
	"context"
	"errors"
	"time"

	"github.com/twitter/sweep/cloud/cluster"
	"github.com/twitter/sweep/sweep/domain"
)

var (
	ErrClosed        = errors.New("substrate is closed")
	ErrUnknownHandle = errors.New("data handle is not placed on this substrate")
)

// Metrics are a worker's live resource readings.
type Metrics struct {
	// Percent of the worker's compute in use, 0-100.
	CPU float64
	// Bytes held by the worker.
	Memory uint64
}

type WorkerInfo struct {
	Id          cluster.NodeId
	Metrics     Metrics
	MemoryLimit uint64
	// Tasks running or queued on the worker.
	Running int
	// Data batches placed on the worker.
	Batches int
}

// Info is a point-in-time view of the substrate's scheduler.
type Info struct {
	Workers map[cluster.NodeId]WorkerInfo
}

// DataHandle references a batch placed on the substrate. The substrate owns the data.
type DataHandle interface {
	Key() string
	Phase() domain.Phase
	// Documents in the batch.
	Size() int
	// Meta returns metadata embedded with the batch. It may need a round trip to the worker.
	Meta(ctx context.Context) (map[string]string, error)
}

// Future is a pending task. Result is only meaningful once Done is closed.
type Future interface {
	Id() string
	Done() <-chan struct{}
	Result() (domain.TaskResult, error)
}

// Task runs on the worker holding the data, with the batch's documents.
type Task func(ctx context.Context, docs domain.Documents) (domain.TaskResult, error)

type Substrate interface {
	// Submit schedules task against data and returns without waiting for it.
	Submit(ctx context.Context, data DataHandle, task Task) (Future, error)

	// Scatter places a batch on a worker.
	Scatter(ctx context.Context, batch domain.LabeledBatch) (DataHandle, error)

	// Wait blocks until every future is done, or timeout elapses when timeout > 0.
	// Futures are split into done and pending; order within each is preserved.
	Wait(ctx context.Context, futures []Future, timeout time.Duration) (done, pending []Future, err error)

	SchedulerInfo(ctx context.Context) (Info, error)

	// Rebalance evens out data placement across workers.
	Rebalance(ctx context.Context) error

	// Adapt bounds the number of workers.
	Adapt(minWorkers, maxWorkers int) error

	Close() error
}

// WaitFutures implements Wait on top of Future.Done for substrates without a native join.
func WaitFutures(ctx context.Context, futures []Future, timeout time.Duration) (done, pending []Future, err error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	timedOut := false
	for _, f := range futures {
		if timedOut {
			break
		}
		select {
		case <-f.Done():
		case <-expired:
			timedOut = true
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}

	for _, f := range futures {
		select {
		case <-f.Done():
			done = append(done, f)
		default:
			pending = append(pending, f)
		}
	}
	return done, pending, nil
}
