package local

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/sweep/common/stats"
	"github.com/twitter/sweep/substrate"
	"github.com/twitter/sweep/sweep/domain"
)

func batch(phase domain.Phase, index int, docs ...[]string) domain.LabeledBatch {
	return domain.LabeledBatch{Phase: phase, Index: index, Docs: docs}
}

func newCluster(t *testing.T, cfg Config) (*Cluster, stats.StatsRegistry) {
	reg := stats.NewJsonStatsRegistry()
	c, err := NewCluster(cfg, stats.NewCustomStatsReceiver(func() stats.StatsRegistry { return reg }))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, reg
}

func echo(ctx context.Context, docs domain.Documents) (domain.TaskResult, error) {
	return domain.TaskResult{Metrics: map[string]float64{"docs": float64(len(docs))}}, nil
}

func TestScatterSpreadsAcrossWorkers(t *testing.T) {
	c, _ := newCluster(t, Config{Workers: 2, ThreadsPerWorker: 1})
	ctx := context.Background()

	a, err := c.Scatter(ctx, batch(domain.Train, 0, []string{"aaaa"}))
	require.NoError(t, err)
	b, err := c.Scatter(ctx, batch(domain.Validation, 0, []string{"bbbb"}))
	require.NoError(t, err)
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, domain.Validation, b.Phase())
	assert.Equal(t, 1, b.Size())

	info, err := c.SchedulerInfo(ctx)
	require.NoError(t, err)
	require.Len(t, info.Workers, 2)
	for _, w := range info.Workers {
		assert.Equal(t, 1, w.Batches)
		assert.Equal(t, uint64(4), w.Metrics.Memory)
		assert.Equal(t, 0.0, w.Metrics.CPU)
	}
}

func TestScatterOverMemoryLimit(t *testing.T) {
	c, _ := newCluster(t, Config{Workers: 1, MemoryLimit: 8})
	_, err := c.Scatter(context.Background(), batch(domain.Train, 0, []string{"topic", "models"}))
	assert.Error(t, err)
}

func TestMetaIsCopied(t *testing.T) {
	c, _ := newCluster(t, Config{Workers: 1})
	b := batch(domain.Test, 3, []string{"x"})
	b.Meta = map[string]string{domain.MetaTopics: "10"}
	h, err := c.Scatter(context.Background(), b)
	require.NoError(t, err)

	b.Meta[domain.MetaTopics] = "20"
	meta, err := h.Meta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10", meta[domain.MetaTopics])
}

func TestSubmitRunsNextToData(t *testing.T) {
	c, _ := newCluster(t, Config{Workers: 1, ThreadsPerWorker: 2})
	ctx := context.Background()
	h, err := c.Scatter(ctx, batch(domain.Train, 0, []string{"a"}, []string{"b"}))
	require.NoError(t, err)

	f, err := c.Submit(ctx, h, echo)
	require.NoError(t, err)
	done, pending, err := c.Wait(ctx, []substrate.Future{f}, 0)
	require.NoError(t, err)
	assert.Len(t, done, 1)
	assert.Empty(t, pending)

	res, err := f.Result()
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.Metrics["docs"])
	assert.Equal(t, "worker-1", res.Worker)
}

func TestSubmitUnknownHandle(t *testing.T) {
	c, _ := newCluster(t, Config{Workers: 1})
	other, _ := newCluster(t, Config{Workers: 1})
	h, err := other.Scatter(context.Background(), batch(domain.Train, 0, []string{"a"}))
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), h, echo)
	assert.True(t, errors.Is(err, substrate.ErrUnknownHandle))
}

func TestTaskErrorIsReturned(t *testing.T) {
	c, _ := newCluster(t, Config{Workers: 1})
	ctx := context.Background()
	h, _ := c.Scatter(ctx, batch(domain.Train, 0, []string{"a"}))
	boom := errors.New("boom")
	f, err := c.Submit(ctx, h, func(context.Context, domain.Documents) (domain.TaskResult, error) {
		return domain.TaskResult{}, boom
	})
	require.NoError(t, err)
	<-f.Done()
	_, err = f.Result()
	assert.Equal(t, boom, err)
}

func TestConcurrentTasksAreTimed(t *testing.T) {
	c, reg := newCluster(t, Config{Workers: 2, ThreadsPerWorker: 4})
	ctx := context.Background()
	var handles []substrate.DataHandle
	for i := 0; i < 2; i++ {
		h, err := c.Scatter(ctx, batch(domain.Train, i, []string{"a"}))
		require.NoError(t, err)
		handles = append(handles, h)
	}

	var futures []substrate.Future
	for i := 0; i < 8; i++ {
		f, err := c.Submit(ctx, handles[i%2], func(context.Context, domain.Documents) (domain.TaskResult, error) {
			time.Sleep(time.Millisecond)
			return domain.TaskResult{}, nil
		})
		require.NoError(t, err)
		futures = append(futures, f)
	}
	for _, f := range futures {
		<-f.Done()
	}
	stats.VerifyStats("", reg, t, map[string]stats.Rule{
		"substrate/" + stats.SubstrateTaskLatency_ms + ".count": {Checker: stats.Int64EqTest, Value: 8},
	})
}

func TestQueuedTasksGrowClusterOnRebalance(t *testing.T) {
	c, reg := newCluster(t, Config{Workers: 1, MaxWorkers: 2, ThreadsPerWorker: 1})
	ctx := context.Background()
	h, _ := c.Scatter(ctx, batch(domain.Train, 0, []string{"a"}))

	release := make(chan struct{})
	started := make(chan struct{}, 2)
	blocking := func(context.Context, domain.Documents) (domain.TaskResult, error) {
		started <- struct{}{}
		<-release
		return domain.TaskResult{}, nil
	}
	first, err := c.Submit(ctx, h, blocking)
	require.NoError(t, err)
	<-started

	info, _ := c.SchedulerInfo(ctx)
	assert.Equal(t, 100.0, info.Workers["worker-1"].Metrics.CPU)

	second, err := c.Submit(ctx, h, blocking)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		ok, _ := stats.StatsOk("", reg, map[string]stats.Rule{
			"substrate/" + stats.SubstrateQueuedTaskCounter: {Checker: stats.Int64EqTest, Value: 1},
		})
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	close(release)
	_, pending, err := c.Wait(ctx, []substrate.Future{first, second}, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, c.Rebalance(ctx))
	info, _ = c.SchedulerInfo(ctx)
	assert.Len(t, info.Workers, 2)

	// No queueing since, so no further growth.
	require.NoError(t, c.Rebalance(ctx))
	info, _ = c.SchedulerInfo(ctx)
	assert.Len(t, info.Workers, 2)
}

func TestRebalanceEvensPlacement(t *testing.T) {
	c, reg := newCluster(t, Config{Workers: 1, MaxWorkers: 2})
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := c.Scatter(ctx, batch(domain.Train, i, []string{"abcd"}))
		require.NoError(t, err)
	}
	require.NoError(t, c.Adapt(2, 2))
	require.NoError(t, c.Rebalance(ctx))

	info, err := c.SchedulerInfo(ctx)
	require.NoError(t, err)
	for _, w := range info.Workers {
		assert.Equal(t, 2, w.Batches)
		assert.Equal(t, uint64(8), w.Metrics.Memory)
	}
	stats.VerifyStats("", reg, t, map[string]stats.Rule{
		"substrate/" + stats.SubstrateBatchesMovedCounter: {Checker: stats.Int64EqTest, Value: 2},
		"substrate/" + stats.SubstrateWorkersGauge:        {Checker: stats.Int64EqTest, Value: 2},
	})
}

func TestAdaptShrinkEvacuates(t *testing.T) {
	c, _ := newCluster(t, Config{Workers: 3, MaxWorkers: 3})
	ctx := context.Background()
	var handles []substrate.DataHandle
	for i := 0; i < 3; i++ {
		h, err := c.Scatter(ctx, batch(domain.Train, i, []string{"ab"}))
		require.NoError(t, err)
		handles = append(handles, h)
	}

	require.NoError(t, c.Adapt(1, 1))
	info, _ := c.SchedulerInfo(ctx)
	require.Len(t, info.Workers, 1)
	assert.Equal(t, 3, info.Workers["worker-1"].Batches)

	for _, h := range handles {
		f, err := c.Submit(ctx, h, echo)
		require.NoError(t, err)
		<-f.Done()
		res, err := f.Result()
		require.NoError(t, err)
		assert.Equal(t, "worker-1", res.Worker)
	}
}

func TestAdaptBounds(t *testing.T) {
	c, _ := newCluster(t, Config{Workers: 1})
	assert.Error(t, c.Adapt(0, 1))
	assert.Error(t, c.Adapt(3, 2))
	require.NoError(t, c.Adapt(2, 4))
	info, _ := c.SchedulerInfo(context.Background())
	assert.Len(t, info.Workers, 2)
}

func TestClosed(t *testing.T) {
	c, _ := newCluster(t, Config{Workers: 1})
	ctx := context.Background()
	h, _ := c.Scatter(ctx, batch(domain.Train, 0, []string{"a"}))
	require.NoError(t, c.Close())

	_, err := c.Scatter(ctx, batch(domain.Train, 1, []string{"a"}))
	assert.Equal(t, substrate.ErrClosed, err)
	_, err = c.Submit(ctx, h, echo)
	assert.Equal(t, substrate.ErrClosed, err)
	_, err = c.SchedulerInfo(ctx)
	assert.Equal(t, substrate.ErrClosed, err)
	_, err = h.Meta(ctx)
	assert.Equal(t, substrate.ErrClosed, err)
}
