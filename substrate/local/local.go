// Package local is an in-process Substrate. Workers are goroutine pools with a
// fixed number of task slots; data batches are held in memory and tasks run
// against the worker that holds their batch.
package local

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	uuid "github.com/nu7hatch/gouuid"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/sweep/async"
	"github.com/twitter/sweep/cloud/cluster"
	"github.com/twitter/sweep/common/stats"
	"github.com/twitter/sweep/substrate"
	"github.com/twitter/sweep/sweep/domain"
)

type Config struct {
	Workers          int
	MaxWorkers       int
	ThreadsPerWorker int
	// Bytes of batch data a worker may hold; 0 is unbounded.
	MemoryLimit uint64
}

type worker struct {
	id    cluster.NodeId
	seq   int
	slots chan struct{}
	busy  int
	bytes uint64
	held  map[string]*handle
}

// Cluster implements substrate.Substrate in-process.
type Cluster struct {
	mu         sync.Mutex
	cfg        Config
	workers    map[cluster.NodeId]*worker
	membership *cluster.Membership
	handles    map[string]*handle
	nextSeq    int
	// Tasks that waited for a slot since the last Rebalance.
	queued int
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup
	stat   stats.StatsReceiver
}

func NewCluster(cfg Config, stat stats.StatsReceiver) (*Cluster, error) {
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("local cluster needs at least one worker, got %d", cfg.Workers)
	}
	if cfg.MaxWorkers < cfg.Workers {
		cfg.MaxWorkers = cfg.Workers
	}
	if cfg.ThreadsPerWorker < 1 {
		cfg.ThreadsPerWorker = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cluster{
		cfg:        cfg,
		workers:    make(map[cluster.NodeId]*worker),
		membership: cluster.NewMembership(nil),
		handles:    make(map[string]*handle),
		ctx:        ctx,
		cancel:     cancel,
		stat:       stat.Scope("substrate"),
	}
	c.mu.Lock()
	c.resize(cfg.Workers)
	c.mu.Unlock()
	return c, nil
}

func (c *Cluster) newWorker() *worker {
	c.nextSeq++
	return &worker{
		id:    cluster.NodeId(fmt.Sprintf("worker-%d", c.nextSeq)),
		seq:   c.nextSeq,
		slots: make(chan struct{}, c.cfg.ThreadsPerWorker),
		held:  make(map[string]*handle),
	}
}

// sorted returns workers in creation order. Caller holds mu.
func (c *Cluster) sorted() []*worker {
	ws := make([]*worker, 0, len(c.workers))
	for _, w := range c.workers {
		ws = append(ws, w)
	}
	sort.Slice(ws, func(i, j int) bool { return ws[i].seq < ws[j].seq })
	return ws
}

// resize grows or shrinks to n workers, newest removed first, and applies the
// membership diff. Batches on removed workers move to the lightest survivor.
// Caller holds mu.
func (c *Cluster) resize(n int) {
	current := c.sorted()
	pending := make(map[cluster.NodeId]*worker)
	nodes := []cluster.Node{}
	for i, w := range current {
		if i < n {
			nodes = append(nodes, cluster.NewIdStatusNode(string(w.id), "local"))
		}
	}
	for i := len(current); i < n; i++ {
		w := c.newWorker()
		pending[w.id] = w
		nodes = append(nodes, cluster.NewIdStatusNode(string(w.id), "local"))
	}

	var evicted []*handle
	for _, update := range c.membership.SetAndDiff(nodes) {
		switch update.UpdateType {
		case cluster.NodeAdded:
			c.workers[update.Id] = pending[update.Id]
		case cluster.NodeRemoved:
			for _, h := range c.workers[update.Id].held {
				evicted = append(evicted, h)
			}
			delete(c.workers, update.Id)
		}
		log.WithFields(log.Fields{"update": update}).Info("local cluster membership")
	}
	sort.Slice(evicted, func(i, j int) bool { return evicted[i].key < evicted[j].key })
	for _, h := range evicted {
		to := c.lightest()
		h.worker = to.id
		to.held[h.key] = h
		to.bytes += h.bytes
		c.stat.Counter(stats.SubstrateBatchesMovedCounter).Inc(1)
	}
	c.stat.Gauge(stats.SubstrateWorkersGauge).Update(int64(len(c.workers)))
}

// lightest is the worker holding the fewest bytes, ties to the oldest. Caller holds mu.
func (c *Cluster) lightest() *worker {
	var best *worker
	for _, w := range c.sorted() {
		if best == nil || w.bytes < best.bytes {
			best = w
		}
	}
	return best
}

func (c *Cluster) Scatter(ctx context.Context, batch domain.LabeledBatch) (substrate.DataHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, substrate.ErrClosed
	}
	size := batch.Docs.Bytes()
	w := c.lightest()
	if c.cfg.MemoryLimit > 0 && w.bytes+size > c.cfg.MemoryLimit {
		return nil, fmt.Errorf("no worker can hold %d more bytes for %s batch %d (limit %d, lightest %s holds %d)",
			size, batch.Phase, batch.Index, c.cfg.MemoryLimit, w.id, w.bytes)
	}

	meta := make(map[string]string, len(batch.Meta))
	for k, v := range batch.Meta {
		meta[k] = v
	}
	h := &handle{
		cluster: c,
		key:     fmt.Sprintf("%s-%d-%s", batch.Phase, batch.Index, id),
		phase:   batch.Phase,
		docs:    batch.Docs,
		meta:    meta,
		bytes:   size,
		worker:  w.id,
	}
	c.handles[h.key] = h
	w.held[h.key] = h
	w.bytes += size
	log.WithFields(log.Fields{
		"batch":  h.key,
		"worker": w.id,
		"docs":   len(batch.Docs),
		"bytes":  size,
	}).Debug("Scattered batch")
	return h, nil
}

func (c *Cluster) Submit(ctx context.Context, data substrate.DataHandle, task substrate.Task) (substrate.Future, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, substrate.ErrClosed
	}
	h, ok := c.handles[data.Key()]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", substrate.ErrUnknownHandle, data.Key())
	}
	w := c.workers[h.worker]
	c.tasks.Add(1)
	c.mu.Unlock()

	f := &future{id: id.String(), result: async.NewResult()}
	go c.run(f, w, h, task)
	return f, nil
}

func (c *Cluster) run(f *future, w *worker, h *handle, task substrate.Task) {
	defer c.tasks.Done()

	select {
	case w.slots <- struct{}{}:
	default:
		c.mu.Lock()
		c.queued++
		c.mu.Unlock()
		c.stat.Counter(stats.SubstrateQueuedTaskCounter).Inc(1)
		select {
		case w.slots <- struct{}{}:
		case <-c.ctx.Done():
			f.result.SetValue(domain.TaskResult{}, substrate.ErrClosed)
			return
		}
	}
	c.mu.Lock()
	w.busy++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		w.busy--
		c.mu.Unlock()
		<-w.slots
	}()

	watch := c.stat.Latency(stats.SubstrateTaskLatency_ms).Time()
	res, err := task(c.ctx, h.docs)
	watch.Stop()
	if err == nil && res.Worker == "" {
		res.Worker = string(w.id)
	}
	f.result.SetValue(res, err)
}

func (c *Cluster) Wait(ctx context.Context, futures []substrate.Future, timeout time.Duration) ([]substrate.Future, []substrate.Future, error) {
	return substrate.WaitFutures(ctx, futures, timeout)
}

func (c *Cluster) SchedulerInfo(ctx context.Context) (substrate.Info, error) {
	if err := ctx.Err(); err != nil {
		return substrate.Info{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return substrate.Info{}, substrate.ErrClosed
	}
	info := substrate.Info{Workers: make(map[cluster.NodeId]substrate.WorkerInfo, len(c.workers))}
	for id, w := range c.workers {
		info.Workers[id] = substrate.WorkerInfo{
			Id: id,
			Metrics: substrate.Metrics{
				CPU:    float64(w.busy) / float64(c.cfg.ThreadsPerWorker) * 100,
				Memory: w.bytes,
			},
			MemoryLimit: c.cfg.MemoryLimit,
			Running:     w.busy,
			Batches:     len(w.held),
		}
	}
	return info, nil
}

// Rebalance adds a worker, up to MaxWorkers, if tasks queued for slots since the
// previous call. It then moves batches from the heaviest worker to the lightest
// while doing so narrows the gap between them.
func (c *Cluster) Rebalance(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return substrate.ErrClosed
	}

	if c.queued > 0 && len(c.workers) < c.cfg.MaxWorkers {
		log.Infof("%d tasks queued for worker slots, growing local cluster to %d workers", c.queued, len(c.workers)+1)
		c.resize(len(c.workers) + 1)
	}
	c.queued = 0

	moved := 0
	for {
		heavy, light := c.extremes()
		if heavy == light {
			break
		}
		gap := heavy.bytes - light.bytes
		var pick *handle
		for _, h := range heavy.held {
			if h.bytes == 0 || h.bytes >= gap || (c.cfg.MemoryLimit > 0 && light.bytes+h.bytes > c.cfg.MemoryLimit) {
				continue
			}
			if pick == nil || h.bytes > pick.bytes || (h.bytes == pick.bytes && h.key < pick.key) {
				pick = h
			}
		}
		if pick == nil {
			break
		}
		delete(heavy.held, pick.key)
		heavy.bytes -= pick.bytes
		light.held[pick.key] = pick
		light.bytes += pick.bytes
		pick.worker = light.id
		moved++
	}
	if moved > 0 {
		c.stat.Counter(stats.SubstrateBatchesMovedCounter).Inc(int64(moved))
		log.Infof("Rebalance moved %d batches", moved)
	}
	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debugf("Workers after rebalance:\n%s", spew.Sdump(c.summary()))
	}
	return nil
}

type workerSummary struct {
	Id      cluster.NodeId
	Bytes   uint64
	Busy    int
	Batches []string
}

// summary is a printable view of the workers. Caller holds mu.
func (c *Cluster) summary() []workerSummary {
	out := []workerSummary{}
	for _, w := range c.sorted() {
		s := workerSummary{Id: w.id, Bytes: w.bytes, Busy: w.busy}
		for key := range w.held {
			s.Batches = append(s.Batches, key)
		}
		sort.Strings(s.Batches)
		out = append(out, s)
	}
	return out
}

// extremes returns the heaviest and lightest workers by bytes held. Caller holds mu.
func (c *Cluster) extremes() (heavy, light *worker) {
	for _, w := range c.sorted() {
		if heavy == nil || w.bytes > heavy.bytes {
			heavy = w
		}
		if light == nil || w.bytes < light.bytes {
			light = w
		}
	}
	return heavy, light
}

// Adapt keeps the worker count within [minWorkers, maxWorkers].
func (c *Cluster) Adapt(minWorkers, maxWorkers int) error {
	if minWorkers < 1 || maxWorkers < minWorkers {
		return fmt.Errorf("invalid worker bounds [%d, %d]", minWorkers, maxWorkers)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return substrate.ErrClosed
	}
	c.cfg.MaxWorkers = maxWorkers
	n := len(c.workers)
	if n < minWorkers {
		n = minWorkers
	}
	if n > maxWorkers {
		n = maxWorkers
	}
	c.resize(n)
	return nil
}

// Close cancels queued and running tasks and waits for their goroutines to exit.
func (c *Cluster) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.tasks.Wait()
	return nil
}

type handle struct {
	cluster *Cluster
	key     string
	phase   domain.Phase
	docs    domain.Documents
	meta    map[string]string
	bytes   uint64
	worker  cluster.NodeId
}

func (h *handle) Key() string         { return h.key }
func (h *handle) Phase() domain.Phase { return h.phase }
func (h *handle) Size() int           { return len(h.docs) }

func (h *handle) Meta(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := h.cluster
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, substrate.ErrClosed
	}
	meta := make(map[string]string, len(h.meta))
	for k, v := range h.meta {
		meta[k] = v
	}
	return meta, nil
}

func (h *handle) String() string {
	return h.key
}

type future struct {
	id     string
	result *async.Result
}

func (f *future) Id() string            { return f.id }
func (f *future) Done() <-chan struct{} { return f.result.Done() }

func (f *future) Result() (domain.TaskResult, error) {
	done, val, err := f.result.TryGetValue()
	if !done {
		return domain.TaskResult{}, fmt.Errorf("task %s has not completed", f.id)
	}
	res, _ := val.(domain.TaskResult)
	return res, err
}

var _ substrate.Substrate = (*Cluster)(nil)
