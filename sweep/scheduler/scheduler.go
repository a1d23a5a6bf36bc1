// Package scheduler drives each sampled combination through the phase state
// machine: admission, train, validation and test waves, visualization and recycling.
//
// The scheduler runs on a single coordinator goroutine. Tasks run on the
// substrate; their completions are dispatched back onto the coordinator
// through an async.Mailbox, so iteration state is never shared.
package scheduler

import (
	"context"
	"io"
	"path"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/twitter/sweep/async"
	sweeperror "github.com/twitter/sweep/common/errors"
	"github.com/twitter/sweep/common/stats"
	"github.com/twitter/sweep/substrate"
	"github.com/twitter/sweep/sweep/correlator"
	"github.com/twitter/sweep/sweep/domain"
	"github.com/twitter/sweep/sweep/partition"
	"github.com/twitter/sweep/sweep/persist"
	"github.com/twitter/sweep/sweep/sampler"
	"github.com/twitter/sweep/sweep/throttle"
	"github.com/twitter/sweep/sweep/visualize"
	"github.com/twitter/sweep/trainer"
)

// Config variables read at initialization
// SubmitRate - submissions per second across all waves, 0 is unlimited.
// WaitTimeout - how long a wave's join waits before abandoning pending tasks, 0 waits forever.
// PerformanceLogDir, TopicMapDir, OrdinationDir - store-relative artifact locations.
type Config struct {
	Model             trainer.ModelConfig
	Grid              sampler.Grid
	SubmitRate        float64
	WaitTimeout       time.Duration
	PerformanceLogDir string
	TopicMapDir       string
	OrdinationDir     string
}

type Admitter interface {
	Admit(ctx context.Context) (throttle.Outcome, error)
}

// Deps are the collaborators a Scheduler drives. Persister and Listener may be nil.
type Deps struct {
	Substrate  substrate.Substrate
	Admitter   Admitter
	Trainer    trainer.Trainer
	Visualizer visualize.Visualizer
	Persister  persist.Persister
	Listener   Listener
	// Progress lines are printed here.
	Out  io.Writer
	Now  func() time.Time
	Stat stats.StatsReceiver
}

type Scheduler struct {
	cfg       Config
	sub       substrate.Substrate
	admitter  Admitter
	trainer   trainer.Trainer
	vis       visualize.Visualizer
	persister persist.Persister
	listener  Listener
	pools     partition.Pools
	index     *correlator.ModelIndex
	limiter   *rate.Limiter
	out       io.Writer
	now       func() time.Time
	summary   Summary
	stat      stats.StatsReceiver
}

func New(cfg Config, deps Deps, pools partition.Pools) *Scheduler {
	if deps.Listener == nil {
		deps.Listener = NewNoopListener()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Stat == nil {
		deps.Stat = stats.NilStatsReceiver()
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.SubmitRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.SubmitRate), 1)
	}
	stat := deps.Stat.Scope("scheduler")
	return &Scheduler{
		cfg:       cfg,
		sub:       deps.Substrate,
		admitter:  deps.Admitter,
		trainer:   deps.Trainer,
		vis:       deps.Visualizer,
		persister: deps.Persister,
		listener:  deps.Listener,
		pools:     pools,
		index:     correlator.NewModelIndex(stat),
		limiter:   limiter,
		out:       deps.Out,
		now:       deps.Now,
		summary:   newSummary(),
		stat:      stat,
	}
}

// Index exposes the correlator, mainly for inspection in tests.
func (s *Scheduler) Index() *correlator.ModelIndex {
	return s.index
}

// Run drives every combination to RECYCLE in order. A fatal error stops the
// sweep and is returned wrapped with the iteration and state it occurred in.
func (s *Scheduler) Run(ctx context.Context, combos []domain.Combination) (Summary, error) {
	progress := NewProgress(s.out, len(combos), s.now)
	recycler := NewRecycler(s.index, s.sub, progress, s.stat)
	defer s.index.Reset()

	for i, combo := range combos {
		it := newIteration(i, combo)
		log.WithFields(log.Fields{
			"iteration":   i + 1,
			"of":          len(combos),
			"combination": combo,
		}).Info("Starting iteration")
		lat := s.stat.Latency(stats.SchedIterationLatency_ms).Time()

		for it.state != Done {
			next, err := s.step(ctx, it, recycler)
			if err != nil {
				if ctx.Err() != nil {
					err = sweeperror.NewError(err, sweeperror.InterruptedExitCode)
				}
				return s.summary, errors.Wrapf(err, "iteration %d %s in %s", i+1, combo, it.state)
			}
			s.transition(it, next)
		}
		lat.Stop()
		s.summary.Iterations++
		s.stat.Counter(stats.SchedIterationsCompletedCounter).Inc(1)
	}

	log.Info(s.summary.String())
	return s.summary, nil
}

func (s *Scheduler) transition(it *iteration, next State) {
	train, validation, test := it.counts()
	s.listener.StateChanged(Transition{
		Iteration:   it.n,
		Combination: it.combo,
		From:        it.state,
		To:          next,
		Pending:     len(it.pending),
		Results: map[string]int{
			domain.Train.String():      train,
			domain.Validation.String(): validation,
			domain.Test.String():       test,
		},
	})
	it.state = next
}

// step runs the current state and returns the next one.
func (s *Scheduler) step(ctx context.Context, it *iteration, recycler *Recycler) (State, error) {
	switch it.state {
	case Throttle:
		return s.throttle(ctx, it)
	case TrainSubmit:
		return s.trainSubmit(ctx, it)
	case TrainWait:
		return s.trainWait(ctx, it)
	case ValidateSubmit:
		return s.validateSubmit(ctx, it)
	case ValidateWait:
		return s.evalWait(ctx, it, domain.Validation, TestSubmit)
	case TestSubmit:
		return s.testSubmit(ctx, it)
	case TestWait:
		return s.evalWait(ctx, it, domain.Test, Visualize)
	case Visualize:
		return s.visualize(ctx, it)
	case Recycle:
		recycler.recycle(ctx, it)
		return Done, nil
	}
	return Done, errors.Errorf("unknown state %d", it.state)
}

func (s *Scheduler) throttle(ctx context.Context, it *iteration) (State, error) {
	outcome, err := s.admitter.Admit(ctx)
	if err != nil {
		return Throttle, err
	}
	if outcome == throttle.Exhausted {
		log.WithFields(log.Fields{
			"iteration":   it.n + 1,
			"combination": it.combo,
		}).Warn("Admission exhausted its retries, proceeding degraded")
		it.degraded = true
		s.summary.DegradedAdmissions++
	}

	info, err := s.sub.SchedulerInfo(ctx)
	switch {
	case err != nil:
		log.Warnf("Could not read worker count, assuming 1: %v", err)
	case len(info.Workers) > 0:
		it.workers = len(info.Workers)
	}
	return TrainSubmit, nil
}

func (s *Scheduler) request(it *iteration, key domain.ModelKey, phase domain.Phase, model domain.Model) trainer.Request {
	req := trainer.NewRequest(key, phase, s.cfg.Model, it.workers, model)
	req.ResolvedAlpha = s.cfg.Grid.Resolve(key.Alpha)
	req.ResolvedBeta = s.cfg.Grid.Resolve(key.Beta)
	return req
}

func (s *Scheduler) task(h substrate.DataHandle, req trainer.Request) substrate.Task {
	t := s.trainer
	batch := h.Key()
	return func(ctx context.Context, docs domain.Documents) (domain.TaskResult, error) {
		res, err := t.TrainOrEvaluate(ctx, req, docs)
		if err == nil && res.Batch == "" {
			res.Batch = batch
		}
		return res, err
	}
}

func (s *Scheduler) submit(ctx context.Context, it *iteration, h substrate.DataHandle, req trainer.Request) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	f, err := s.sub.Submit(ctx, h, s.task(h, req))
	if err != nil {
		return err
	}
	it.pending = append(it.pending, f)
	s.summary.Phases[req.Phase].Submitted++
	return nil
}

func (s *Scheduler) trainSubmit(ctx context.Context, it *iteration) (State, error) {
	key := it.combo.Key()
	for _, h := range s.pools.Train {
		req := s.request(it, key, domain.Train, nil)
		if err := s.submit(ctx, it, h, req); err != nil {
			if ctx.Err() != nil {
				return TrainSubmit, ctx.Err()
			}
			log.WithFields(log.Fields{
				"key":           key,
				"phase":         domain.Train,
				"batch":         h.Key(),
				"alpha":         req.ResolvedAlpha,
				"beta":          req.ResolvedBeta,
				"passes":        req.Passes,
				"iterations":    req.Iterations,
				"updateEvery":   req.UpdateEvery,
				"evalEvery":     req.EvalEvery,
				"randomState":   req.Seed,
				"perWordTopics": req.PerWordTopics,
				"workers":       req.Workers,
				"err":           err,
			}).Error("Failed to submit train task")
			return TrainSubmit, sweeperror.NewError(
				errors.Wrapf(err, "submitting train task for %s on %s", key, h.Key()),
				sweeperror.TrainSubmitFailureExitCode)
		}
		s.stat.Counter(stats.TrainSubmittedCounter).Inc(1)
	}
	return TrainWait, nil
}

// join waits for the wave in flight and hands each successful result to onResult
// on this goroutine. Failed tasks are counted and dropped; tasks still pending
// after WaitTimeout are abandoned.
func (s *Scheduler) join(ctx context.Context, it *iteration, phase domain.Phase, failed string, onResult func(domain.TaskResult)) error {
	defer s.stat.Latency(stats.WaveWaitLatency_ms).Time().Stop()

	bx := async.NewMailbox()
	for _, f := range it.pending {
		f := f
		bx.Watch(f, func() {
			res, err := f.Result()
			if err != nil {
				log.WithFields(log.Fields{
					"iteration": it.n + 1,
					"phase":     phase,
					"task":      f.Id(),
					"err":       err,
				}).Error("Task failed, dropping its result")
				s.stat.Counter(failed).Inc(1)
				s.summary.Phases[phase].Failed++
				return
			}
			onResult(res)
		})
	}

	if _, _, err := s.sub.Wait(ctx, it.pending, s.cfg.WaitTimeout); err != nil {
		return err
	}
	// A task settling after Wait returned is still collected, so only what
	// the mailbox holds afterwards is abandoned.
	bx.ProcessMessages()
	if pending := bx.Count(); pending > 0 {
		log.WithFields(log.Fields{
			"iteration": it.n + 1,
			"phase":     phase,
			"pending":   pending,
			"timeout":   s.cfg.WaitTimeout,
		}).Warn("Wave wait timed out, abandoning pending tasks")
		s.stat.Counter(stats.WaveAbandonedCounter).Inc(int64(pending))
		s.summary.Abandoned += pending
	}
	it.pending = nil
	return nil
}

func (s *Scheduler) collect(it *iteration, phase domain.Phase, res domain.TaskResult) {
	it.results[phase] = append(it.results[phase], res)
	s.summary.Phases[phase].Results++
}

func (s *Scheduler) trainWait(ctx context.Context, it *iteration) (State, error) {
	err := s.join(ctx, it, domain.Train, stats.TrainTaskFailedCounter, func(res domain.TaskResult) {
		if _, err := s.index.Record(res); err != nil {
			log.WithFields(log.Fields{
				"key": res.Key,
				"err": err,
			}).Error("Train result not recorded")
			s.stat.Counter(stats.TrainTaskFailedCounter).Inc(1)
			s.summary.Phases[domain.Train].Failed++
			return
		}
		s.collect(it, domain.Train, res)
	})
	if err != nil {
		return TrainWait, err
	}
	log.Infof("Iteration %d trained %d models", it.n+1, s.index.Len())
	return ValidateSubmit, nil
}

func (s *Scheduler) evalWait(ctx context.Context, it *iteration, phase domain.Phase, next State) (State, error) {
	failed := stats.ValidateTaskFailedCounter
	if phase == domain.Test {
		failed = stats.TestTaskFailedCounter
	}
	err := s.join(ctx, it, phase, failed, func(res domain.TaskResult) {
		s.collect(it, phase, res)
	})
	if err != nil {
		return it.state, err
	}
	return next, nil
}

// skip records a batch that was not submitted for want of a model or key.
func (s *Scheduler) skip(phase domain.Phase, counter string) {
	s.stat.Counter(counter).Inc(1)
	s.summary.Phases[phase].Skipped++
}

// submitEval looks up key's model and submits an evaluation of h. Misses and
// submission errors are logged and skipped.
func (s *Scheduler) submitEval(ctx context.Context, it *iteration, h substrate.DataHandle, key domain.ModelKey, phase domain.Phase) error {
	skipped, submitted, submitFailed := stats.ValidateSkippedCounter, stats.ValidateSubmittedCounter, stats.ValidateSubmitFailedCounter
	if phase == domain.Test {
		skipped, submitted, submitFailed = stats.TestSkippedCounter, stats.TestSubmittedCounter, stats.TestSubmitFailedCounter
	}

	model, ok := s.index.Lookup(key)
	if !ok {
		log.WithFields(log.Fields{
			"iteration": it.n + 1,
			"phase":     phase,
			"batch":     h.Key(),
			"err":       s.index.Require(key),
		}).Errorf("No trained model for %s, skipping batch", key)
		s.skip(phase, skipped)
		return nil
	}

	req := s.request(it, key, phase, model)
	if err := s.submit(ctx, it, h, req); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithFields(log.Fields{
			"iteration": it.n + 1,
			"phase":     phase,
			"key":       key,
			"batch":     h.Key(),
			"model":     model.ID(),
			"err":       err,
		}).Errorf("Failed to submit %s task, skipping batch", phase)
		s.stat.Counter(submitFailed).Inc(1)
		s.summary.Phases[phase].SubmitFailed++
		return nil
	}
	s.stat.Counter(submitted).Inc(1)
	return nil
}

// Validation batches are evaluated against the iteration's own key.
func (s *Scheduler) validateSubmit(ctx context.Context, it *iteration) (State, error) {
	key := it.combo.Key()
	for _, h := range s.pools.Validation {
		if err := s.submitEval(ctx, it, h, key, domain.Validation); err != nil {
			return ValidateSubmit, err
		}
	}
	return ValidateWait, nil
}

// Test batches name their key in the batch metadata.
func (s *Scheduler) testSubmit(ctx context.Context, it *iteration) (State, error) {
	for _, h := range s.pools.Test {
		meta, err := h.Meta(ctx)
		var key domain.ModelKey
		if err == nil {
			key, err = domain.KeyFromMeta(meta)
		}
		if err != nil {
			if ctx.Err() != nil {
				return TestSubmit, ctx.Err()
			}
			log.WithFields(log.Fields{
				"iteration": it.n + 1,
				"batch":     h.Key(),
				"err":       err,
			}).Error("Could not read model key from test batch, skipping")
			s.stat.Counter(stats.TestMetaFailedCounter).Inc(1)
			s.skip(domain.Test, stats.TestSkippedCounter)
			continue
		}
		if err := s.submitEval(ctx, it, h, key, domain.Test); err != nil {
			return TestSubmit, err
		}
	}
	return TestWait, nil
}

func (s *Scheduler) visualize(ctx context.Context, it *iteration) (State, error) {
	stamp := s.now()
	for _, phase := range domain.AllPhases {
		arts, err := s.vis.Visualize(ctx, visualize.Request{
			Results:        it.results[phase],
			Phase:          phase,
			PerformanceLog: path.Join(s.cfg.PerformanceLogDir, visualize.PerformanceLogName(phase, stamp)),
			Workers:        it.workers,
			TopicMapDir:    s.cfg.TopicMapDir,
			OrdinationDir:  s.cfg.OrdinationDir,
		})
		if errors.Is(err, visualize.ErrMissingKey) {
			log.WithFields(log.Fields{
				"iteration": it.n + 1,
				"phase":     phase,
				"err":       err,
			}).Error("Visualization hit a missing key, skipping the rest of this iteration's output")
			s.stat.Counter(stats.VisualizeSkippedCounter).Inc(1)
			s.summary.VisualizeSkipped++
			return Recycle, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return Visualize, ctx.Err()
			}
			return Visualize, sweeperror.NewError(
				errors.Wrapf(err, "visualizing %s results", phase),
				sweeperror.VisualizeFailureExitCode)
		}
		it.artifacts = it.artifacts.Merge(arts)
	}

	if s.persister != nil {
		batch := persist.Batch{
			Train:      it.results[domain.Train],
			Validation: it.results[domain.Validation],
			Test:       it.results[domain.Test],
			Artifacts:  it.artifacts,
		}
		if _, err := s.persister.Persist(ctx, batch); err != nil {
			log.WithFields(log.Fields{
				"iteration": it.n + 1,
				"results":   batch.Len(),
				"err":       err,
			}).Error("Failed to persist results, continuing")
			s.stat.Counter(stats.PersistFailedCounter).Inc(1)
			s.summary.PersistFailed++
		}
	}
	return Recycle, nil
}
