// Package throttle decides when a new wave of work may be admitted to the substrate.
package throttle

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/sweep/cloud/cluster"
	"github.com/twitter/sweep/common/stats"
	"github.com/twitter/sweep/substrate"
)

// Outcome of an admission.
type Outcome int

const (
	Proceed Outcome = iota
	// Retries ran out with workers still above threshold. The caller proceeds anyway.
	Exhausted
)

func (o Outcome) String() string {
	if o == Proceed {
		return "proceed"
	}
	return "exhausted"
}

type Action int

const (
	ActionProceed Action = iota
	ActionBackoff
	ActionExhausted
)

// Decision is the result of one poll. Wait is only set for ActionBackoff.
type Decision struct {
	Action Action
	Wait   time.Duration
}

type Thresholds struct {
	// Workers at or above this CPU percent are busy.
	MaxCPUPercent float64
	// Workers at or above this many bytes are busy.
	MaxMemoryBytes uint64
}

// Policy is the pure half of throttling: no polling, no sleeping.
type Policy struct {
	Thresholds Thresholds
	MaxRetries int
	BaseWait   time.Duration
}

// BelowThresholds is true when every worker is below both thresholds. No workers is vacuously true.
func (p Policy) BelowThresholds(workers map[cluster.NodeId]substrate.WorkerInfo) bool {
	for _, w := range workers {
		if w.Metrics.CPU >= p.Thresholds.MaxCPUPercent || w.Metrics.Memory >= p.Thresholds.MaxMemoryBytes {
			return false
		}
	}
	return true
}

// Backoff is BaseWait * 2^attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	return p.BaseWait << uint(attempt)
}

func (p Policy) Decide(workers map[cluster.NodeId]substrate.WorkerInfo, attempt int) Decision {
	if p.BelowThresholds(workers) {
		return Decision{Action: ActionProceed}
	}
	if attempt >= p.MaxRetries {
		return Decision{Action: ActionExhausted}
	}
	return Decision{Action: ActionBackoff, Wait: p.Backoff(attempt)}
}

// Monitor reports live worker metrics.
type Monitor interface {
	SchedulerInfo(ctx context.Context) (substrate.Info, error)
}

type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RealSleeper sleeps on a timer, waking early if the context ends.
func RealSleeper() Sleeper {
	return timerSleeper{}
}

// Controller polls a Monitor and backs off until workers drop below threshold
// or retries run out. It never changes substrate state.
type Controller struct {
	policy  Policy
	monitor Monitor
	sleeper Sleeper
	stat    stats.StatsReceiver
}

func NewController(policy Policy, monitor Monitor, sleeper Sleeper, stat stats.StatsReceiver) *Controller {
	if sleeper == nil {
		sleeper = RealSleeper()
	}
	return &Controller{policy: policy, monitor: monitor, sleeper: sleeper, stat: stat}
}

// Admit returns Proceed as soon as a poll is below threshold, or Exhausted after
// MaxRetries backoffs. An error is returned only if ctx ends during a sleep.
func (c *Controller) Admit(ctx context.Context) (Outcome, error) {
	defer c.stat.Latency(stats.ThrottleAdmitLatency_ms).Time().Stop()

	for attempt := 0; attempt < c.policy.MaxRetries; attempt++ {
		info, err := c.monitor.SchedulerInfo(ctx)
		var decision Decision
		if err != nil {
			c.stat.Counter(stats.ThrottlePollFailedCounter).Inc(1)
			log.WithError(err).Warn("Could not read worker metrics, treating workers as busy")
			decision = Decision{Action: ActionBackoff, Wait: c.policy.Backoff(attempt)}
		} else {
			decision = c.policy.Decide(info.Workers, attempt)
		}

		if decision.Action == ActionProceed {
			return Proceed, nil
		}
		if decision.Action == ActionExhausted {
			break
		}

		c.stat.Counter(stats.ThrottleBackoffCounter).Inc(1)
		log.WithFields(log.Fields{
			"wait":    decision.Wait,
			"busy":    busyWorkers(c.policy, info.Workers),
			"attempt": attempt,
		}).Warnf("Adaptive throttling (attempt %d of %d)", attempt, c.policy.MaxRetries-1)
		if log.IsLevelEnabled(log.DebugLevel) {
			log.Debugf("Worker metrics:\n%s", spew.Sdump(info.Workers))
		}
		if err := c.sleeper.Sleep(ctx, decision.Wait); err != nil {
			return Exhausted, err
		}
	}

	c.stat.Counter(stats.ThrottleExhaustedCounter).Inc(1)
	log.WithField("maxRetries", c.policy.MaxRetries).
		Warn("Maximum retries reached, proceeding with submission despite workers above threshold")
	return Exhausted, nil
}

func busyWorkers(p Policy, workers map[cluster.NodeId]substrate.WorkerInfo) []string {
	busy := []string{}
	for id, w := range workers {
		if w.Metrics.CPU >= p.Thresholds.MaxCPUPercent || w.Metrics.Memory >= p.Thresholds.MaxMemoryBytes {
			busy = append(busy, fmt.Sprintf("%s(cpu=%.0f%%, mem=%d)", id, w.Metrics.CPU, w.Metrics.Memory))
		}
	}
	sort.Strings(busy)
	return busy
}
