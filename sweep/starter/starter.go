// Package starter builds a sweep from config: it brings up the substrate,
// partitions the corpus, draws the sample and runs the scheduler.
package starter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/sweep/common"
	sweeperror "github.com/twitter/sweep/common/errors"
	"github.com/twitter/sweep/common/stats"
	"github.com/twitter/sweep/config"
	"github.com/twitter/sweep/store"
	"github.com/twitter/sweep/substrate/local"
	"github.com/twitter/sweep/sweep/domain"
	"github.com/twitter/sweep/sweep/partition"
	"github.com/twitter/sweep/sweep/persist"
	"github.com/twitter/sweep/sweep/sampler"
	"github.com/twitter/sweep/sweep/scheduler"
	"github.com/twitter/sweep/sweep/throttle"
	"github.com/twitter/sweep/sweep/visualize"
	"github.com/twitter/sweep/trainer"
	"github.com/twitter/sweep/trainer/sim"
)

// Artifact locations, relative to the store root.
const (
	PerformanceLogDir = "visuals"
	TopicMapDir       = "visuals/topicmaps"
	OrdinationDir     = "visuals/ordination"
)

// Axes expands the grid section into the sweep axes and the topic grid used
// to resolve symbolic priors.
func Axes(g config.GridConfig) (sampler.Axes, sampler.Grid, error) {
	topics, err := sampler.TopicRange(g.StartTopics, g.EndTopics, g.StepSize)
	if err != nil {
		return sampler.Axes{}, sampler.Grid{}, err
	}

	var numeric []domain.Prior
	if len(g.AlphaValues) == 0 || len(g.BetaValues) == 0 {
		if numeric, err = sampler.ArangePriors(g.PriorStart, g.PriorStop, g.PriorStep); err != nil {
			return sampler.Axes{}, sampler.Grid{}, err
		}
	}
	alpha := sampler.DefaultAlphas(numeric)
	if len(g.AlphaValues) > 0 {
		if alpha, err = domain.ParsePriors(g.AlphaValues); err != nil {
			return sampler.Axes{}, sampler.Grid{}, errors.Wrapf(err, "alpha values")
		}
	}
	beta := sampler.DefaultBetas(numeric)
	if len(g.BetaValues) > 0 {
		if beta, err = domain.ParsePriors(g.BetaValues); err != nil {
			return sampler.Axes{}, sampler.Grid{}, errors.Wrapf(err, "beta values")
		}
	}

	phases := domain.AllPhases
	if len(g.Phases) > 0 {
		phases = make([]domain.Phase, 0, len(g.Phases))
		for _, name := range g.Phases {
			p, err := domain.ParsePhase(name)
			if err != nil {
				return sampler.Axes{}, sampler.Grid{}, err
			}
			phases = append(phases, p)
		}
	}

	return sampler.Axes{Topics: topics, Alpha: alpha, Beta: beta, Phases: phases}, sampler.NewGrid(topics), nil
}

// Sample draws this run's combinations. The draw is seeded with the model's random state.
func Sample(cfg config.Config) (sampler.Sample, sampler.Grid, error) {
	axes, grid, err := Axes(cfg.Grid)
	if err != nil {
		return sampler.Sample{}, sampler.Grid{}, err
	}
	sample, err := sampler.Draw(axes, cfg.Grid.SampleFraction, int64(cfg.Model.RandomState))
	if err != nil {
		return sampler.Sample{}, sampler.Grid{}, err
	}
	return sample, grid, nil
}

// Starter runs one sweep. The exported fields are optional overrides.
type Starter struct {
	// Progress and counts are printed here, defaults to stdout.
	Out io.Writer
	Now func() time.Time
	// Fetches remote data sources, defaults to a pester client.
	Client partition.Client
	// Replaces reading cfg.Corpus.DataSource.
	Reader  partition.BatchReader
	Trainer trainer.Trainer
	Sleeper throttle.Sleeper

	cfg   config.Config
	runID string
	stat  stats.StatsReceiver
}

func NewStarter(cfg config.Config) *Starter {
	reg := stats.NewJsonStatsRegistry()
	return &Starter{
		Out:   os.Stdout,
		Now:   time.Now,
		cfg:   cfg,
		runID: common.GenUUID(),
		stat:  stats.NewCustomStatsReceiver(func() stats.StatsRegistry { return reg }).Precision(time.Millisecond),
	}
}

func (s *Starter) RunID() string {
	return s.runID
}

func (s *Starter) Stats() stats.StatsReceiver {
	return s.stat
}

// Run executes the sweep. Fatal errors carry the exit code the binary should use.
func (s *Starter) Run(ctx context.Context) (scheduler.Summary, error) {
	cfg := s.cfg
	log.WithFields(log.Fields{
		"runID":  s.runID,
		"corpus": cfg.Corpus.Label,
	}).Info("Starting sweep")

	if err := cfg.Validate(); err != nil {
		return scheduler.Summary{}, sweeperror.NewError(err, sweeperror.ConfigFailureExitCode)
	}
	dirs := cfg.Dirs()
	for _, dir := range dirs.All() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return scheduler.Summary{}, sweeperror.NewError(errors.Wrapf(err, "creating %s", dir), sweeperror.ConfigFailureExitCode)
		}
	}
	defer s.writeStats(dirs.Metadata)

	cl, err := local.NewCluster(local.Config{
		Workers:          cfg.Cluster.Workers,
		MaxWorkers:       cfg.Cluster.MaxWorkers,
		ThreadsPerWorker: cfg.Cluster.ThreadsPerWorker,
		MemoryLimit:      cfg.MemoryLimitBytes(),
	}, s.stat)
	if err != nil {
		return scheduler.Summary{}, sweeperror.NewError(err, sweeperror.SubstrateFailureExitCode)
	}
	defer cl.Close()
	if err := checkSubstrate(ctx, cl); err != nil {
		return scheduler.Summary{}, sweeperror.NewError(err, sweeperror.SubstrateFailureExitCode)
	}
	if err := cl.Adapt(cfg.Cluster.Workers, cfg.Cluster.MaxWorkers); err != nil {
		return scheduler.Summary{}, sweeperror.NewError(err, sweeperror.SubstrateFailureExitCode)
	}

	reader, closer, err := s.reader(ctx)
	if err != nil {
		return scheduler.Summary{}, sweeperror.NewError(err, sweeperror.DataFailureExitCode)
	}
	if closer != nil {
		defer closer.Close()
	}
	pools, err := partition.NewPartitioner(cl, cfg.Scheduler.ScatterRetries, s.stat).Partition(ctx, reader)
	if err != nil {
		return scheduler.Summary{}, sweeperror.NewError(err, sweeperror.DataFailureExitCode)
	}
	train, validation, test := pools.Counts()
	fmt.Fprintf(s.Out, "Final count - Number of training futures: %d, validation futures: %d, test futures: %d\n", train, validation, test)

	sample, grid, err := Sample(cfg)
	if err != nil {
		return scheduler.Summary{}, sweeperror.NewError(err, sweeperror.ConfigFailureExitCode)
	}
	samplerStat := s.stat.Scope("sampler")
	samplerStat.Gauge(stats.SamplerGridSizeGauge).Update(int64(len(sample.Sampled) + len(sample.Remainder)))
	samplerStat.Gauge(stats.SamplerSampledGauge).Update(int64(len(sample.Sampled)))
	samplerStat.GaugeFloat(stats.SamplerFractionGauge).Update(cfg.Grid.SampleFraction)
	fmt.Fprintf(s.Out, "The random sample contains %d combinations. This leaves %d undrawn.\n", len(sample.Sampled), len(sample.Remainder))
	log.Infof("At most %d tasks will be submitted", sample.WorkBound(train, validation, test))

	artifacts, err := openStore(ctx, cfg, dirs)
	if err != nil {
		return scheduler.Summary{}, sweeperror.NewError(err, sweeperror.StoreFailureExitCode)
	}

	var persister persist.Persister
	if cfg.Persist.Enabled {
		db, err := persist.Open(ctx, persist.DefaultConfig(cfg.ConnectionString()))
		if err != nil {
			return scheduler.Summary{}, sweeperror.NewError(err, sweeperror.PersistInitExitCode)
		}
		defer db.Close()
		persister = persist.NewPostgresPersister(db, cfg.Corpus.Label, cfg.Persist.BatchSize, s.stat)
	}

	policy := throttle.Policy{
		Thresholds: throttle.Thresholds{
			MaxCPUPercent:  cfg.Throttle.MaxCPUPercent,
			MaxMemoryBytes: cfg.MemoryThresholdBytes(),
		},
		MaxRetries: cfg.Throttle.MaxRetries,
		BaseWait:   cfg.Throttle.BaseWait,
	}

	sched := scheduler.New(scheduler.Config{
		Model:             cfg.Model,
		Grid:              grid,
		SubmitRate:        cfg.Scheduler.SubmitRate,
		WaitTimeout:       cfg.Scheduler.WaitTimeout,
		PerformanceLogDir: PerformanceLogDir,
		TopicMapDir:       TopicMapDir,
		OrdinationDir:     OrdinationDir,
	}, scheduler.Deps{
		Substrate:  cl,
		Admitter:   throttle.NewController(policy, cl, s.Sleeper, s.stat),
		Trainer:    s.trainer(),
		Visualizer: visualize.NewSummaryVisualizer(artifacts),
		Persister:  persister,
		Listener:   scheduler.NewLoggingListener(),
		Out:        s.Out,
		Now:        s.Now,
		Stat:       s.stat,
	}, pools)

	summary, err := sched.Run(ctx, sample.Sampled)
	fmt.Fprintln(s.Out, summary.String())
	return summary, err
}

// checkSubstrate fails unless the substrate answers and reports at least one worker.
func checkSubstrate(ctx context.Context, cl *local.Cluster) error {
	info, err := cl.SchedulerInfo(ctx)
	if err != nil {
		return errors.Wrapf(err, "substrate is not running")
	}
	if len(info.Workers) < 1 {
		return errors.New("substrate has no workers")
	}
	log.Infof("Substrate is running with %d workers", len(info.Workers))
	return nil
}

func (s *Starter) reader(ctx context.Context) (partition.BatchReader, io.Closer, error) {
	if s.Reader != nil {
		return s.Reader, nil, nil
	}
	if s.cfg.Corpus.DataSource == "" {
		return nil, nil, errors.New("no data source configured")
	}
	client := s.Client
	if client == nil {
		client = partition.MakePesterClient()
	}
	rc, err := partition.Open(ctx, s.cfg.Corpus.DataSource, client)
	if err != nil {
		return nil, nil, err
	}
	return partition.NewJSONReader(rc, partition.ReaderConfig{
		TrainRatio:      s.cfg.Corpus.TrainRatio,
		ValidationRatio: s.cfg.Corpus.ValidationRatio,
		BatchSize:       s.cfg.Corpus.BatchSize,
		Seed:            int64(s.cfg.Model.RandomState),
	}), rc, nil
}

func (s *Starter) trainer() trainer.Trainer {
	if s.Trainer != nil {
		return s.Trainer
	}
	t := sim.NewTrainer()
	t.Delay = s.cfg.Trainer.Delay
	return t
}

func openStore(ctx context.Context, cfg config.Config, dirs config.Dirs) (store.Store, error) {
	switch cfg.Store.Type {
	case "minio":
		s, err := store.MakeMinioStore(ctx, cfg.Store.Minio)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := store.MakeFileStore(dirs.Root)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// writeStats snapshots every stat of the run to metadata/stats-<runID>.json.
func (s *Starter) writeStats(dir string) {
	path := filepath.Join(dir, fmt.Sprintf("stats-%s.json", s.runID))
	if err := os.WriteFile(path, s.stat.Render(true), 0644); err != nil {
		log.Errorf("Failed to write stats snapshot %s: %v", path, err)
		return
	}
	log.Infof("Wrote stats snapshot to %s", path)
}
