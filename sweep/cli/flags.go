package cli

import (
	"github.com/spf13/cobra"

	"github.com/twitter/sweep/common/client"
	"github.com/twitter/sweep/config"
)

// configFlags are per-field overrides of the loaded config. Only flags set on
// the command line are applied.
type configFlags struct {
	values config.Config
}

func (f *configFlags) register(cmd *cobra.Command) {
	f.values, _ = config.GetConfig("default")
	v := &f.values
	fs := cmd.Flags()

	fs.StringVar(&v.Corpus.Label, "corpus_label", v.Corpus.Label, "Corpus name, also the results table name")
	fs.StringVar(&v.Corpus.DataSource, "data_source", v.Corpus.DataSource, "Path or http(s) URL of the JSON document array")
	fs.Float64Var(&v.Corpus.TrainRatio, "train_ratio", v.Corpus.TrainRatio, "Fraction of documents used for training")
	fs.Float64Var(&v.Corpus.ValidationRatio, "validation_ratio", v.Corpus.ValidationRatio, "Fraction of documents used for validation")
	fs.IntVar(&v.Corpus.BatchSize, "futures_batches", v.Corpus.BatchSize, "Documents per scattered batch")

	fs.IntVar(&v.Grid.StartTopics, "start_topics", v.Grid.StartTopics, "Smallest topic count")
	fs.IntVar(&v.Grid.EndTopics, "end_topics", v.Grid.EndTopics, "Largest topic count, inclusive")
	fs.IntVar(&v.Grid.StepSize, "step_size", v.Grid.StepSize, "Topic count step")
	fs.Float64Var(&v.Grid.SampleFraction, "sample_fraction", v.Grid.SampleFraction, "Fraction of the grid to sweep")

	fs.IntVar(&v.Cluster.Workers, "num_workers", v.Cluster.Workers, "Workers to start with")
	fs.IntVar(&v.Cluster.MaxWorkers, "max_workers", v.Cluster.MaxWorkers, "Most workers the substrate may grow to")
	fs.IntVar(&v.Cluster.ThreadsPerWorker, "num_threads", v.Cluster.ThreadsPerWorker, "Task slots per worker")
	fs.Float64Var(&v.Cluster.MemoryLimitGB, "max_memory", v.Cluster.MemoryLimitGB, "Per-worker memory limit in GB")
	fs.Float64Var(&v.Throttle.MemoryThresholdGB, "mem_threshold", v.Throttle.MemoryThresholdGB, "Throttle when a worker holds this many GB")
	fs.Float64Var(&v.Throttle.MaxCPUPercent, "max_cpu", v.Throttle.MaxCPUPercent, "Throttle when a worker is at this CPU percent")
	fs.IntVar(&v.Throttle.MaxRetries, "max_retries", v.Throttle.MaxRetries, "Throttle backoffs before proceeding anyway")
	fs.DurationVar(&v.Throttle.BaseWait, "base_wait_time", v.Throttle.BaseWait, "First throttle backoff, doubled on each retry")

	fs.IntVar(&v.Model.Passes, "passes", v.Model.Passes, "Training passes over the corpus")
	fs.IntVar(&v.Model.Iterations, "iterations", v.Model.Iterations, "Inference iterations per pass")
	fs.IntVar(&v.Model.UpdateEvery, "update_every", v.Model.UpdateEvery, "Batches between model updates")
	fs.IntVar(&v.Model.EvalEvery, "eval_every", v.Model.EvalEvery, "Updates between perplexity estimates")
	fs.IntVar(&v.Model.RandomState, "random_state", v.Model.RandomState, "Seed for training, partitioning and sampling")
	fs.BoolVar(&v.Model.PerWordTopics, "per_word_topics", v.Model.PerWordTopics, "Compute per-word topic assignments")

	fs.StringVar(&v.Output.RootDir, "root_dir", v.Output.RootDir, "Output directory")
	fs.StringVar(&v.Output.LogDir, "log_dir", v.Output.LogDir, "Log directory, defaults to <root_dir>/log")

	fs.BoolVar(&v.Persist.Enabled, "persist", v.Persist.Enabled, "Write results to Postgres")
	fs.StringVar(&v.Persist.Username, "username", v.Persist.Username, "Postgres user")
	fs.StringVar(&v.Persist.Password, "password", v.Persist.Password, "Postgres password")
	fs.StringVar(&v.Persist.Host, "host", v.Persist.Host, "Postgres host")
	fs.IntVar(&v.Persist.Port, "port", v.Persist.Port, "Postgres port")
	fs.StringVar(&v.Persist.Database, "database", v.Persist.Database, "Postgres database")
}

// load reads the selected preset and file, then applies the flags that were set.
func (f *configFlags) load(cl *client.SimpleClient, cmd *cobra.Command) (config.Config, error) {
	cfg, err := cl.Config()
	if err != nil {
		return config.Config{}, err
	}
	v := f.values
	set := func(name string, assign func()) {
		if cmd.Flags().Changed(name) {
			assign()
		}
	}

	set("corpus_label", func() { cfg.Corpus.Label = v.Corpus.Label })
	set("data_source", func() { cfg.Corpus.DataSource = v.Corpus.DataSource })
	set("train_ratio", func() { cfg.Corpus.TrainRatio = v.Corpus.TrainRatio })
	set("validation_ratio", func() { cfg.Corpus.ValidationRatio = v.Corpus.ValidationRatio })
	set("futures_batches", func() { cfg.Corpus.BatchSize = v.Corpus.BatchSize })

	set("start_topics", func() { cfg.Grid.StartTopics = v.Grid.StartTopics })
	set("end_topics", func() { cfg.Grid.EndTopics = v.Grid.EndTopics })
	set("step_size", func() { cfg.Grid.StepSize = v.Grid.StepSize })
	set("sample_fraction", func() { cfg.Grid.SampleFraction = v.Grid.SampleFraction })

	set("num_workers", func() { cfg.Cluster.Workers = v.Cluster.Workers })
	set("max_workers", func() { cfg.Cluster.MaxWorkers = v.Cluster.MaxWorkers })
	set("num_threads", func() { cfg.Cluster.ThreadsPerWorker = v.Cluster.ThreadsPerWorker })
	set("max_memory", func() { cfg.Cluster.MemoryLimitGB = v.Cluster.MemoryLimitGB })
	set("mem_threshold", func() { cfg.Throttle.MemoryThresholdGB = v.Throttle.MemoryThresholdGB })
	set("max_cpu", func() { cfg.Throttle.MaxCPUPercent = v.Throttle.MaxCPUPercent })
	set("max_retries", func() { cfg.Throttle.MaxRetries = v.Throttle.MaxRetries })
	set("base_wait_time", func() { cfg.Throttle.BaseWait = v.Throttle.BaseWait })

	set("passes", func() { cfg.Model.Passes = v.Model.Passes })
	set("iterations", func() { cfg.Model.Iterations = v.Model.Iterations })
	set("update_every", func() { cfg.Model.UpdateEvery = v.Model.UpdateEvery })
	set("eval_every", func() { cfg.Model.EvalEvery = v.Model.EvalEvery })
	set("random_state", func() { cfg.Model.RandomState = v.Model.RandomState })
	set("per_word_topics", func() { cfg.Model.PerWordTopics = v.Model.PerWordTopics })

	set("root_dir", func() { cfg.Output.RootDir = v.Output.RootDir })
	set("log_dir", func() { cfg.Output.LogDir = v.Output.LogDir })

	set("persist", func() { cfg.Persist.Enabled = v.Persist.Enabled })
	set("username", func() { cfg.Persist.Username = v.Persist.Username })
	set("password", func() { cfg.Persist.Password = v.Persist.Password })
	set("host", func() { cfg.Persist.Host = v.Persist.Host })
	set("port", func() { cfg.Persist.Port = v.Persist.Port })
	set("database", func() { cfg.Persist.Database = v.Persist.Database })

	return cfg, nil
}
