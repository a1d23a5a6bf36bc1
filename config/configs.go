package config

import (
	"time"

	"github.com/twitter/sweep/trainer"
)

// Presets the map of available configurations
var Presets = map[string]Config{
	"default":     defaultConfig,
	"local.small": localSmall,
}

// defaultConfig the configuration values used for empty sections of other presets
var defaultConfig = Config{
	Corpus: CorpusConfig{
		Label:           "corpus",
		TrainRatio:      0.70,
		ValidationRatio: 0.15,
		BatchSize:       100,
	},
	Grid: GridConfig{
		StartTopics:    1,
		EndTopics:      10,
		StepSize:       5,
		PriorStart:     0.01,
		PriorStop:      1,
		PriorStep:      0.3,
		Phases:         []string{"train", "validation", "test"},
		SampleFraction: 0.375,
	},
	Cluster: ClusterConfig{
		Type:             "local",
		Workers:          1,
		MaxWorkers:       1,
		ThreadsPerWorker: 1,
		MemoryLimitGB:    4,
	},
	Throttle: ThrottleConfig{
		MaxCPUPercent:     100,
		MemoryThresholdGB: 4,
		MaxRetries:        5,
		BaseWait:          30 * time.Second,
	},
	Model: trainer.ModelConfig{
		Passes:        15,
		Iterations:    100,
		UpdateEvery:   5,
		EvalEvery:     5,
		RandomState:   50,
		PerWordTopics: true,
	},
	Output: OutputConfig{
		RootDir: "sweep_output",
	},
	Store: StoreConfig{
		Type: "file",
	},
	Persist: PersistConfig{
		Host:      "localhost",
		Port:      5432,
		BatchSize: 100,
	},
	Trainer: TrainerConfig{
		Type: "sim",
	},
}

// localSmall config for quick runs on one machine - !!! make sure this is added to the Presets map above !!!
var localSmall = Config{
	Corpus: CorpusConfig{
		Label:           "corpus",
		TrainRatio:      0.70,
		ValidationRatio: 0.15,
		BatchSize:       10,
	},
	Grid: GridConfig{
		StartTopics:    5,
		EndTopics:      10,
		StepSize:       5,
		AlphaValues:    []string{"symmetric", "0.31"},
		BetaValues:     []string{"symmetric", "0.31"},
		Phases:         []string{"train", "validation", "test"},
		SampleFraction: 0.375,
	},
	Cluster: ClusterConfig{
		Type:             "local",
		Workers:          2,
		MaxWorkers:       4,
		ThreadsPerWorker: 2,
		MemoryLimitGB:    1,
	},
	Throttle: ThrottleConfig{
		MaxCPUPercent:     90,
		MemoryThresholdGB: 1,
		MaxRetries:        3,
		BaseWait:          time.Second,
	},
	Model: trainer.ModelConfig{
		Passes:        5,
		Iterations:    50,
		UpdateEvery:   5,
		EvalEvery:     5,
		RandomState:   50,
		PerWordTopics: true,
	},
	Scheduler: SchedulerConfig{
		SubmitRate:  50,
		WaitTimeout: 10 * time.Minute,
	},
	Output: OutputConfig{
		RootDir: "sweep_output",
	},
	Persist: PersistConfig{
		Host:      "localhost",
		Port:      5432,
		BatchSize: 50,
	},
}
