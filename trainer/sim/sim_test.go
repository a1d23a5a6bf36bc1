package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/sweep/sweep/domain"
	"github.com/twitter/sweep/trainer"
)

var (
	key  = domain.NewModelKey(10, domain.Symbol(domain.Symmetric), domain.Numeric(0.31))
	docs = domain.Documents{{"topic", "model"}, {"grid", "search", "sweep"}}
	cfg  = trainer.ModelConfig{Passes: 15, Iterations: 100, UpdateEvery: 5, EvalEvery: 5, RandomState: 50, PerWordTopics: true}
)

func TestTrainThenEvaluate(t *testing.T) {
	tr := NewTrainer()
	res, err := tr.TrainOrEvaluate(context.Background(), trainer.NewRequest(key, domain.Train, cfg, 2, nil), docs)
	require.NoError(t, err)
	assert.Equal(t, key, res.Key)
	assert.Equal(t, domain.Train, res.Phase)
	require.NotNil(t, res.Model)
	assert.Equal(t, key, res.Model.Key())
	assert.Equal(t, 5.0, res.Metrics["tokens"])

	eval, err := tr.TrainOrEvaluate(context.Background(), trainer.NewRequest(key, domain.Validation, cfg, 2, res.Model), docs)
	require.NoError(t, err)
	assert.Equal(t, res.Model.ID(), eval.Model.ID())
	assert.Equal(t, 2, tr.Calls())
}

func TestDeterministic(t *testing.T) {
	a, _ := NewTrainer().TrainOrEvaluate(context.Background(), trainer.NewRequest(key, domain.Train, cfg, 1, nil), docs)
	b, _ := NewTrainer().TrainOrEvaluate(context.Background(), trainer.NewRequest(key, domain.Train, cfg, 1, nil), docs)
	assert.Equal(t, a.Model.ID(), b.Model.ID())
	assert.Equal(t, a.Metrics, b.Metrics)
}

func TestEvaluateWithoutModel(t *testing.T) {
	_, err := NewTrainer().TrainOrEvaluate(context.Background(), trainer.NewRequest(key, domain.Test, cfg, 1, nil), docs)
	assert.Error(t, err)
}

func TestInjectedFailure(t *testing.T) {
	tr := NewTrainer()
	tr.Fail(key, domain.Train)
	_, err := tr.TrainOrEvaluate(context.Background(), trainer.NewRequest(key, domain.Train, cfg, 1, nil), docs)
	assert.True(t, errors.Is(err, ErrInjected))
}

func TestDelayHonorsContext(t *testing.T) {
	tr := NewTrainer()
	tr.Delay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.TrainOrEvaluate(ctx, trainer.NewRequest(key, domain.Train, cfg, 1, nil), docs)
	assert.Equal(t, context.Canceled, err)
}
