package partition

import (
	"context"
	"errors"
	"io"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/golang/mock/gomock"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/sweep/common/stats"
	"github.com/twitter/sweep/substrate"
	"github.com/twitter/sweep/substrate/mocks"
	"github.com/twitter/sweep/sweep/domain"
)

func readAll(t *testing.T, r BatchReader) []domain.LabeledBatch {
	var out []domain.LabeledBatch
	for {
		b, err := r.Next(context.Background())
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, b)
	}
}

func TestJSONReaderBatchesByPhase(t *testing.T) {
	corpus := `[["a"], ["b"], ["c"], ["d"], ["e"]]`
	// Everything lands in train.
	r := NewJSONReader(strings.NewReader(corpus), ReaderConfig{TrainRatio: 1, BatchSize: 2})
	batches := readAll(t, r)
	require.Len(t, batches, 3)
	for i, b := range batches {
		assert.Equal(t, domain.Train, b.Phase)
		assert.Equal(t, i, b.Index)
	}
	assert.Equal(t, domain.Documents{{"a"}, {"b"}}, batches[0].Docs)
	assert.Equal(t, domain.Documents{{"e"}}, batches[2].Docs)
}

func TestJSONReaderSplitIsSeeded(t *testing.T) {
	var docs []string
	for i := 0; i < 200; i++ {
		docs = append(docs, `["w"]`)
	}
	corpus := "[" + strings.Join(docs, ",") + "]"
	cfg := ReaderConfig{TrainRatio: 0.7, ValidationRatio: 0.15, BatchSize: 1000, Seed: 50}

	count := func() map[domain.Phase]int {
		counts := map[domain.Phase]int{}
		for _, b := range readAll(t, NewJSONReader(strings.NewReader(corpus), cfg)) {
			counts[b.Phase] += len(b.Docs)
		}
		return counts
	}
	first := count()
	assert.Equal(t, first, count())
	assert.Equal(t, 200, first[domain.Train]+first[domain.Validation]+first[domain.Test])
	assert.True(t, first[domain.Train] > first[domain.Validation])
	assert.True(t, first[domain.Validation] > 0)
}

func TestJSONReaderMeta(t *testing.T) {
	corpus := `[
		{"tokens": ["x", "y"], "meta": {"n_topics": 10, "alpha_value": "symmetric", "beta_value": 0.31}},
		{"tokens": ["z"], "meta": {"n_topics": 5}}
	]`
	batches := readAll(t, NewJSONReader(strings.NewReader(corpus), ReaderConfig{BatchSize: 5}))
	require.Len(t, batches, 1)
	b := batches[0]
	assert.Equal(t, domain.Test, b.Phase)
	assert.Len(t, b.Docs, 2)

	key, err := domain.KeyFromMeta(b.Meta)
	require.NoError(t, err)
	assert.Equal(t, domain.NewModelKey(10, domain.Symbol(domain.Symmetric), domain.Numeric(0.31)), key)
}

func TestJSONReaderMalformed(t *testing.T) {
	for _, corpus := range []string{`{"a": 1}`, `[["a"], 3]`, `[{"meta": {}}]`, `[["a"]`} {
		r := NewJSONReader(strings.NewReader(corpus), ReaderConfig{TrainRatio: 1, BatchSize: 1})
		var err error
		for err == nil {
			_, err = r.Next(context.Background())
		}
		assert.NotEqual(t, io.EOF, err, corpus)
	}
}

func TestOpenLocalAndRemote(t *testing.T) {
	dir, err := ioutil.TempDir("", "partition")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "corpus.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(`[["a"]]`), 0644))

	rc, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	data, _ := ioutil.ReadAll(rc)
	rc.Close()
	assert.Equal(t, `[["a"]]`, string(data))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/corpus.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`[["remote"]]`))
	}))
	defer srv.Close()

	rc, err = Open(context.Background(), srv.URL+"/corpus.json", http.DefaultClient)
	require.NoError(t, err)
	data, _ = ioutil.ReadAll(rc)
	rc.Close()
	assert.Equal(t, `[["remote"]]`, string(data))

	_, err = Open(context.Background(), srv.URL+"/missing.json", http.DefaultClient)
	assert.Error(t, err)
}

func handleFor(ctrl *gomock.Controller, phase domain.Phase) substrate.DataHandle {
	h := mocks.NewMockDataHandle(ctrl)
	h.EXPECT().Phase().Return(phase).AnyTimes()
	return h
}

func TestPartitionPools(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	sub := mocks.NewMockSubstrate(ctrl)
	sub.EXPECT().Scatter(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, b domain.LabeledBatch) (substrate.DataHandle, error) {
			return handleFor(ctrl, b.Phase), nil
		}).Times(4)

	reader := NewSliceReader(
		domain.LabeledBatch{Phase: domain.Train},
		domain.LabeledBatch{Phase: domain.Train, Index: 1},
		domain.LabeledBatch{Phase: domain.Validation},
		domain.LabeledBatch{Phase: domain.Phase(9)},
		domain.LabeledBatch{Phase: domain.Test},
	)
	reg := stats.NewJsonStatsRegistry()
	p := NewPartitioner(sub, 0, stats.NewCustomStatsReceiver(func() stats.StatsRegistry { return reg }))
	pools, err := p.Partition(context.Background(), reader)
	require.NoError(t, err)

	train, validation, test := pools.Counts()
	assert.Equal(t, 2, train)
	assert.Equal(t, 1, validation)
	assert.Equal(t, 1, test)
	stats.VerifyStats("", reg, t, map[string]stats.Rule{
		"partition/train/" + stats.PartitionScatteredCounter:        {Checker: stats.Int64EqTest, Value: 2},
		"partition/" + stats.PartitionUnknownPhaseCounter:           {Checker: stats.Int64EqTest, Value: 1},
		"partition/" + stats.PartitionBatchDocsHistogram + ".count": {Checker: stats.Int64EqTest, Value: 5},
	})
}

func TestPartitionSkipsFailedPlacement(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	sub := mocks.NewMockSubstrate(ctrl)
	gomock.InOrder(
		sub.EXPECT().Scatter(gomock.Any(), gomock.Any()).Return(nil, errors.New("worker full")),
		sub.EXPECT().Scatter(gomock.Any(), gomock.Any()).Return(handleFor(ctrl, domain.Validation), nil),
	)

	reg := stats.NewJsonStatsRegistry()
	p := NewPartitioner(sub, 0, stats.NewCustomStatsReceiver(func() stats.StatsRegistry { return reg }))
	pools, err := p.Partition(context.Background(), NewSliceReader(
		domain.LabeledBatch{Phase: domain.Train},
		domain.LabeledBatch{Phase: domain.Validation},
	))
	require.NoError(t, err)
	assert.Empty(t, pools.Train)
	assert.Len(t, pools.Validation, 1)
	stats.VerifyStats("", reg, t, map[string]stats.Rule{
		"partition/train/" + stats.PartitionScatterFailedCounter: {Checker: stats.Int64EqTest, Value: 1},
	})
}

func TestPartitionWithoutRetriesTriesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	sub := mocks.NewMockSubstrate(ctrl)
	sub.EXPECT().Scatter(gomock.Any(), gomock.Any()).Return(nil, errors.New("worker full")).Times(1)

	hook := logtest.NewGlobal()
	defer hook.Reset()
	reg := stats.NewJsonStatsRegistry()
	p := NewPartitioner(sub, 0, stats.NewCustomStatsReceiver(func() stats.StatsRegistry { return reg }))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	started := time.Now()
	pools, err := p.Partition(ctx, NewSliceReader(domain.LabeledBatch{Phase: domain.Train}))
	require.NoError(t, err)
	assert.Empty(t, pools.Train)
	assert.True(t, time.Since(started) < time.Second, "placement was retried")

	stats.VerifyStats("", reg, t, map[string]stats.Rule{
		"partition/train/" + stats.PartitionScatterFailedCounter: {Checker: stats.Int64EqTest, Value: 1},
	})
	skips := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.ErrorLevel && entry.Message == "Failed to scatter train batch, skipping" {
			skips++
			assert.Equal(t, domain.Train, entry.Data["phase"])
		}
	}
	assert.Equal(t, 1, skips)
}

func TestPartitionRetriesPlacement(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	sub := mocks.NewMockSubstrate(ctrl)
	gomock.InOrder(
		sub.EXPECT().Scatter(gomock.Any(), gomock.Any()).Return(nil, errors.New("transient")).Times(2),
		sub.EXPECT().Scatter(gomock.Any(), gomock.Any()).Return(handleFor(ctrl, domain.Train), nil),
	)

	p := NewCustomPartitioner(sub, func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}, stats.NilStatsReceiver())
	pools, err := p.Partition(context.Background(), NewSliceReader(domain.LabeledBatch{Phase: domain.Train}))
	require.NoError(t, err)
	assert.Len(t, pools.Train, 1)
}

type failingReader struct{ err error }

func (r failingReader) Next(context.Context) (domain.LabeledBatch, error) {
	return domain.LabeledBatch{}, r.err
}

func TestPartitionReaderErrorIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	sub := mocks.NewMockSubstrate(ctrl)

	p := NewPartitioner(sub, 0, stats.NilStatsReceiver())
	_, err := p.Partition(context.Background(), failingReader{errors.New("disk gone")})
	assert.EqualError(t, err, "disk gone")
}
