package substrate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/sweep/sweep/domain"
)

type chanFuture struct {
	id   string
	done chan struct{}
}

func newChanFuture(id string) *chanFuture {
	return &chanFuture{id: id, done: make(chan struct{})}
}

func (f *chanFuture) Id() string                         { return f.id }
func (f *chanFuture) Done() <-chan struct{}              { return f.done }
func (f *chanFuture) Result() (domain.TaskResult, error) { return domain.TaskResult{}, nil }

func TestWaitFuturesBlocksForAll(t *testing.T) {
	a, b := newChanFuture("a"), newChanFuture("b")
	go func() {
		time.Sleep(5 * time.Millisecond)
		close(b.done)
		close(a.done)
	}()

	done, pending, err := WaitFutures(context.Background(), []Future{a, b}, 0)
	require.NoError(t, err)
	assert.Equal(t, []Future{a, b}, done)
	assert.Empty(t, pending)
}

func TestWaitFuturesTimeout(t *testing.T) {
	a, b := newChanFuture("a"), newChanFuture("b")
	close(a.done)

	done, pending, err := WaitFutures(context.Background(), []Future{a, b}, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []Future{a}, done)
	assert.Equal(t, []Future{b}, pending)
}

func TestWaitFuturesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := WaitFutures(ctx, []Future{newChanFuture("a")}, 0)
	assert.Equal(t, context.Canceled, err)
}
