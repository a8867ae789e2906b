package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/txsched/txsched/config"
	"github.com/txsched/txsched/metrics"
	"github.com/txsched/txsched/scheduler"
	"github.com/txsched/txsched/testutil"
	"github.com/txsched/txsched/types"
)

// fakeChainClient serves a manually advanced chain tip.
type fakeChainClient struct {
	height *atomic.Uint64
}

func newFakeChainClient(height uint64) *fakeChainClient {
	return &fakeChainClient{height: atomic.NewUint64(height)}
}

func (c *fakeChainClient) LatestBlock(_ context.Context) (*types.BlockInfo, error) {
	return types.NewBlockInfo(c.height.Load(), nil, time.Now()), nil
}

func (c *fakeChainClient) Close() error { return nil }

func newTestPoller(t *testing.T, cc scheduler.ChainClient) *scheduler.HeightPoller {
	t.Helper()

	cfg := config.DefaultPollerConfig()
	cfg.PollInterval = 10 * time.Millisecond

	return scheduler.NewHeightPoller(testutil.GetTestLogger(t), &cfg, cc, metrics.NewSchedulerMetrics())
}

func TestHeightPollerObservesNewTip(t *testing.T) {
	t.Parallel()

	cc := newFakeChainClient(5)
	poller := newTestPoller(t, cc)

	require.NoError(t, poller.Start(5))
	defer func() {
		require.NoError(t, poller.Stop())
	}()
	require.True(t, poller.IsRunning())

	cc.height.Store(6)

	select {
	case block := <-poller.BlockChan():
		require.Equal(t, uint64(6), block.Height)
	case <-time.After(2 * time.Second):
		t.Fatal("no block observed before the deadline")
	}

	require.Equal(t, uint64(6), poller.LastHeight())
}

func TestHeightPollerSkipsStaleTips(t *testing.T) {
	t.Parallel()

	cc := newFakeChainClient(10)
	poller := newTestPoller(t, cc)

	// starting at the current tip, nothing new should be pushed
	require.NoError(t, poller.Start(10))
	defer func() {
		require.NoError(t, poller.Stop())
	}()

	select {
	case block := <-poller.BlockChan():
		t.Fatalf("unexpected block at height %d", block.Height)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHeightPollerDoubleStart(t *testing.T) {
	t.Parallel()

	poller := newTestPoller(t, newFakeChainClient(1))

	require.NoError(t, poller.Start(1))
	require.Error(t, poller.Start(1))
	require.NoError(t, poller.Stop())
	require.Error(t, poller.Stop())
}
