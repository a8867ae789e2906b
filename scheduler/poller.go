package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/txsched/txsched/config"
	"github.com/txsched/txsched/metrics"
	"github.com/txsched/txsched/types"
)

var (
	RtyAttNum = uint(5)
	RtyAtt    = retry.Attempts(RtyAttNum)
	RtyDel    = retry.Delay(time.Millisecond * 400)
	RtyErr    = retry.LastErrorOnly(true)
)

const (
	maxFailedCycles = 20
)

// HeightPoller tracks the chain tip and pushes every newly observed block
// into its channel for the submitter to act on.
type HeightPoller struct {
	isStarted *atomic.Bool
	wg        sync.WaitGroup
	quit      chan struct{}

	cc         ChainClient
	cfg        *config.PollerConfig
	metrics    *metrics.SchedulerMetrics
	blockChan  chan *types.BlockInfo
	lastHeight uint64
	logger     *zap.Logger
	mu         sync.RWMutex
}

func NewHeightPoller(
	logger *zap.Logger,
	cfg *config.PollerConfig,
	cc ChainClient,
	metrics *metrics.SchedulerMetrics,
) *HeightPoller {
	return &HeightPoller{
		isStarted: atomic.NewBool(false),
		logger:    logger,
		cfg:       cfg,
		cc:        cc,
		metrics:   metrics,
		blockChan: make(chan *types.BlockInfo, cfg.BufferSize),
		quit:      make(chan struct{}),
	}
}

func (p *HeightPoller) Start(startHeight uint64) error {
	if p.isStarted.Swap(true) {
		return fmt.Errorf("the height poller is already started")
	}

	p.logger.Info("starting the height poller")

	p.lastHeight = startHeight

	p.wg.Add(1)

	go p.pollChain()

	p.metrics.RecordPollerStartingHeight(startHeight)
	p.logger.Info("the height poller is successfully started")

	return nil
}

func (p *HeightPoller) Stop() error {
	if !p.isStarted.Swap(false) {
		return fmt.Errorf("the height poller has already stopped")
	}

	p.logger.Info("stopping the height poller")
	close(p.quit)
	p.wg.Wait()

	p.logger.Info("the height poller is successfully stopped")

	return nil
}

func (p *HeightPoller) IsRunning() bool {
	return p.isStarted.Load()
}

// BlockChan returns the read-only channel of newly observed blocks
func (p *HeightPoller) BlockChan() <-chan *types.BlockInfo {
	return p.blockChan
}

func (p *HeightPoller) LastHeight() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.lastHeight
}

func (p *HeightPoller) setLastHeight(height uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastHeight = height
}

func (p *HeightPoller) latestBlockWithRetry() (*types.BlockInfo, error) {
	var (
		latestBlock *types.BlockInfo
		err         error
	)

	if err := retry.Do(func() error {
		latestBlock, err = p.cc.LatestBlock(context.Background())
		if err != nil {
			return err
		}

		return nil
	}, RtyAtt, RtyDel, RtyErr, retry.OnRetry(func(n uint, err error) {
		p.logger.Debug(
			"failed to query the chain for the latest block",
			zap.Uint("attempt", n+1),
			zap.Uint("max_attempts", RtyAttNum),
			zap.Error(err),
		)
	})); err != nil {
		return nil, err
	}

	return latestBlock, nil
}

func (p *HeightPoller) pollChain() {
	defer p.wg.Done()

	var failedCycles uint32

	for {
		latestBlock, err := p.latestBlockWithRetry()
		if err != nil {
			failedCycles++
			p.logger.Debug(
				"failed to query the chain for the latest block",
				zap.Uint32("current_failures", failedCycles),
				zap.Error(err),
			)
		} else {
			failedCycles = 0
			if latestBlock.Height > p.LastHeight() {
				p.setLastHeight(latestBlock.Height)
				p.metrics.RecordLatestHeight(latestBlock.Height)

				p.logger.Debug("the poller observed a new chain tip",
					zap.Uint64("height", latestBlock.Height))

				// push the block to the channel
				// Note: if the consumer is too slow -- the buffer is full
				// the channel will block, and we will stop polling the node
				p.blockChan <- latestBlock
			}
		}

		if failedCycles > maxFailedCycles {
			p.logger.Fatal("the poller has reached the max failed cycles, exiting")
		}

		select {
		case <-time.After(p.cfg.PollInterval):
			continue
		case <-p.quit:
			return
		}
	}
}
