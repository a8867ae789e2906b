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
	"github.com/txsched/txsched/scheduler/store"
	"github.com/txsched/txsched/types"
)

// Submitter drains due payloads from the schedule store and fans them out to
// every sink. Block-scheduled payloads are released when the chain reaches
// their trigger (minus the configured submit-earlier offset); time-scheduled
// payloads are released on a wall-clock tick.
type Submitter struct {
	isStarted *atomic.Bool
	wg        sync.WaitGroup
	quit      chan struct{}

	cfg       *config.SubmitterConfig
	store     *store.ScheduleStore
	sinks     []Sink
	blockChan <-chan *types.BlockInfo
	metrics   *metrics.SchedulerMetrics
	logger    *zap.Logger
}

func NewSubmitter(
	logger *zap.Logger,
	cfg *config.SubmitterConfig,
	st *store.ScheduleStore,
	sinks []Sink,
	metrics *metrics.SchedulerMetrics,
	blockChan <-chan *types.BlockInfo,
) *Submitter {
	return &Submitter{
		isStarted: atomic.NewBool(false),
		logger:    logger,
		cfg:       cfg,
		store:     st,
		sinks:     sinks,
		metrics:   metrics,
		blockChan: blockChan,
		quit:      make(chan struct{}),
	}
}

func (s *Submitter) Start() error {
	if s.isStarted.Swap(true) {
		return fmt.Errorf("the submitter is already started")
	}

	s.logger.Info("starting the submitter",
		zap.Int("sinks", len(s.sinks)),
		zap.Uint64("submit_earlier", s.cfg.SubmitEarlier))

	s.wg.Add(1)

	go s.releaseLoop()

	return nil
}

func (s *Submitter) Stop() error {
	if !s.isStarted.Swap(false) {
		return fmt.Errorf("the submitter has already stopped")
	}

	s.logger.Info("stopping the submitter")
	close(s.quit)
	s.wg.Wait()

	s.logger.Info("the submitter is successfully stopped")

	return nil
}

func (s *Submitter) IsRunning() bool {
	return s.isStarted.Load()
}

func (s *Submitter) releaseLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case block := <-s.blockChan:
			s.releaseByBlock(block.Height + s.cfg.SubmitEarlier)
		case <-ticker.C:
			s.releaseByTime(time.Now())
		case <-s.quit:
			return
		}
	}
}

func (s *Submitter) releaseByBlock(height uint64) {
	payloads, err := s.store.DueByBlock(height)
	if err != nil {
		s.logger.Error("unable to read the transactions scheduled by block",
			zap.Uint64("height", height), zap.Error(err))

		return
	}
	if len(payloads) == 0 {
		return
	}

	s.logger.Info("releasing the transactions scheduled by block",
		zap.Uint64("height", height), zap.Int("count", len(payloads)))

	s.fanOut(payloads)
	s.metrics.AddReleased(types.ConditionBlock.String(), len(payloads))
	s.metrics.RecordLastReleasedTime(time.Now())
}

func (s *Submitter) releaseByTime(now time.Time) {
	payloads, err := s.store.DueByTime(now)
	if err != nil {
		s.logger.Error("unable to read the transactions scheduled by time",
			zap.Time("now", now), zap.Error(err))

		return
	}
	if len(payloads) == 0 {
		return
	}

	s.logger.Info("releasing the transactions scheduled by time",
		zap.Time("now", now), zap.Int("count", len(payloads)))

	s.fanOut(payloads)
	s.metrics.AddReleased(types.ConditionTime.String(), len(payloads))
	s.metrics.RecordLastReleasedTime(now)
}

// fanOut pushes every payload to every sink. A sink that exhausts its retries
// is logged and counted; it never stops the release of the other payloads.
func (s *Submitter) fanOut(payloads [][]byte) {
	for _, payload := range payloads {
		for i, sink := range s.sinks {
			if err := s.submitWithRetry(sink, payload); err != nil {
				s.metrics.IncFailedSubmissions()
				s.logger.Warn("failed to submit the payload to the sink",
					zap.Int("sink", i), zap.Error(err))
			}
		}
	}
}

func (s *Submitter) submitWithRetry(sink Sink, payload []byte) error {
	return retry.Do(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SubmitTimeout)
		defer cancel()

		return sink.Submit(ctx, payload)
	}, RtyAtt, RtyDel, RtyErr, retry.OnRetry(func(n uint, err error) {
		s.logger.Debug(
			"failed to submit the payload",
			zap.Uint("attempt", n+1),
			zap.Uint("max_attempts", RtyAttNum),
			zap.Error(err),
		)
	}))
}
