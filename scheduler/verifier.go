package scheduler

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/txsched/txsched/types"
)

const (
	// DefaultMaxFutureBlocks bounds how far ahead of the latest block a
	// block condition may point.
	DefaultMaxFutureBlocks = uint64(1_000_000)
	// DefaultMaxFutureAge bounds how far ahead of now a time condition may
	// point.
	DefaultMaxFutureAge = 365 * 24 * time.Hour
)

// Verifier checks that an incoming condition targets a plausible future
// trigger before it is accepted into the schedule.
type Verifier struct {
	maxFutureBlocks uint64
	maxFutureAge    time.Duration
	logger          *zap.Logger
}

func NewVerifier(maxFutureBlocks uint64, maxFutureAge time.Duration, logger *zap.Logger) *Verifier {
	if maxFutureBlocks == 0 {
		maxFutureBlocks = DefaultMaxFutureBlocks
	}
	if maxFutureAge <= 0 {
		maxFutureAge = DefaultMaxFutureAge
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Verifier{
		maxFutureBlocks: maxFutureBlocks,
		maxFutureAge:    maxFutureAge,
		logger:          logger,
	}
}

// Verify validates the condition against the latest known height and clock.
func (v *Verifier) Verify(cond types.Condition, latestHeight uint64, now time.Time) error {
	switch c := cond.(type) {
	case *types.BlockCondition:
		if c.Height <= latestHeight {
			v.logger.Debug("rejecting condition: block too low",
				zap.Uint64("target", c.Height), zap.Uint64("latest", latestHeight))

			return fmt.Errorf("%w: %d <= %d", ErrBlockTooLow, c.Height, latestHeight)
		}
		if c.Height > latestHeight+v.maxFutureBlocks {
			v.logger.Debug("rejecting condition: block too high",
				zap.Uint64("target", c.Height), zap.Uint64("latest", latestHeight))

			return fmt.Errorf("%w: %d > %d", ErrBlockTooHigh, c.Height, latestHeight+v.maxFutureBlocks)
		}
	case *types.TimeCondition:
		target := c.Timestamp()
		if !target.After(now) {
			v.logger.Debug("rejecting condition: time in the past",
				zap.Time("target", target), zap.Time("now", now))

			return fmt.Errorf("%w: %s", ErrTimeInPast, target)
		}
		if target.After(now.Add(v.maxFutureAge)) {
			v.logger.Debug("rejecting condition: time too far ahead",
				zap.Time("target", target), zap.Time("now", now))

			return fmt.Errorf("%w: %s", ErrTimeTooFar, target)
		}
	default:
		return types.ErrUnknownCondition
	}

	return nil
}
