// Package selector implements the condition-selection core: it tracks which
// release mode the user is editing (wall-clock time or block height),
// validates the input of each mode, and notifies the host with a normalized
// condition whenever the active input becomes valid.
package selector

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/txsched/txsched/types"
)

// Mode identifies which of the two condition kinds is being edited.
type Mode int

const (
	ModeTime Mode = iota
	ModeBlock
)

func (m Mode) String() string {
	switch m {
	case ModeTime:
		return "time"
	case ModeBlock:
		return "block"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// defaultLeadTime is how far ahead of now the initial time selection sits.
const defaultLeadTime = 3 * time.Hour

// Config carries everything the host supplies at construction.
type Config struct {
	// CurrentBlock is the latest known chain height; a block selection must
	// exceed it to be valid.
	CurrentBlock uint64
	// OnNewCondition is invoked synchronously with every newly valid
	// condition. Invalid input never reaches it.
	OnNewCondition func(types.Condition)
	Logger         *zap.Logger
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
}

// Selector owns the selection state for a single host component. All methods
// must be called from a single goroutine; mutations happen only on discrete
// input events, so no locking is involved.
type Selector struct {
	logger *zap.Logger
	now    func() time.Time
	emit   func(types.Condition)

	mode Mode

	minBlock       uint64
	inputBlockText string
	parsedBlock    int64
	blockValid     bool

	startTime time.Time
	inputTime time.Time

	lastExternal types.Condition
}

// New creates a selector in time mode with the chosen time preset to
// now + 3h. The preset is in the future, so the emitter fires once with the
// corresponding time condition before New returns.
func New(cfg Config) *Selector {
	s := &Selector{
		logger:   cfg.Logger,
		now:      cfg.Now,
		emit:     cfg.OnNewCondition,
		mode:     ModeTime,
		minBlock: cfg.CurrentBlock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.startTime = s.now()
	s.inputTime = s.startTime.Add(defaultLeadTime)

	if s.TimeValid() {
		s.emitCondition(types.NewTimeCondition(s.inputTime))
	}

	return s
}

// Mode returns the active selection mode.
func (s *Selector) Mode() Mode { return s.mode }

// SetMode switches the active mode. It is a pure assignment: the inactive
// mode's input is retained, nothing is validated and nothing is emitted, so a
// previously valid condition is not re-announced by switching back to it.
func (s *Selector) SetMode(mode Mode) {
	if mode == s.mode {
		return
	}
	s.mode = mode
	s.logger.Debug("selection mode switched", zap.Stringer("mode", mode))
}

// StartTime is the lower bound for time selection, captured at construction
// and never mutated. Pickers must disallow instants before it.
func (s *Selector) StartTime() time.Time { return s.startTime }

// ChosenTime returns the currently selected release time.
func (s *Selector) ChosenTime() time.Time { return s.inputTime }

// TimeValid reports whether the chosen time is strictly in the future. It is
// evaluated against the clock at every call: a selection that was valid can
// silently turn invalid purely through elapsed time, so callers must re-check
// at every observation point instead of caching the result.
func (s *Selector) TimeValid() bool {
	return s.inputTime.After(s.now())
}

// InputTime records a new time selection. Instants before StartTime are
// rejected outright. If the selection is valid the emitter fires once with
// its unix-seconds condition; otherwise the caller should surface Hint.
// The returned bool reports whether an emission happened.
func (s *Selector) InputTime(t time.Time) bool {
	if t.Before(s.startTime) {
		s.logger.Debug("rejected time below the selector lower bound",
			zap.Time("chosen", t), zap.Time("start_time", s.startTime))

		return false
	}

	s.inputTime = t
	if !s.TimeValid() {
		return false
	}

	s.emitCondition(types.NewTimeCondition(t))

	return true
}

// MinBlock returns the height a block selection must exceed.
func (s *Selector) MinBlock() uint64 { return s.minBlock }

// SetCurrentBlock resyncs the minimum height from the host and revalidates
// the stored block input against it. No emission follows; only edits emit.
func (s *Selector) SetCurrentBlock(height uint64) {
	s.minBlock = height
	s.setBlockText(s.inputBlockText)
}

// BlockText returns the raw block input as typed.
func (s *Selector) BlockText() string { return s.inputBlockText }

// ParsedBlock returns the last parsed value of the block input, 0 when the
// text was unparseable or empty.
func (s *Selector) ParsedBlock() int64 { return s.parsedBlock }

// BlockValid reports whether the parsed block exceeds the minimum height.
func (s *Selector) BlockValid() bool { return s.blockValid }

// InputBlock records new raw block text, re-deriving the parsed value and its
// validity together. A valid value fires the emitter once with the
// 0x-prefixed hex condition. The returned bool reports whether an emission
// happened.
func (s *Selector) InputBlock(raw string) bool {
	s.setBlockText(raw)
	if !s.blockValid {
		return false
	}

	s.emitCondition(types.NewBlockCondition(uint64(s.parsedBlock)))

	return true
}

// setBlockText is the single place parsedBlock and blockValid change; they
// are always derived together from the text.
func (s *Selector) setBlockText(raw string) {
	s.inputBlockText = raw
	s.parsedBlock = ParseBlockText(raw)
	s.blockValid = s.parsedBlock > 0 && uint64(s.parsedBlock) > s.minBlock
}

// Hint returns the validation hint for the active mode, empty when the
// current input is valid.
func (s *Selector) Hint() string {
	switch s.mode {
	case ModeBlock:
		if s.blockValid {
			return ""
		}
		if s.inputBlockText != "" {
			return fmt.Sprintf("the block number must exceed %d", s.minBlock)
		}
		if s.minBlock > 0 {
			return fmt.Sprintf("current block: %d", s.minBlock)
		}

		return "enter a target block number"
	default:
		if s.TimeValid() {
			return ""
		}

		return "select a future time"
	}
}

// ApplyExternalCondition reconciles the selector with a condition restored by
// the host, forcing the mode to match its variant. The sync path is inbound
// only: it never fires the emitter. Re-applying the same condition value is a
// no-op, and values of an unrecognized shape leave the state untouched.
func (s *Selector) ApplyExternalCondition(cond types.Condition) {
	if cond == nil || cond == s.lastExternal {
		return
	}

	switch c := cond.(type) {
	case *types.TimeCondition:
		s.mode = ModeTime
		s.inputTime = c.Timestamp()
	case *types.BlockCondition:
		s.mode = ModeBlock
		// reconstruct the display text from the height and re-run the
		// parse so the stored state matches what typing it would produce
		s.setBlockText(strconv.FormatUint(c.Height, 10))
	default:
		s.logger.Debug("ignoring external condition of unknown shape",
			zap.Stringer("condition", cond))

		return
	}

	s.lastExternal = cond
	s.logger.Debug("reconciled external condition", zap.Stringer("condition", cond))
}

func (s *Selector) emitCondition(cond types.Condition) {
	s.logger.Debug("emitting condition", zap.Stringer("condition", cond))
	if s.emit != nil {
		s.emit(cond)
	}
}
