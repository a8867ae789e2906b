package selector_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/txsched/txsched/selector"
	"github.com/txsched/txsched/testutil"
	"github.com/txsched/txsched/types"
)

// emitRecorder captures every condition handed to the emitter.
type emitRecorder struct {
	conds []types.Condition
}

func (r *emitRecorder) record(c types.Condition) {
	r.conds = append(r.conds, c)
}

func (r *emitRecorder) reset() { r.conds = nil }

// testClock is a manually advanced clock for the selector.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestSelector(t *testing.T, currentBlock uint64) (*selector.Selector, *emitRecorder, *testClock) {
	t.Helper()

	rec := &emitRecorder{}
	clock := &testClock{now: time.Unix(1700000000, 0)}
	s := selector.New(selector.Config{
		CurrentBlock:   currentBlock,
		OnNewCondition: rec.record,
		Logger:         testutil.GetTestLogger(t),
		Now:            clock.Now,
	})

	return s, rec, clock
}

func TestNewEmitsDefaultTimeCondition(t *testing.T) {
	t.Parallel()

	s, rec, clock := newTestSelector(t, 0)

	require.Equal(t, selector.ModeTime, s.Mode())
	require.Equal(t, clock.Now(), s.StartTime())
	require.Equal(t, clock.Now().Add(3*time.Hour), s.ChosenTime())

	// the now+3h preset is valid, so construction announced it once
	require.Len(t, rec.conds, 1)
	cond, ok := rec.conds[0].(*types.TimeCondition)
	require.True(t, ok)
	require.Equal(t, clock.Now().Add(3*time.Hour).Unix(), cond.Time)
}

func TestInputTimeEmitsOncePerValidEdit(t *testing.T) {
	t.Parallel()

	s, rec, clock := newTestSelector(t, 0)
	rec.reset()

	chosen := clock.Now().Add(30 * time.Minute)
	require.True(t, s.InputTime(chosen))
	require.Len(t, rec.conds, 1)
	cond, ok := rec.conds[0].(*types.TimeCondition)
	require.True(t, ok)
	require.Equal(t, chosen.Unix(), cond.Time)
	require.Empty(t, s.Hint())
}

func TestInputTimeInPastDoesNotEmit(t *testing.T) {
	t.Parallel()

	s, rec, clock := newTestSelector(t, 0)
	clock.Advance(time.Hour)
	rec.reset()

	// equal to now counts as past: validity requires strictly greater
	require.False(t, s.InputTime(clock.Now()))
	require.Empty(t, rec.conds)
	require.Equal(t, "select a future time", s.Hint())
}

func TestInputTimeBelowStartTimeIsRejected(t *testing.T) {
	t.Parallel()

	s, rec, clock := newTestSelector(t, 0)
	rec.reset()

	before := s.ChosenTime()
	require.False(t, s.InputTime(clock.Now().Add(-time.Minute)))
	require.Empty(t, rec.conds)
	// the stored selection is untouched by a rejected pick
	require.Equal(t, before, s.ChosenTime())
}

func TestTimeValidityIsReevaluatedAgainstTheClock(t *testing.T) {
	t.Parallel()

	s, _, clock := newTestSelector(t, 0)

	require.True(t, s.InputTime(clock.Now().Add(time.Minute)))
	require.True(t, s.TimeValid())

	// no new event, just elapsed wall-clock time
	clock.Advance(2 * time.Minute)
	require.False(t, s.TimeValid())
	require.Equal(t, "select a future time", s.Hint())
}

func TestBlockValidityAgainstMinBlock(t *testing.T) {
	t.Parallel()

	s, rec, _ := newTestSelector(t, 100)
	s.SetMode(selector.ModeBlock)
	rec.reset()

	require.False(t, s.InputBlock("50"))
	require.Equal(t, int64(50), s.ParsedBlock())
	require.False(t, s.BlockValid())
	require.Empty(t, rec.conds)

	require.True(t, s.InputBlock("101"))
	require.Equal(t, int64(101), s.ParsedBlock())
	require.True(t, s.BlockValid())
	require.Len(t, rec.conds, 1)
	cond, ok := rec.conds[0].(*types.BlockCondition)
	require.True(t, ok)
	require.Equal(t, "0x65", cond.Hex())
}

func TestMountedWithCurrentBlockScenario(t *testing.T) {
	t.Parallel()

	s, rec, _ := newTestSelector(t, 500)
	s.SetMode(selector.ModeBlock)
	rec.reset()

	require.True(t, s.InputBlock("0x1f5"))
	require.Len(t, rec.conds, 1)
	cond, ok := rec.conds[0].(*types.BlockCondition)
	require.True(t, ok)
	require.Equal(t, "0x1f5", cond.Hex())

	require.False(t, s.InputBlock("400"))
	require.Len(t, rec.conds, 1)
	require.Contains(t, s.Hint(), "must exceed 500")
}

func TestBlockHints(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSelector(t, 500)
	s.SetMode(selector.ModeBlock)

	// nothing typed yet but a positive chain height is known
	require.Equal(t, "current block: 500", s.Hint())

	s.InputBlock("garbage")
	require.Equal(t, int64(0), s.ParsedBlock())
	require.Contains(t, s.Hint(), "must exceed 500")

	s.InputBlock("501")
	require.Empty(t, s.Hint())
}

func TestModeSwitchIsSilentAndRetainsInput(t *testing.T) {
	t.Parallel()

	s, rec, _ := newTestSelector(t, 100)
	s.SetMode(selector.ModeBlock)
	rec.reset()

	require.True(t, s.InputBlock("200"))
	require.Len(t, rec.conds, 1)
	rec.reset()

	s.SetMode(selector.ModeTime)
	s.SetMode(selector.ModeBlock)
	s.SetMode(selector.ModeBlock) // idempotent

	// toggling back restored the block state without re-emitting
	require.Empty(t, rec.conds)
	require.Equal(t, "200", s.BlockText())
	require.Equal(t, int64(200), s.ParsedBlock())
	require.True(t, s.BlockValid())
}

func TestSetCurrentBlockRevalidatesStoredInput(t *testing.T) {
	t.Parallel()

	s, rec, _ := newTestSelector(t, 100)
	s.SetMode(selector.ModeBlock)
	rec.reset()

	require.True(t, s.InputBlock("200"))
	rec.reset()

	s.SetCurrentBlock(300)
	require.False(t, s.BlockValid())
	require.Contains(t, s.Hint(), "must exceed 300")
	// host resync never emits
	require.Empty(t, rec.conds)
}

func TestApplyExternalBlockCondition(t *testing.T) {
	t.Parallel()

	s, rec, _ := newTestSelector(t, 50)
	rec.reset()

	s.ApplyExternalCondition(types.NewBlockCondition(100))

	require.Equal(t, selector.ModeBlock, s.Mode())
	require.Equal(t, "100", s.BlockText())
	require.Equal(t, int64(100), s.ParsedBlock())
	require.True(t, s.BlockValid())
	// sync is inbound only
	require.Empty(t, rec.conds)
}

func TestApplyExternalTimeCondition(t *testing.T) {
	t.Parallel()

	s, rec, clock := newTestSelector(t, 50)
	s.SetMode(selector.ModeBlock)
	rec.reset()

	at := clock.Now().Add(90 * time.Minute)
	s.ApplyExternalCondition(types.NewTimeCondition(at))

	require.Equal(t, selector.ModeTime, s.Mode())
	require.Equal(t, time.Unix(at.Unix(), 0), s.ChosenTime())
	require.Empty(t, rec.conds)
}

func TestApplyExternalConditionIsIdempotentPerValue(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSelector(t, 50)

	cond := types.NewBlockCondition(100)
	s.ApplyExternalCondition(cond)
	require.Equal(t, selector.ModeBlock, s.Mode())

	// re-applying the identical value must not force the mode back
	s.SetMode(selector.ModeTime)
	s.ApplyExternalCondition(cond)
	require.Equal(t, selector.ModeTime, s.Mode())

	// a distinct value with the same content is a new condition
	s.ApplyExternalCondition(types.NewBlockCondition(100))
	require.Equal(t, selector.ModeBlock, s.Mode())
}

func TestApplyExternalConditionIgnoresUnknownShapes(t *testing.T) {
	t.Parallel()

	s, rec, _ := newTestSelector(t, 50)
	s.SetMode(selector.ModeBlock)
	require.True(t, s.InputBlock("60"))
	rec.reset()

	s.ApplyExternalCondition(nil)
	s.ApplyExternalCondition(bogusCondition{})

	require.Equal(t, selector.ModeBlock, s.Mode())
	require.Equal(t, "60", s.BlockText())
	require.Empty(t, rec.conds)
}

type bogusCondition struct{}

func (bogusCondition) Kind() types.ConditionKind { return types.ConditionKind(42) }

func (bogusCondition) String() string { return "bogus" }
