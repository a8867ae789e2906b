package store_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/txsched/txsched/config"
	"github.com/txsched/txsched/scheduler/store"
	"github.com/txsched/txsched/testutil"
	"github.com/txsched/txsched/types"
)

func makeTestStore(t *testing.T) *store.ScheduleStore {
	t.Helper()

	cfg := config.DefaultDBConfigWithHomePath(t.TempDir())
	db, err := cfg.GetDBBackend()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	st, err := store.NewScheduleStore(db)
	require.NoError(t, err)

	return st
}

func TestScheduleStoreDrainByBlock(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(10))
	st := makeTestStore(t)

	early := testutil.RandomPayload(r)
	exact := testutil.RandomPayload(r)
	late := testutil.RandomPayload(r)

	require.NoError(t, st.Add(types.NewBlockCondition(90), early))
	require.NoError(t, st.Add(types.NewBlockCondition(100), exact))
	require.NoError(t, st.Add(types.NewBlockCondition(101), late))

	pending, err := st.Pending(types.ConditionBlock)
	require.NoError(t, err)
	require.Equal(t, 3, pending)

	due, err := st.DueByBlock(100)
	require.NoError(t, err)
	require.ElementsMatch(t, [][]byte{early, exact}, due)

	// drained payloads are gone
	due, err = st.DueByBlock(100)
	require.NoError(t, err)
	require.Empty(t, due)

	due, err = st.DueByBlock(101)
	require.NoError(t, err)
	require.ElementsMatch(t, [][]byte{late}, due)
}

func TestScheduleStoreDrainByTime(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(11))
	st := makeTestStore(t)

	now := time.Unix(1700000000, 0)
	due := testutil.RandomPayload(r)
	future := testutil.RandomPayload(r)

	require.NoError(t, st.Add(types.NewTimeCondition(now.Add(-time.Minute)), due))
	require.NoError(t, st.Add(types.NewTimeCondition(now.Add(time.Hour)), future))

	released, err := st.DueByTime(now)
	require.NoError(t, err)
	require.ElementsMatch(t, [][]byte{due}, released)

	pending, err := st.Pending(types.ConditionTime)
	require.NoError(t, err)
	require.Equal(t, 1, pending)
}

func TestScheduleStoreDeduplicatesPayloads(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(12))
	st := makeTestStore(t)

	payload := testutil.RandomPayload(r)
	require.NoError(t, st.Add(types.NewBlockCondition(10), payload))
	require.NoError(t, st.Add(types.NewBlockCondition(10), payload))

	due, err := st.DueByBlock(10)
	require.NoError(t, err)
	require.Len(t, due, 1)
}

func TestScheduleStoreRejectsBadInput(t *testing.T) {
	t.Parallel()

	st := makeTestStore(t)

	require.ErrorIs(t, st.Add(types.NewBlockCondition(10), nil), store.ErrEmptyPayload)
	require.ErrorIs(t, st.Add(nil, []byte("payload")), types.ErrUnknownCondition)

	_, err := st.Pending(types.ConditionKind(42))
	require.ErrorIs(t, err, types.ErrUnknownCondition)
}
