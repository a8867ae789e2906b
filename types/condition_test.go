package types_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/txsched/txsched/types"
)

func TestBlockConditionHex(t *testing.T) {
	t.Parallel()

	require.Equal(t, "0x1f5", types.NewBlockCondition(501).Hex())
	require.Equal(t, "0x64", types.NewBlockCondition(100).Hex())
	require.Equal(t, "0x0", types.NewBlockCondition(0).Hex())
}

func TestConditionWireShapes(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(types.NewBlockCondition(501))
	require.NoError(t, err)
	require.JSONEq(t, `{"block":"0x1f5"}`, string(data))

	at := time.Unix(1700000000, 0)
	data, err = json.Marshal(types.NewTimeCondition(at))
	require.NoError(t, err)
	require.JSONEq(t, `{"time":1700000000}`, string(data))
}

func TestUnmarshalCondition(t *testing.T) {
	t.Parallel()

	cond, err := types.UnmarshalCondition([]byte(`{"block":"0x64"}`))
	require.NoError(t, err)
	block, ok := cond.(*types.BlockCondition)
	require.True(t, ok)
	require.Equal(t, uint64(100), block.Height)
	require.Equal(t, types.ConditionBlock, cond.Kind())

	cond, err = types.UnmarshalCondition([]byte(`{"time":1700000000}`))
	require.NoError(t, err)
	tc, ok := cond.(*types.TimeCondition)
	require.True(t, ok)
	require.Equal(t, int64(1700000000), tc.Time)
	require.Equal(t, time.Unix(1700000000, 0), tc.Timestamp())
}

func TestUnmarshalConditionRejectsUnknownShapes(t *testing.T) {
	t.Parallel()

	for _, data := range []string{
		`{}`,
		`{"foo":1}`,
		`{"time":1,"block":"0x1"}`,
	} {
		_, err := types.UnmarshalCondition([]byte(data))
		require.Error(t, err, data)
		require.True(t, errors.Is(err, types.ErrUnknownCondition), data)
	}

	_, err := types.UnmarshalCondition([]byte(`{"block":"nonsense"}`))
	require.Error(t, err)
	require.False(t, errors.Is(err, types.ErrUnknownCondition))
}
