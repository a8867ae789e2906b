package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrUnknownCondition is returned when decoded data carries neither a time
// nor a block trigger, or both at once.
var ErrUnknownCondition = errors.New("condition has neither a time nor a block trigger")

type ConditionKind int

const (
	ConditionTime ConditionKind = iota
	ConditionBlock
)

func (k ConditionKind) String() string {
	switch k {
	case ConditionTime:
		return "time"
	case ConditionBlock:
		return "block"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Condition is the criterion that decides when a pending transaction should
// be released to the network. Exactly two implementations exist, TimeCondition
// and BlockCondition, discriminated at construction.
type Condition interface {
	Kind() ConditionKind
	String() string
}

var (
	_ Condition = (*TimeCondition)(nil)
	_ Condition = (*BlockCondition)(nil)
)

// TimeCondition releases at a wall-clock instant, stored as unix seconds.
type TimeCondition struct {
	Time int64
}

func NewTimeCondition(t time.Time) *TimeCondition {
	return &TimeCondition{Time: t.Unix()}
}

func (c *TimeCondition) Kind() ConditionKind { return ConditionTime }

func (c *TimeCondition) Timestamp() time.Time { return time.Unix(c.Time, 0) }

func (c *TimeCondition) String() string { return fmt.Sprintf("time(%d)", c.Time) }

func (c *TimeCondition) MarshalJSON() ([]byte, error) {
	return json.Marshal(conditionJSON{Time: &c.Time})
}

// BlockCondition releases once the chain reaches the target height. Its wire
// form is the 0x-prefixed hexadecimal string of the height.
type BlockCondition struct {
	Height uint64
}

func NewBlockCondition(height uint64) *BlockCondition {
	return &BlockCondition{Height: height}
}

func (c *BlockCondition) Kind() ConditionKind { return ConditionBlock }

// Hex returns the canonical 0x-prefixed form of the target height.
func (c *BlockCondition) Hex() string { return hexutil.EncodeUint64(c.Height) }

func (c *BlockCondition) String() string { return fmt.Sprintf("block(%s)", c.Hex()) }

func (c *BlockCondition) MarshalJSON() ([]byte, error) {
	hex := c.Hex()

	return json.Marshal(conditionJSON{Block: &hex})
}

// conditionJSON is the shared wire shape: {"time": <int>} or {"block": "0x<hex>"}.
type conditionJSON struct {
	Time  *int64  `json:"time,omitempty"`
	Block *string `json:"block,omitempty"`
}

// UnmarshalCondition decodes the wire form of a condition. Exactly one of the
// two trigger keys must be present.
func UnmarshalCondition(data []byte) (Condition, error) {
	var raw conditionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode the condition: %w", err)
	}

	switch {
	case raw.Time != nil && raw.Block == nil:
		return &TimeCondition{Time: *raw.Time}, nil
	case raw.Block != nil && raw.Time == nil:
		height, err := hexutil.DecodeUint64(*raw.Block)
		if err != nil {
			return nil, fmt.Errorf("invalid block trigger %q: %w", *raw.Block, err)
		}

		return &BlockCondition{Height: height}, nil
	default:
		return nil, ErrUnknownCondition
	}
}
