package store

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/lightningnetwork/lnd/kvdb"

	"github.com/txsched/txsched/types"
)

var (
	// mapping: trigger height -> payload hash -> payload
	scheduleByBlockBucketName = []byte("schedule_by_block")
	// mapping: trigger unix seconds -> payload hash -> payload
	scheduleByTimeBucketName = []byte("schedule_by_time")
)

var (
	ErrCorruptedScheduleDB = errors.New("schedule db is corrupted")
	ErrEmptyPayload        = errors.New("payload cannot be empty")
)

// ScheduleStore persists pending payloads keyed by their release trigger.
type ScheduleStore struct {
	db kvdb.Backend
}

// NewScheduleStore returns a new store backed by db
func NewScheduleStore(db kvdb.Backend) (*ScheduleStore, error) {
	store := &ScheduleStore{db}
	if err := store.initBuckets(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *ScheduleStore) initBuckets() error {
	return kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		if _, err := tx.CreateTopLevelBucket(scheduleByBlockBucketName); err != nil {
			return err
		}
		_, err := tx.CreateTopLevelBucket(scheduleByTimeBucketName)

		return err
	})
}

func triggerKey(trigger uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, trigger)

	return key
}

// Add stores a payload under the condition's trigger. Payloads are keyed by
// their SHA-256, so re-adding an identical payload is a no-op.
func (s *ScheduleStore) Add(cond types.Condition, payload []byte) error {
	if len(payload) == 0 {
		return ErrEmptyPayload
	}

	var (
		bucketName []byte
		trigger    uint64
	)
	switch c := cond.(type) {
	case *types.BlockCondition:
		bucketName, trigger = scheduleByBlockBucketName, c.Height
	case *types.TimeCondition:
		if c.Time < 0 {
			return fmt.Errorf("invalid time trigger: %d", c.Time)
		}
		bucketName, trigger = scheduleByTimeBucketName, uint64(c.Time)
	default:
		return types.ErrUnknownCondition
	}

	digest := sha256.Sum256(payload)

	return kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		top := tx.ReadWriteBucket(bucketName)
		if top == nil {
			return ErrCorruptedScheduleDB
		}

		triggerBucket, err := top.CreateBucketIfNotExists(triggerKey(trigger))
		if err != nil {
			return err
		}

		return triggerBucket.Put(digest[:], payload)
	})
}

// DueByBlock drains every payload whose trigger height is at or below the
// given height: the payloads are returned and removed atomically.
func (s *ScheduleStore) DueByBlock(height uint64) ([][]byte, error) {
	return s.drain(scheduleByBlockBucketName, height)
}

// DueByTime drains every payload whose trigger time is at or before t.
func (s *ScheduleStore) DueByTime(t time.Time) ([][]byte, error) {
	unix := t.Unix()
	if unix < 0 {
		return nil, fmt.Errorf("invalid drain time: %s", t)
	}

	return s.drain(scheduleByTimeBucketName, uint64(unix))
}

func (s *ScheduleStore) drain(bucketName []byte, upTo uint64) ([][]byte, error) {
	var payloads [][]byte
	err := kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		// the batch closure may be retried, start from scratch
		payloads = nil

		top := tx.ReadWriteBucket(bucketName)
		if top == nil {
			return ErrCorruptedScheduleDB
		}

		var due [][]byte
		if err := top.ForEach(func(k, v []byte) error {
			// only trigger sub-buckets live at this level
			if v != nil || len(k) != 8 {
				return ErrCorruptedScheduleDB
			}
			if binary.BigEndian.Uint64(k) <= upTo {
				due = append(due, append([]byte(nil), k...))
			}

			return nil
		}); err != nil {
			return err
		}

		for _, key := range due {
			triggerBucket := top.NestedReadWriteBucket(key)
			if triggerBucket == nil {
				return ErrCorruptedScheduleDB
			}
			if err := collectPayloads(triggerBucket, &payloads); err != nil {
				return err
			}
			if err := top.DeleteNestedBucket(key); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return payloads, nil
}

func collectPayloads(bucket walletdb.ReadWriteBucket, out *[][]byte) error {
	return bucket.ForEach(func(_, v []byte) error {
		if v == nil {
			return ErrCorruptedScheduleDB
		}
		*out = append(*out, append([]byte(nil), v...))

		return nil
	})
}

// Pending counts the payloads currently scheduled for the given trigger kind.
func (s *ScheduleStore) Pending(kind types.ConditionKind) (int, error) {
	var bucketName []byte
	switch kind {
	case types.ConditionBlock:
		bucketName = scheduleByBlockBucketName
	case types.ConditionTime:
		bucketName = scheduleByTimeBucketName
	default:
		return 0, types.ErrUnknownCondition
	}

	var count int
	err := kvdb.View(s.db, func(tx kvdb.RTx) error {
		top := tx.ReadBucket(bucketName)
		if top == nil {
			return ErrCorruptedScheduleDB
		}

		return top.ForEach(func(k, v []byte) error {
			if v != nil {
				return ErrCorruptedScheduleDB
			}
			triggerBucket := top.NestedReadBucket(k)
			if triggerBucket == nil {
				return ErrCorruptedScheduleDB
			}

			return triggerBucket.ForEach(func(_, _ []byte) error {
				count++

				return nil
			})
		})
	}, func() {
		count = 0
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}
