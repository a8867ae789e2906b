package types

import "time"

// BlockInfo describes a block observed on the chain.
type BlockInfo struct {
	Height    uint64
	Hash      []byte
	Timestamp time.Time
}

func NewBlockInfo(height uint64, hash []byte, timestamp time.Time) *BlockInfo {
	return &BlockInfo{
		Height:    height,
		Hash:      hash,
		Timestamp: timestamp,
	}
}

func (b *BlockInfo) GetHeight() uint64 { return b.Height }

func (b *BlockInfo) GetHash() []byte { return b.Hash }
