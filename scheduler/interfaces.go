// Package scheduler implements the server side of scheduled transactions:
// verifying release conditions, polling the chain height and releasing due
// payloads to the network.
package scheduler

import (
	"context"

	"github.com/txsched/txsched/types"
)

// ChainClient supplies the latest chain state to the height poller.
type ChainClient interface {
	LatestBlock(ctx context.Context) (*types.BlockInfo, error)
	Close() error
}

// Sink receives released payloads. Every registered sink receives every
// payload.
type Sink interface {
	Submit(ctx context.Context, payload []byte) error
}
