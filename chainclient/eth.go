// Package chainclient provides the Ethereum JSON-RPC implementation of the
// scheduler's chain-facing interfaces.
package chainclient

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/txsched/txsched/types"
)

// EthClient talks to an Ethereum node. It backs both the height poller
// (latest block queries) and the submitter (raw transaction submission).
type EthClient struct {
	rpcClient *rpc.Client
	eth       *ethclient.Client
	logger    *zap.Logger
}

func Dial(ctx context.Context, rawURL string, logger *zap.Logger) (*EthClient, error) {
	rpcClient, err := rpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial the chain node %s: %w", rawURL, err)
	}

	return &EthClient{
		rpcClient: rpcClient,
		eth:       ethclient.NewClient(rpcClient),
		logger:    logger,
	}, nil
}

func (c *EthClient) LatestBlock(ctx context.Context) (*types.BlockInfo, error) {
	header, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query the latest header: %w", err)
	}

	return types.NewBlockInfo(
		header.Number.Uint64(),
		header.Hash().Bytes(),
		time.Unix(int64(header.Time), 0),
	), nil
}

// Submit sends a pre-signed raw transaction to the node.
func (c *EthClient) Submit(ctx context.Context, payload []byte) error {
	var txHash string
	if err := c.rpcClient.CallContext(
		ctx, &txHash, "eth_sendRawTransaction", hexutil.Encode(payload),
	); err != nil {
		return fmt.Errorf("failed to submit the raw transaction: %w", err)
	}

	c.logger.Debug("submitted the raw transaction", zap.String("tx_hash", txHash))

	return nil
}

func (c *EthClient) Close() error {
	c.rpcClient.Close()

	return nil
}
