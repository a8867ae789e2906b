package config

import (
	"fmt"
	"time"
)

var (
	defaultBufferSize      = uint32(1000)
	defaultPollingInterval = 1 * time.Second
)

type PollerConfig struct {
	BufferSize   uint32        `long:"buffersize" description:"The maximum number of polled blocks that can be stored in the buffer"`
	PollInterval time.Duration `long:"pollinterval" description:"The interval between each polling of the latest block; the value should be set depending on the block production time"`
}

func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		BufferSize:   defaultBufferSize,
		PollInterval: defaultPollingInterval,
	}
}

func (c PollerConfig) Validate() error {
	if c.BufferSize == 0 {
		return fmt.Errorf("invalid buffersize: %d", c.BufferSize)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid pollinterval: %v", c.PollInterval)
	}

	return nil
}
