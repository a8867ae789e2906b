package config

import (
	"fmt"
	"time"
)

var (
	defaultSubmitEarlier = uint64(0)
	defaultTickInterval  = 1 * time.Second
	defaultSubmitTimeout = 10 * time.Second
)

type SubmitterConfig struct {
	SubmitEarlier uint64        `long:"submitearlier" description:"The number of blocks before the target at which block-scheduled transactions are already released"`
	TickInterval  time.Duration `long:"tickinterval" description:"The interval between each check for due time-scheduled transactions"`
	SubmitTimeout time.Duration `long:"submittimeout" description:"The timeout of a single sink submission"`
}

func DefaultSubmitterConfig() SubmitterConfig {
	return SubmitterConfig{
		SubmitEarlier: defaultSubmitEarlier,
		TickInterval:  defaultTickInterval,
		SubmitTimeout: defaultSubmitTimeout,
	}
}

func (c SubmitterConfig) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("invalid tickinterval: %v", c.TickInterval)
	}

	if c.SubmitTimeout <= 0 {
		return fmt.Errorf("invalid submittimeout: %v", c.SubmitTimeout)
	}

	return nil
}
