package scheduler

import "errors"

var (
	ErrBlockTooLow  = errors.New("the target block is not ahead of the latest block")
	ErrBlockTooHigh = errors.New("the target block is too far in the future")
	ErrTimeInPast   = errors.New("the target time is not in the future")
	ErrTimeTooFar   = errors.New("the target time is too far in the future")
)
