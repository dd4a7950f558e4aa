package models

import "errors"

// Custom errors
var (
	ErrEmptySeries   = errors.New("season series is empty")
	ErrUnknownStat   = errors.New("unknown statistic key")
	ErrUnknownDomain = errors.New("unknown prediction domain")
)
