package rate

import "errors"

var (
	// ErrRateLimited is returned when a counter is over budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable is returned when Redis cannot be reached.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
