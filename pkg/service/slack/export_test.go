package slack

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// NewJitterBackOff exposes the retry sleep policy for testing
func NewJitterBackOff(minWait, maxWait, hint time.Duration) backoff.BackOff {
	return &jitterBackOff{min: minWait, max: maxWait, hint: hint}
}

var (
	IsTransient   = isTransient
	RateLimitWait = rateLimitWait
)
