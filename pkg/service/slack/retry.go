package slack

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/slack-go/slack"

	"github.com/secmon-lab/checkerboard/pkg/utils/logging"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt
	DefaultMaxRetries = 5
	// DefaultMinBackoff and DefaultMaxBackoff bound the random sleep between attempts
	DefaultMinBackoff = 2 * time.Second
	DefaultMaxBackoff = 5 * time.Second
	// DefaultCallTimeout bounds a single Slack API request
	DefaultCallTimeout = 30 * time.Second
)

// jitterBackOff waits a uniformly random duration in [min, max]. When Slack
// asked for a longer wait (Retry-After), that hint wins for the next sleep.
type jitterBackOff struct {
	min  time.Duration
	max  time.Duration
	hint time.Duration
}

func (b *jitterBackOff) NextBackOff() time.Duration {
	d := b.min
	if span := b.max - b.min; span > 0 {
		d += time.Duration(rand.Int64N(int64(span) + 1))
	}
	if b.hint > d {
		d = b.hint
	}
	b.hint = 0
	return d
}

func (b *jitterBackOff) Reset() {
	b.hint = 0
}

// call runs fn under the retry policy: every attempt gets its own timeout,
// transient failures are retried after a random sleep, anything else is
// returned right away. After maxRetries retries the last error is returned.
func (c *client) call(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	bo := &jitterBackOff{min: c.minBackoff, max: c.maxBackoff}
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx)

	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()

		err := fn(callCtx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if wait, ok := rateLimitWait(err); ok {
			bo.hint = wait
			return err
		}
		if !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		reason := "Cannot connect to Slack"
		if _, ok := rateLimitWait(err); ok {
			reason = "Rate-limited by Slack"
		}
		logging.From(ctx).Warn(reason+", backing off",
			"method", method,
			"sleep", wait.String(),
			"error", err.Error())
	}

	var timer backoff.Timer
	if c.newTimer != nil {
		timer = c.newTimer()
	}

	return backoff.RetryNotifyWithTimer(operation, policy, notify, timer)
}

// rateLimitWait reports whether err is Slack rate limiting, and the wait Slack
// asked for (zero if none).
func rateLimitWait(err error) (time.Duration, bool) {
	var rle *slack.RateLimitedError
	if errors.As(err, &rle) {
		return rle.RetryAfter, true
	}

	var sce slack.StatusCodeError
	if errors.As(err, &sce) && sce.Code == http.StatusTooManyRequests {
		return 0, true
	}

	var ser slack.SlackErrorResponse
	if errors.As(err, &ser) && ser.Err == "ratelimited" {
		return 0, true
	}

	return 0, false
}

// isTransient reports whether err is a connectivity problem worth retrying.
// Slack API errors (invalid_auth, user_not_found, ...) are not.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var sce slack.StatusCodeError
	if errors.As(err, &sce) {
		return sce.Code >= http.StatusInternalServerError
	}

	var ser slack.SlackErrorResponse
	if errors.As(err, &ser) {
		switch ser.Err {
		case "internal_error", "fatal_error", "service_unavailable", "request_timeout":
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// isUserGone reports whether the user disappeared between listing and lookup
func isUserGone(err error) bool {
	var ser slack.SlackErrorResponse
	return errors.As(err, &ser) && ser.Err == "user_not_found"
}

// isMalformed reports whether err comes from decoding an unexpected response shape
func isMalformed(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
