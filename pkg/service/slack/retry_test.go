package slack_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	slackgo "github.com/slack-go/slack"

	"github.com/secmon-lab/checkerboard/pkg/service/slack"
)

func TestJitterBackOffStaysInRange(t *testing.T) {
	bo := slack.NewJitterBackOff(2*time.Second, 5*time.Second, 0)
	for range 1000 {
		d := bo.NextBackOff()
		gt.Bool(t, d >= 2*time.Second).True()
		gt.Bool(t, d <= 5*time.Second).True()
	}
}

func TestJitterBackOffHonorsRetryAfter(t *testing.T) {
	bo := slack.NewJitterBackOff(2*time.Second, 5*time.Second, 30*time.Second)
	gt.Value(t, bo.NextBackOff()).Equal(30 * time.Second)

	// the hint applies to one sleep only
	d := bo.NextBackOff()
	gt.Bool(t, d <= 5*time.Second).True()
}

func TestIsTransient(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "connection dropped",
			err:  &url.Error{Op: "Post", URL: "https://slack.com/api/users.list", Err: io.EOF},
			want: true,
		},
		{
			name: "per-call timeout",
			err:  fmt.Errorf("request: %w", context.DeadlineExceeded),
			want: true,
		},
		{
			name: "server error",
			err:  slackgo.StatusCodeError{Code: 503, Status: "503 Service Unavailable"},
			want: true,
		},
		{
			name: "client error",
			err:  slackgo.StatusCodeError{Code: 400, Status: "400 Bad Request"},
			want: false,
		},
		{
			name: "invalid auth",
			err:  slackgo.SlackErrorResponse{Err: "invalid_auth"},
			want: false,
		},
		{
			name: "slack internal error",
			err:  slackgo.SlackErrorResponse{Err: "internal_error"},
			want: true,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Value(t, slack.IsTransient(tc.err)).Equal(tc.want)
		})
	}
}

func TestRateLimitWait(t *testing.T) {
	wait, ok := slack.RateLimitWait(&slackgo.RateLimitedError{RetryAfter: 7 * time.Second})
	gt.Bool(t, ok).True()
	gt.Value(t, wait).Equal(7 * time.Second)

	_, ok = slack.RateLimitWait(slackgo.SlackErrorResponse{Err: "ratelimited"})
	gt.Bool(t, ok).True()

	_, ok = slack.RateLimitWait(slackgo.StatusCodeError{Code: 429, Status: "429 Too Many Requests"})
	gt.Bool(t, ok).True()

	_, ok = slack.RateLimitWait(errors.New("boom"))
	gt.Bool(t, ok).False()
}
