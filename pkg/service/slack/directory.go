package slack

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/secmon-lab/checkerboard/pkg/utils/logging"
)

const usersListLimit = 1000

type client struct {
	api        *slack.Client
	fieldLabel string

	mu      sync.Mutex
	fieldID string

	callTimeout time.Duration
	maxRetries  uint64
	minBackoff  time.Duration
	maxBackoff  time.Duration
	newTimer    func() backoff.Timer

	apiURL string
}

// Option configures the Slack directory client
type Option func(*client)

// WithAPIURL points the client at a different Slack API endpoint
func WithAPIURL(url string) Option {
	return func(c *client) {
		c.apiURL = url
	}
}

// WithCallTimeout sets the timeout of a single API request
func WithCallTimeout(d time.Duration) Option {
	return func(c *client) {
		c.callTimeout = d
	}
}

// WithMaxRetries sets how many times a transient failure is retried
func WithMaxRetries(n uint64) Option {
	return func(c *client) {
		c.maxRetries = n
	}
}

// WithBackoffRange sets the bounds of the random sleep between retries
func WithBackoffRange(minWait, maxWait time.Duration) Option {
	return func(c *client) {
		c.minBackoff = minWait
		c.maxBackoff = maxWait
	}
}

// WithTimer replaces the timer used to sleep between retries
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(c *client) {
		c.newTimer = newTimer
	}
}

// New creates a Directory backed by the Slack Web API
func New(token, fieldLabel string, opts ...Option) (Directory, error) {
	if token == "" {
		return nil, goerr.New("slack bot token is required")
	}
	if fieldLabel == "" {
		return nil, goerr.New("slack profile field label is required")
	}

	c := &client{
		fieldLabel:  fieldLabel,
		callTimeout: DefaultCallTimeout,
		maxRetries:  DefaultMaxRetries,
		minBackoff:  DefaultMinBackoff,
		maxBackoff:  DefaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.minBackoff > c.maxBackoff {
		return nil, goerr.New("minimum backoff exceeds maximum backoff",
			goerr.V("min", c.minBackoff), goerr.V("max", c.maxBackoff))
	}

	var apiOpts []slack.Option
	if c.apiURL != "" {
		url := c.apiURL
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		apiOpts = append(apiOpts, slack.OptionAPIURL(url))
	}
	c.api = slack.New(token, apiOpts...)

	return c, nil
}

// ResolveProfileFieldID implements Directory
func (c *client) ResolveProfileFieldID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fieldID != "" {
		return c.fieldID, nil
	}

	var profile *slack.TeamProfile
	err := c.call(ctx, "team.profile.get", func(ctx context.Context) error {
		var err error
		profile, err = c.api.GetTeamProfileContext(ctx)
		return err
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to get team profile",
			goerr.V(MethodKey, "team.profile.get"))
	}

	for _, field := range profile.Fields {
		if field.Label == c.fieldLabel {
			c.fieldID = field.ID
			logging.From(ctx).Debug("Resolved Slack profile field",
				"label", c.fieldLabel,
				"field_id", field.ID)
			return c.fieldID, nil
		}
	}

	return "", goerr.Wrap(ErrUnknownField, "no custom profile field with the configured label",
		goerr.V(FieldLabelKey, c.fieldLabel))
}

// ListUserIDs implements Directory
func (c *client) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	page := c.api.GetUsersPaginated(slack.GetUsersOptionLimit(usersListLimit))

	for {
		var next slack.UserPagination
		err := c.call(ctx, "users.list", func(ctx context.Context) error {
			var err error
			next, err = page.Next(ctx)
			return err
		})
		if next.Done(err) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(next.Failure(err), "failed to list Slack users",
				goerr.V(MethodKey, "users.list"),
				goerr.V("collected", len(ids)))
		}

		for _, user := range next.Users {
			if user.ID == "" || user.IsBot || user.IsAppUser || user.Deleted {
				continue
			}
			ids = append(ids, user.ID)
		}
		page = next
	}

	return ids, nil
}

// LookupGitHubUser implements Directory
func (c *client) LookupGitHubUser(ctx context.Context, slackID string) (string, bool, error) {
	fieldID, err := c.ResolveProfileFieldID(ctx)
	if err != nil {
		return "", false, err
	}

	var profile *slack.UserProfile
	err = c.call(ctx, "users.profile.get", func(ctx context.Context) error {
		var err error
		profile, err = c.api.GetUserProfileContext(ctx, &slack.GetUserProfileParameters{
			UserID: slackID,
		})
		return err
	})
	if err != nil {
		if isMalformed(err) || isUserGone(err) {
			logging.From(ctx).Debug("No usable Slack profile, treating as unmapped",
				"slack_id", slackID,
				"error", err.Error())
			return "", false, nil
		}
		return "", false, goerr.Wrap(err, "failed to get Slack user profile",
			goerr.V(MethodKey, "users.profile.get"),
			goerr.V(SlackIDKey, slackID))
	}
	if profile == nil {
		return "", false, nil
	}

	field, ok := profile.Fields.ToMap()[fieldID]
	if !ok {
		return "", false, nil
	}

	github := strings.ToLower(strings.TrimSpace(field.Value))
	if github == "" {
		return "", false, nil
	}

	logging.From(ctx).Debug("Found GitHub username in Slack profile",
		"slack_id", slackID,
		"display_name", profile.DisplayNameNormalized,
		"github", github)

	return github, true, nil
}
