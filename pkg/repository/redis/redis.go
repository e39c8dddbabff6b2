package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/secmon-lab/checkerboard/pkg/domain/interfaces"
)

const (
	// pingTimeout bounds the connectivity check done by New
	pingTimeout = 5 * time.Second

	// scanCount is the COUNT hint for SCAN and the MGET batch size
	scanCount = 500
)

// Client is a MappingStore backed by Redis. Each Slack user ID is a plain
// string key holding the lowercased GitHub username, or "" once checked and
// found unmapped.
type Client struct {
	client *goredis.Client
}

var _ interfaces.MappingStore = &Client{}

// New connects to the Redis server at url (redis:// or rediss://). A
// non-empty password overrides the one embedded in the URL.
func New(ctx context.Context, url, password string) (*Client, error) {
	if url == "" {
		return nil, goerr.New("redis URL is required")
	}

	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse redis URL")
	}
	if password != "" {
		opts.Password = password
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, goerr.Wrap(err, "failed to connect to redis", goerr.V("addr", opts.Addr))
	}

	return &Client{client: client}, nil
}

// NewWithClient wraps an existing go-redis client
func NewWithClient(client *goredis.Client) *Client {
	return &Client{client: client}
}

// Get retrieves a single entry. redis.Nil means the key was never written.
func (c *Client) Get(ctx context.Context, slackID string) (string, bool, error) {
	v, err := c.client.Get(ctx, slackID).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, goerr.Wrap(err, "failed to get mapping", goerr.V("slack_id", slackID))
	}
	return strings.ToLower(v), true, nil
}

// Set stores github lowercased, with no expiry
func (c *Client) Set(ctx context.Context, slackID, github string) error {
	if err := c.client.Set(ctx, slackID, strings.ToLower(github), 0).Err(); err != nil {
		return goerr.Wrap(err, "failed to set mapping", goerr.V("slack_id", slackID))
	}
	return nil
}

// Delete removes slackID. DEL on a missing key returns 0, not an error.
func (c *Client) Delete(ctx context.Context, slackID string) error {
	if err := c.client.Del(ctx, slackID).Err(); err != nil {
		return goerr.Wrap(err, "failed to delete mapping", goerr.V("slack_id", slackID))
	}
	return nil
}

// Keys enumerates all keys with SCAN. KEYS would block the server on a large
// keyspace.
func (c *Client) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	seen := make(map[string]struct{})

	iter := c.client.Scan(ctx, 0, "", scanCount).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if key == "" {
			continue
		}
		// SCAN may return a key more than once
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to scan keys")
	}

	return keys, nil
}

// GetAll returns every key with a non-empty value
func (c *Client) GetAll(ctx context.Context) (map[string]string, error) {
	entries, err := c.Entries(ctx)
	if err != nil {
		return nil, err
	}

	for k, v := range entries {
		if v == "" {
			delete(entries, k)
		}
	}
	return entries, nil
}

// Entries returns every key with its value. Keys deleted between SCAN and
// MGET are skipped.
func (c *Client) Entries(ctx context.Context) (map[string]string, error) {
	keys, err := c.Keys(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(keys))
	for i := 0; i < len(keys); i += scanCount {
		end := min(i+scanCount, len(keys))
		batch := keys[i:end]

		values, err := c.client.MGet(ctx, batch...).Result()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get mappings", goerr.V("count", len(batch)))
		}

		for idx, v := range values {
			s, ok := v.(string)
			if !ok {
				continue
			}
			result[batch[idx]] = strings.ToLower(s)
		}
	}

	return result, nil
}

func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close redis client")
	}
	return nil
}
