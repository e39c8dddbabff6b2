package interfaces

import (
	"context"
)

// MappingStore is the durable Slack user ID -> GitHub username table.
//
// Three states per Slack user ID:
// - key absent: never checked
// - key present, empty value: checked, no GitHub username in the profile
// - key present, non-empty value: checked, mapped
//
// Every call may cross the network and fail. Implementations do not retry.
type MappingStore interface {
	// Get returns the stored value and whether the key exists
	Get(ctx context.Context, slackID string) (string, bool, error)

	// Set stores value lowercased. An empty value records "checked, not found".
	Set(ctx context.Context, slackID, github string) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, slackID string) error

	// Keys returns every key, including those holding the empty value
	Keys(ctx context.Context) ([]string, error)

	// GetAll returns every key with a non-empty value
	GetAll(ctx context.Context) (map[string]string, error)

	// Entries returns every key with its value, empty values included
	Entries(ctx context.Context) (map[string]string, error)

	// Close releases the underlying connection
	Close() error
}
