package slack

import (
	"context"
)

// Directory provides the subset of the Slack Web API needed to map Slack
// users to GitHub usernames.
type Directory interface {
	// ResolveProfileFieldID returns the ID of the custom profile field whose
	// label matches the configured one exactly. A successful result is cached
	// for the lifetime of the Directory.
	// Returns ErrUnknownField if the workspace has no such field.
	ResolveProfileFieldID(ctx context.Context) (string, error)

	// ListUserIDs returns the IDs of all human members of the workspace.
	// Bots, app users, deleted users and entries without an ID are skipped.
	ListUserIDs(ctx context.Context) ([]string, error)

	// LookupGitHubUser returns the lowercased value of the custom profile
	// field for slackID. found is false when the profile has no value or
	// could not be parsed. Only exhausted-retry and permanent API failures
	// are returned as errors.
	LookupGitHubUser(ctx context.Context, slackID string) (github string, found bool, err error)
}
