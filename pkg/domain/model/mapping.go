package model

import "strings"

// SlackUserID is the stable Slack member ID (e.g. "U0123ABCD"), not a display name
type SlackUserID string

// GitHubUsername is a GitHub login. GitHub logins are case-insensitive, so the
// canonical form is lowercase.
type GitHubUsername string

// NewGitHubUsername returns the canonical (trimmed, lowercased) form of s
func NewGitHubUsername(s string) GitHubUsername {
	return GitHubUsername(strings.ToLower(strings.TrimSpace(s)))
}

// UserMap is the Slack -> GitHub mapping and its inverse. Only entries with a
// GitHub username are present; Slack users that were checked and found
// unmapped never appear here.
type UserMap struct {
	SlackToGitHub map[SlackUserID]GitHubUsername
	GitHubToSlack map[GitHubUsername]SlackUserID
}

// NewUserMap builds both directions from the store's non-empty contents.
// Keys and values are copied, so later changes to entries do not leak in.
func NewUserMap(entries map[string]string) *UserMap {
	m := &UserMap{
		SlackToGitHub: make(map[SlackUserID]GitHubUsername, len(entries)),
		GitHubToSlack: make(map[GitHubUsername]SlackUserID, len(entries)),
	}
	for slackID, github := range entries {
		name := NewGitHubUsername(github)
		if slackID == "" || name == "" {
			continue
		}
		m.SlackToGitHub[SlackUserID(slackID)] = name
		m.GitHubToSlack[name] = SlackUserID(slackID)
	}
	return m
}

// Len returns the number of mapped Slack users
func (m *UserMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.SlackToGitHub)
}
