package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/checkerboard/pkg/domain/interfaces"
	"github.com/secmon-lab/checkerboard/pkg/domain/model"
	"github.com/secmon-lab/checkerboard/pkg/utils/logging"
)

// Refresher runs one reconciliation cycle
type Refresher interface {
	Refresh(ctx context.Context) (bool, error)
}

// Mapper keeps an in-memory copy of the mapping store for fast lookups.
// Readers always see a complete snapshot: both directions are swapped
// together under one lock.
type Mapper struct {
	store     interfaces.MappingStore
	refresher Refresher

	mu      sync.RWMutex
	users   *model.UserMap
	started bool
}

// NewMapper creates an empty mirror. Call Start before serving lookups.
func NewMapper(store interfaces.MappingStore, refresher Refresher) *Mapper {
	return &Mapper{
		store:     store,
		refresher: refresher,
		users:     model.NewUserMap(nil),
	}
}

// Start loads the mirror from the store. When the store is empty it runs one
// reconciliation first, which may take as long as a full directory scan.
func (m *Mapper) Start(ctx context.Context) error {
	if m.Started() {
		return nil
	}

	entries, err := m.store.GetAll(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to read mapping store")
	}

	if len(entries) == 0 {
		logging.From(ctx).Info("Mapping store is empty, running initial refresh")
		if _, err := m.refresher.Refresh(ctx); err != nil {
			return goerr.Wrap(err, "initial refresh failed")
		}
		if entries, err = m.store.GetAll(ctx); err != nil {
			return goerr.Wrap(err, "failed to read mapping store")
		}
	}

	m.swap(model.NewUserMap(entries))

	m.mu.Lock()
	m.started = true
	m.mu.Unlock()

	logging.From(ctx).Info("Mapper started", "mappings", len(entries))
	return nil
}

// Started reports whether Start has completed
func (m *Mapper) Started() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.started
}

// Refresh rebuilds the mirror from the store
func (m *Mapper) Refresh(ctx context.Context) error {
	entries, err := m.store.GetAll(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to read mapping store")
	}

	m.swap(model.NewUserMap(entries))
	logging.From(ctx).Info("Mapper refreshed", "mappings", len(entries))
	return nil
}

func (m *Mapper) swap(users *model.UserMap) {
	m.mu.Lock()
	m.users = users
	m.mu.Unlock()
	mirrorRebuilds.Inc()
}

// Map returns a copy of the Slack ID to GitHub username mapping
func (m *Mapper) Map() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, m.users.Len())
	for id, github := range m.users.SlackToGitHub {
		out[string(id)] = string(github)
	}
	return out
}

// GitHubForSlackUser returns the GitHub username of slackID, or "" if unknown
func (m *Mapper) GitHubForSlackUser(slackID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return string(m.users.SlackToGitHub[model.SlackUserID(slackID)])
}

// SlackForGitHubUser returns the Slack ID for github, or "" if unknown.
// The username is matched case-insensitively.
func (m *Mapper) SlackForGitHubUser(github string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return string(m.users.GitHubToSlack[model.NewGitHubUsername(github)])
}
