package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/secmon-lab/checkerboard/pkg/domain/interfaces"
)

// Memory is an in-process MappingStore for development and tests. Its
// contents do not survive a restart.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

var _ interfaces.MappingStore = &Memory{}

func New() *Memory {
	return &Memory{
		entries: make(map[string]string),
	}
}

// Get retrieves a single entry
func (m *Memory) Get(ctx context.Context, slackID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[slackID]
	if !ok {
		return "", false, nil
	}
	return strings.ToLower(v), true, nil
}

// Set stores github lowercased under slackID
func (m *Memory) Set(ctx context.Context, slackID, github string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[slackID] = strings.ToLower(github)
	return nil
}

// Delete removes slackID. Missing keys are ignored.
func (m *Memory) Delete(ctx context.Context, slackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, slackID)
	return nil
}

// Keys returns all keys, including those holding the empty sentinel
func (m *Memory) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		if k == "" {
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// GetAll returns a copy of the entries with a non-empty value
func (m *Memory) GetAll(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		if k == "" || v == "" {
			continue
		}
		result[k] = v
	}
	return result, nil
}

// Entries returns a copy of every entry
func (m *Memory) Entries(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		if k == "" {
			continue
		}
		result[k] = v
	}
	return result, nil
}

func (m *Memory) Close() error {
	return nil
}
