package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockCache is an in-memory implementation of cache.Cache.
// Used for testing without requiring a real Redis instance
type MockCache struct {
	data map[string]string
	mu   sync.RWMutex

	// Err, when set, is returned by every command.
	Err error
	// Calls counts commands by name.
	Calls map[string]int
}

// NewMockCache creates a new mock cache instance
func NewMockCache() *MockCache {
	return &MockCache{
		data:  make(map[string]string),
		Calls: make(map[string]int),
	}
}

func (m *MockCache) record(cmd string) error {
	m.Calls[cmd]++
	return m.Err
}

// Get retrieves a value from the mock cache
func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("get"); err != nil {
		return "", err
	}
	return m.data[key], nil // empty string for missing keys, like the Redis wrapper
}

// Set stores a value in the mock cache
func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("set"); err != nil {
		return err
	}
	m.data[key] = fmt.Sprint(value)
	// Note: expiration is ignored in mock (no TTL implementation)
	return nil
}

// Del deletes keys from the mock cache
func (m *MockCache) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("del"); err != nil {
		return err
	}
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

// SetNX sets a key only if it doesn't exist (for distributed locking)
func (m *MockCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("setnx"); err != nil {
		return false, err
	}
	if _, exists := m.data[key]; exists {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

// DelIfEqual deletes key only while it holds value.
func (m *MockCache) DelIfEqual(ctx context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("delifequal"); err != nil {
		return false, err
	}
	if m.data[key] != value {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

// Has reports whether a key is present.
func (m *MockCache) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.data[key]
	return ok
}

// Health always returns nil for mock
func (m *MockCache) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op for mock
func (m *MockCache) Close() error {
	return nil
}

// Clear resets the mock cache (useful for tests)
func (m *MockCache) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]string)
	m.Calls = make(map[string]int)
	m.Err = nil
}
