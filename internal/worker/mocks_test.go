package worker

import (
	"context"
	"sync"
	"time"

	"github.com/pgrep/reputation-api/internal/models"
)

// MockStatStore implements StatStore for testing
type MockStatStore struct {
	mu                sync.Mutex
	Stats             map[string]int64
	PublishedMessages []PublishedMessage
}

type PublishedMessage struct {
	Channel string
	Message interface{}
}

func NewMockStatStore() *MockStatStore {
	return &MockStatStore{Stats: make(map[string]int64)}
}

func (m *MockStatStore) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stats[key]++
	return m.Stats[key], nil
}

func (m *MockStatStore) Publish(ctx context.Context, channel string, message interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishedMessages = append(m.PublishedMessages, PublishedMessage{Channel: channel, Message: message})
	return nil
}

// MockProfileStore records trust writes and flags once per steam id.
type MockProfileStore struct {
	mu      sync.Mutex
	Ratings map[string]int
	Premier map[string]*int
	Flagged map[string]string

	SetTrustRatingErr error
}

func NewMockProfileStore() *MockProfileStore {
	return &MockProfileStore{
		Ratings: make(map[string]int),
		Premier: make(map[string]*int),
		Flagged: make(map[string]string),
	}
}

func (m *MockProfileStore) SetTrustRating(ctx context.Context, steamID string, score int, premier *int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetTrustRatingErr != nil {
		return m.SetTrustRatingErr
	}
	m.Ratings[steamID] = score
	m.Premier[steamID] = premier
	return nil
}

func (m *MockProfileStore) MarkAutoFlagged(ctx context.Context, steamID, reason string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Flagged[steamID]; ok {
		return false, nil
	}
	m.Flagged[steamID] = reason
	return true, nil
}

// MockLookupSink collects inserted batches.
type MockLookupSink struct {
	mu      sync.Mutex
	Batches [][]models.LookupEvent
	Err     error
}

func (m *MockLookupSink) InsertLookups(ctx context.Context, events []models.LookupEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	cp := make([]models.LookupEvent, len(events))
	copy(cp, events)
	m.Batches = append(m.Batches, cp)
	return nil
}

func (m *MockLookupSink) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.Batches {
		n += len(b)
	}
	return n
}
