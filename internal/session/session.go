package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zizouhuweidi/quizflow/internal/domain"
)

const (
	// Redis key prefixes
	snapshotKeyPrefix = "quiz:snapshot:"
	currentKey        = "quiz:snapshot:current"

	// EventsChannel is where session events are published
	EventsChannel = "quiz:events"
)

// ErrSnapshotNotFound is returned when no snapshot is stored for a session
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Event types
const (
	EventSessionStarted  = "session_started"
	EventAnswerRecorded  = "answer_recorded"
	EventSessionFinished = "session_finished"
	EventQuizLoaded      = "quiz_loaded"
)

// Event is a session state change mirrored to Redis
type Event struct {
	Type     string          `json:"type"`
	Snapshot domain.Snapshot `json:"snapshot"`
	At       time.Time       `json:"at"`
}

// Manager mirrors session snapshots and events into Redis for observers
// outside this process
type Manager struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewManager creates a new session manager. Stored snapshots expire after ttl.
func NewManager(redis *redis.Client, ttl time.Duration) *Manager {
	return &Manager{redis: redis, ttl: ttl}
}

func snapshotKey(sessionID string) string {
	return snapshotKeyPrefix + sessionID
}

// Publish stores the event's snapshot and publishes the event
func (m *Manager) Publish(ctx context.Context, event Event) error {
	if err := m.StoreSnapshot(ctx, event.Snapshot); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := m.redis.Publish(ctx, EventsChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// StoreSnapshot stores a snapshot under its session id and as the current one
func (m *Manager) StoreSnapshot(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := m.redis.TxPipeline()
	if snap.SessionID != "" {
		pipe.Set(ctx, snapshotKey(snap.SessionID), data, m.ttl)
	}
	pipe.Set(ctx, currentKey, data, m.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves the last stored snapshot of a session. An empty id
// returns the current session's snapshot.
func (m *Manager) GetSnapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	key := currentKey
	if sessionID != "" {
		key = snapshotKey(sessionID)
	}

	data, err := m.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Subscribe subscribes to session events
func (m *Manager) Subscribe(ctx context.Context) *redis.PubSub {
	return m.redis.Subscribe(ctx, EventsChannel)
}
