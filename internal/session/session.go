// Package session tracks in-flight agent streams so a turn can be cancelled
// from outside its own goroutine.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const activeStreamTTL = 5 * time.Minute

// Manager tracks the cancel function for every conversation currently
// streaming a reply, plus a best-effort Redis marker so another process (an
// admin endpoint, a future multi-instance deployment) can observe which
// conversations are mid-stream without holding the in-process lock.
type Manager struct {
	mu      sync.Mutex
	streams map[string]context.CancelFunc
	redis   *redis.Client
}

// NewManager builds a Manager. redisClient may be nil, in which case the
// Redis marker is skipped and only in-process cancellation works.
func NewManager(redisClient *redis.Client) *Manager {
	return &Manager{streams: make(map[string]context.CancelFunc), redis: redisClient}
}

func (m *Manager) key(conversationID string) string {
	return "active-stream:" + conversationID
}

// Register records cancel as the way to abort conversationID's in-flight
// stream and returns a func to call once the turn finishes.
func (m *Manager) Register(ctx context.Context, conversationID string, cancel context.CancelFunc) func() {
	m.mu.Lock()
	m.streams[conversationID] = cancel
	m.mu.Unlock()

	if m.redis != nil {
		_ = m.redis.Set(ctx, m.key(conversationID), "1", activeStreamTTL).Err()
	}

	return func() {
		m.mu.Lock()
		delete(m.streams, conversationID)
		m.mu.Unlock()
		if m.redis != nil {
			_ = m.redis.Del(context.Background(), m.key(conversationID)).Err()
		}
	}
}

// Cancel aborts conversationID's in-flight stream, if any is registered on
// this instance. It reports whether a stream was found.
func (m *Manager) Cancel(conversationID string) bool {
	m.mu.Lock()
	cancel, ok := m.streams[conversationID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}
