// Package memory implements the Chat Memory Window (C6): a per-request,
// bounded reconstruction of recent turns.
package memory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/next-ai/internal/model"
	"github.com/ashwinyue/next-ai/internal/store"
)

// cacheTTL bounds how long a Redis-cached window outlives one request; it
// is never the system of record.
const cacheTTL = 24 * time.Hour

// Cache is C6's optional Redis fast path in front of the Conversation
// Store's tail query, using a cache-aside pattern. A nil *Cache (or nil
// client) degrades to always missing, so callers never need a separate
// no-cache code path.
type Cache struct {
	redis *redis.Client
}

// NewCache wraps a redis client. redisClient may be nil, in which case the
// cache always misses.
func NewCache(redisClient *redis.Client) *Cache {
	return &Cache{redis: redisClient}
}

func (c *Cache) key(conversationID string) string {
	return "window:" + conversationID
}

func (c *Cache) load(ctx context.Context, conversationID string) ([]*schema.Message, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, c.key(conversationID)).Result()
	if err != nil {
		return nil, false
	}
	var msgs []*schema.Message
	if err := json.Unmarshal([]byte(data), &msgs); err != nil {
		return nil, false
	}
	return msgs, true
}

func (c *Cache) save(ctx context.Context, conversationID string, msgs []*schema.Message) {
	if c == nil || c.redis == nil {
		return
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, c.key(conversationID), data, cacheTTL).Err()
}

// Invalidate drops the cached window for a conversation, called after a
// store write so a stale cache never outlives the row it mirrors.
func (c *Cache) Invalidate(ctx context.Context, conversationID string) {
	if c == nil || c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, c.key(conversationID)).Err()
}

// Window is the bounded deque of messages presented to a model for one
// request. It is never shared across requests; persistence is via the
// Conversation Store.
type Window struct {
	w        int
	messages []*schema.Message
}

// Load constructs a Window for conversationID by pulling the tail of W
// messages from the store, then re-ordering them ascending. It tries cache
// first and populates it on a miss. W=0 yields an empty window with no
// prior-history memory.
func Load(ctx context.Context, s *store.Store, cache *Cache, conversationID string, w int) (*Window, error) {
	win := &Window{w: w}
	if w <= 0 {
		return win, nil
	}

	if cached, ok := cache.load(ctx, conversationID); ok {
		win.messages = cached
		return win, nil
	}

	tail, err := s.Tail(ctx, conversationID, w)
	if err != nil {
		return nil, err
	}
	// Tail returns newest-first; the window wants ascending order.
	for i := len(tail) - 1; i >= 0; i-- {
		win.messages = append(win.messages, toSchemaMessage(&tail[i]))
	}
	cache.save(ctx, conversationID, win.messages)
	return win, nil
}

// Append adds one message to the window, growing it during the request as
// tool interactions add turns. On overflow past 2W entries, the oldest
// non-system entry is evicted.
func (win *Window) Append(msg *schema.Message) {
	win.messages = append(win.messages, msg)
	limit := 2 * win.w
	if limit <= 0 {
		return
	}
	for len(win.messages) > limit {
		evictIdx := 0
		for evictIdx < len(win.messages) && win.messages[evictIdx].Role == schema.System {
			evictIdx++
		}
		if evictIdx >= len(win.messages) {
			break
		}
		win.messages = append(win.messages[:evictIdx], win.messages[evictIdx+1:]...)
	}
}

// Messages returns the current ordered contents of the window.
func (win *Window) Messages() []*schema.Message {
	return win.messages
}

func toSchemaMessage(m *model.Message) *schema.Message {
	role := schema.User
	switch m.Role {
	case model.RoleAssistant:
		role = schema.Assistant
	case model.RoleTool:
		role = schema.Tool
	}
	return &schema.Message{Role: role, Content: m.Content}
}
