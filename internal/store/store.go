// Package store implements the Conversation Store (C5): an append-only log
// of messages with no standalone conversation row.
package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ashwinyue/next-ai/internal/apperr"
	"github.com/ashwinyue/next-ai/internal/model"
)

// Store persists messages for the conversation store operations.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Append writes one row.
func (s *Store) Append(ctx context.Context, m *model.Message) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return apperr.Wrap(apperr.StoreError, "append message", err)
	}
	return nil
}

// AppendTurn writes the user row and, on success, the assistant row inside a
// single transaction. If the assistant write fails the whole transaction
// rolls back, so no orphan user-only turn can ever be observed.
func (s *Store) AppendTurn(ctx context.Context, user, assistant *model.Message) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("append user message: %w", err)
		}
		if err := tx.Create(assistant).Error; err != nil {
			return fmt.Errorf("append assistant message: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperr.Wrap(apperr.StoreError, "append turn", err)
	}
	return nil
}

// Tail returns the last n messages ordered newest-first.
func (s *Store) Tail(ctx context.Context, conversationID string, n int) ([]model.Message, error) {
	var msgs []model.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(n).
		Find(&msgs).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "tail messages", err)
	}
	return msgs, nil
}

// History returns all messages ordered oldest-first.
func (s *Store) History(ctx context.Context, conversationID string) ([]model.Message, error) {
	var msgs []model.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "load history", err)
	}
	return msgs, nil
}

// ConversationsFor returns the distinct conversation ids with at least one
// message for that user whose id starts with prefix, ordered by most-recent
// activity descending.
func (s *Store) ConversationsFor(ctx context.Context, userID, prefix string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&model.Message{}).
		Select("conversation_id").
		Where("user_id = ? AND conversation_id LIKE ?", userID, prefix+"%").
		Group("conversation_id").
		Order("MAX(created_at) DESC").
		Pluck("conversation_id", &ids).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "list conversations", err)
	}
	return ids, nil
}

// Delete removes all rows with that conversation id.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Delete(&model.Message{}).Error
	if err != nil {
		return apperr.Wrap(apperr.StoreError, "delete conversation", err)
	}
	return nil
}

// conversation id prefixes. Chat and agent conversations share one table but
// never one id space, so a prefix disambiguates ConversationsFor by kind.
const (
	ChatPrefix  = "chat-"
	AgentPrefix = "agent-"
)

// NewConversationID mints a conversation id of the given kind prefix. It is
// the sole place a prefix is concatenated onto an id in this codebase.
func NewConversationID(prefix string, uuidFn func() string) string {
	return prefix + uuidFn()
}
