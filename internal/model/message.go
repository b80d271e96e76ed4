// Package model holds the GORM-mapped persistence types of the request
// engine. A conversation has no standalone row: it exists by virtue of the
// messages that share its conversation id.
package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Source is one retrieved passage cited by an assistant message.
type Source struct {
	Filename string  `json:"filename"`
	Excerpt  string  `json:"excerpt"`
	Score    float64 `json:"score"`
}

// Sources is the driver.Valuer/sql.Scanner JSON column for Message.Sources.
type Sources []Source

func (s Sources) Value() (driver.Value, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *Sources) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			b = []byte(str)
		} else {
			return nil
		}
	}
	return json.Unmarshal(b, s)
}

// Message is the single append-only row of the Conversation Store (C5).
type Message struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey"`
	ConversationID string    `json:"conversationId" gorm:"type:varchar(128);index:idx_messages_conv_created,priority:1"`
	UserID         *string   `json:"userId,omitempty" gorm:"type:varchar(128);index:idx_messages_user_created,priority:1"`
	Role           Role      `json:"role" gorm:"type:varchar(16)"`
	Content        string    `json:"content" gorm:"type:text"`
	Sources        Sources   `json:"sources,omitempty" gorm:"type:jsonb"`
	CreatedAt      time.Time `json:"createdAt" gorm:"index:idx_messages_conv_created,priority:2;index:idx_messages_user_created,priority:2;index:idx_messages_created_at"`
}

func (Message) TableName() string { return "messages" }

// BeforeCreate assigns a UUID when the caller hasn't already.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// AllModels lists every GORM-managed type for AutoMigrate.
var AllModels = []interface{}{
	&Message{},
}
