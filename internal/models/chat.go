// internal/models/chat.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a chat entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatEntry is one message in the conversation transcript.
type ChatEntry struct {
	ID        string    `json:"id"`
	Seq       int       `json:"seq"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewChatEntry builds an entry with a time-ordered unique ID. Seq is assigned on append.
func NewChatEntry(role Role, content string) ChatEntry {
	return ChatEntry{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// RestaurantRecord is a single name/address pair recovered from assistant text.
type RestaurantRecord struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}
