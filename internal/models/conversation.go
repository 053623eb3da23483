package models

import (
	"time"

	"gorm.io/datatypes"
)

// Conversation is keyed by an immutable numeric zid. Clients never see the
// zid directly; they address conversations through invite codes
// (ConversationInvite).
type Conversation struct {
	ZID         uint   `gorm:"primaryKey;column:zid" json:"zid"`
	OwnerUID    uint   `gorm:"column:owner_uid;not null;index" json:"owner"`
	Topic       string `json:"topic"`
	Description string `json:"description"`

	// IsActive is the open/closed flag: closed conversations reject new
	// comments and votes but remain readable.
	IsActive bool `gorm:"default:true" json:"is_active"`

	Settings datatypes.JSON `json:"settings,omitempty"`

	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"-"`
}
