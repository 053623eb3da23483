package models

import "time"

// ConversationInvite maps an unguessable external code to a conversation's
// numeric key. At most one invite is active per conversation; rotation
// deactivates the previous code without touching the zid.
type ConversationInvite struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Code      string        `gorm:"uniqueIndex;not null" json:"code"`
	ZID       uint          `gorm:"column:zid;not null;index" json:"zid"`
	CreatedBy uint          `gorm:"column:created_by" json:"created_by"`
	Active    bool          `gorm:"default:true;index" json:"active"`
	UseCount  int           `gorm:"default:0" json:"use_count"`
	RotatedAt *time.Time `json:"rotated_at"`
	CreatedAt time.Time  `json:"created_at"`
}
