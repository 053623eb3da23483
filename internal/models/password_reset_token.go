package models

import "time"

// PasswordResetToken is single-use: UsedAt is set when the token is redeemed
// and redeemed tokens are refused thereafter.
type PasswordResetToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UID       uint       `gorm:"column:uid;not null;index" json:"uid"`
	TokenHash string     `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"index" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}
