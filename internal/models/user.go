package models

import (
	"time"
)

// User is a registered account. Rows are never hard-deleted; deregistering
// flips IsActive and revokes sessions so historical participation stays
// attributable.
type User struct {
	UID      uint   `gorm:"primaryKey;column:uid" json:"uid"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	HName    string `gorm:"column:hname" json:"hname"`

	IsAdmin  bool `gorm:"default:false" json:"is_admin"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"-"`
}
