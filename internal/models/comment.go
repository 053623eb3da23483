package models

import "time"

// Comment moderation states. The integer encoding is wire-compatible with
// the Polis frontend's "mod" field.
const (
	ModRejected = -1
	ModPending  = 0
	ModApproved = 1
)

// Comment text is immutable once approved; moderation only changes Mod.
type Comment struct {
	TID uint   `gorm:"primaryKey;column:tid" json:"tid"`
	ZID uint   `gorm:"column:zid;not null;index" json:"zid"`
	PID uint   `gorm:"column:pid;not null;index" json:"pid"`
	Txt string `gorm:"not null" json:"txt"`

	// Mod is stored as mod_status because "mod" is reserved in MySQL.
	Mod    int  `gorm:"column:mod_status;default:0;index" json:"mod"`
	IsSeed bool `gorm:"default:false" json:"is_seed"`

	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"-"`
}
