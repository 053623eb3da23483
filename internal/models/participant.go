package models

import "time"

// Participant ties a user (or an anonymous client identity) to a
// conversation. Exactly one of UID and AnonID is set. The unique indexes
// make get-or-create idempotent: concurrent first requests collapse onto a
// single row.
type Participant struct {
	PID uint `gorm:"primaryKey;column:pid" json:"pid"`
	ZID uint `gorm:"column:zid;not null;uniqueIndex:idx_participant_user;uniqueIndex:idx_participant_anon" json:"zid"`

	UID    *uint   `gorm:"column:uid;uniqueIndex:idx_participant_user" json:"uid,omitempty"`
	AnonID *string `gorm:"column:anon_id;uniqueIndex:idx_participant_anon" json:"-"`

	VoteCount int `gorm:"default:0" json:"vote_count"`

	CreatedAt time.Time `json:"created"`
}

// IsAnonymous reports whether this participant joined without an account.
func (p *Participant) IsAnonymous() bool {
	return p.UID == nil
}
