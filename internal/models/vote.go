package models

import "time"

// Vote values as submitted by clients.
const (
	VoteDisagree = -1
	VotePass     = 0
	VoteAgree    = 1
)

// Vote holds at most one row per (participant, comment); resubmission
// overwrites Value through an upsert keyed on the unique ballot index.
type Vote struct {
	VID   uint `gorm:"primaryKey;column:vid" json:"vid"`
	PID   uint `gorm:"column:pid;not null;uniqueIndex:idx_vote_ballot" json:"pid"`
	TID   uint `gorm:"column:tid;not null;uniqueIndex:idx_vote_ballot" json:"tid"`
	Value int  `gorm:"not null" json:"vote"`

	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"-"`
}
