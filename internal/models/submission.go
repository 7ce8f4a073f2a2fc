package models

import "gorm.io/gorm"

// Submission records one accepted word in a match. The composite unique
// index is the idempotency key: a retried network call for the same round
// hits the constraint instead of crediting the word twice.
type Submission struct {
	gorm.Model
	MatchID    uint   `gorm:"not null;uniqueIndex:idx_match_user_round"`
	UserID     uint   `gorm:"not null;uniqueIndex:idx_match_user_round"`
	RoundIndex int    `gorm:"not null;uniqueIndex:idx_match_user_round"`
	Word       string `gorm:"size:16;not null"`
	Score      int    `gorm:"not null"`
}
