package models

import "gorm.io/gorm"

// LeaderboardEntry is the one-and-only leaderboard row for a finished solo
// run. The unique RunID backs the at-most-once submission guarantee even
// when two submit calls race past the pre-check.
type LeaderboardEntry struct {
	gorm.Model
	RunID           uint   `gorm:"not null;uniqueIndex"`
	UserID          uint   `gorm:"not null;index"`
	DisplayName     string `gorm:"size:255;not null"`
	Score           int    `gorm:"not null;index:,sort:desc"`
	BestWord        string `gorm:"size:16"`
	BestWordScore   int    `gorm:"not null;default:0"`
	DurationSeconds int    `gorm:"not null"`
}
