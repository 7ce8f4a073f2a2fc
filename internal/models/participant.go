package models

import (
	"time"

	"gorm.io/gorm"
)

type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// Participant is one player's row in a match. Exactly one row per
// (MatchID, UserID); each player mutates only their own row.
type Participant struct {
	gorm.Model
	MatchID       uint   `gorm:"not null;uniqueIndex:idx_match_user"`
	UserID        uint   `gorm:"not null;uniqueIndex:idx_match_user"`
	DisplayName   string `gorm:"size:255;not null"`
	Team          Team   `gorm:"size:1;not null;default:'A'"`
	Score         int    `gorm:"not null;default:0"`
	BestWord      string `gorm:"size:16"`
	BestWordScore int    `gorm:"not null;default:0"`
	RoundIndex    int    `gorm:"not null;default:0"`
	IsReady       bool   `gorm:"not null;default:false"`
	JoinedAt      time.Time
	LastSeenAt    time.Time `gorm:"not null;index"`
}

// ActiveWithin reports whether the participant's last heartbeat falls
// inside the staleness window ending at now.
func (p *Participant) ActiveWithin(window time.Duration, now time.Time) bool {
	return now.Sub(p.LastSeenAt) <= window
}
