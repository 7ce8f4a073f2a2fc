package models

import (
	"time"

	"gorm.io/gorm"
)

type MatchStatus string

const (
	MatchLobby      MatchStatus = "lobby"
	MatchInProgress MatchStatus = "in_progress"
	MatchFinished   MatchStatus = "finished"
)

// Match represents a multiplayer session: lobby, countdown, play, finish.
// The seed is fixed at creation and reused for the whole match; a host
// reset mints a new one.
type Match struct {
	gorm.Model
	JoinCode        string      `gorm:"size:6;not null;uniqueIndex"`
	HostID          uint        `gorm:"not null;index"`
	DurationSeconds int         `gorm:"not null;default:120"`
	MaxPlayers      int         `gorm:"not null;default:8"`
	Seed            string      `gorm:"size:64;not null"`
	Status          MatchStatus `gorm:"size:20;not null;default:'lobby';index"`
	StartedAt       *time.Time

	Participants []Participant `gorm:"foreignKey:MatchID"`
}
