package models

import (
	"time"

	"gorm.io/gorm"
)

type SoloRunStatus string

const (
	SoloRunActive   SoloRunStatus = "active"
	SoloRunFinished SoloRunStatus = "finished"
)

// SoloRun represents one player's single-participant timed session.
// Remaining time is never counted down by a timer; it is recomputed from
// (LastEventAt, RemainingMs) on every authoritative call.
type SoloRun struct {
	gorm.Model
	OwnerID         uint          `gorm:"not null;index"`
	Seed            string        `gorm:"size:64;not null"`
	DurationSeconds int           `gorm:"not null"`
	RemainingMs     int64         `gorm:"not null"`
	Score           int           `gorm:"not null;default:0"`
	BestWord        string        `gorm:"size:16"`
	BestWordScore   int           `gorm:"not null;default:0"`
	RoundIndex      int           `gorm:"not null;default:0"`
	Status          SoloRunStatus `gorm:"size:20;not null;default:'active';index"`
	LastEventAt     time.Time     `gorm:"not null"`
	EndedAt         *time.Time

	// Set exactly once; guarded by the unique run_id on LeaderboardEntry.
	SubmittedToLeaderboard bool `gorm:"not null;default:false"`
}
