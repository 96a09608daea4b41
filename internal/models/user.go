package models

import (
	"time"
)

// Payment states for the proof-verification workflow.
const (
	PaymentStateNormal         = "normal"
	PaymentStateAwaitingProof  = "awaiting_proof"
	PaymentStateProofSubmitted = "proof_submitted"
)

type User struct {
	ID         uint   `gorm:"primaryKey"`
	TelegramID int64  `gorm:"uniqueIndex;not null"`
	Name       string `gorm:"size:255"`
	Joined     bool   `gorm:"default:false"`
	Premium    bool   `gorm:"default:false"`
	Banned     bool   `gorm:"default:false"`

	// VideosSentToday is only meaningful together with LastVideoDate: both are
	// read and written as a pair, and the counter is reset when the day changes.
	VideosSentToday int    `gorm:"default:0"`
	LastVideoDate   string `gorm:"size:10"` // calendar day marker, "2006-01-02"
	VideoIndex      int    `gorm:"default:0"`

	PaymentState          string `gorm:"size:32;default:'normal'"`
	PaymentStateExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
