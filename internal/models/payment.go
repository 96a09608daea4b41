package models

import (
	"time"
)

// PaymentRequest is a pending payment proof awaiting admin verification.
// Created when a user submits a proof photo, deleted on verification.
type PaymentRequest struct {
	ID          uint   `gorm:"primaryKey"`
	Reference   string `gorm:"size:36;uniqueIndex"`
	TelegramID  int64  `gorm:"index;not null"`
	ProofFileID string `gorm:"size:255"`
	SubmittedAt time.Time
}
