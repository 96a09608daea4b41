package models

import (
	"time"
)

// Video is one catalog entry. FileID is the Telegram file handle and the
// deduplication key: the catalog is append-only and never stores the same
// handle twice.
type Video struct {
	ID         uint   `gorm:"primaryKey"`
	FileID     string `gorm:"size:255;uniqueIndex;not null"`
	UploaderID int64  `gorm:"index"`
	CreatedAt  time.Time
}
