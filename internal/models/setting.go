package models

import (
	"time"
)

// Setting is a key/value row for small bits of runtime state, currently the
// uploaded payment QR file ID.
type Setting struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"size:512"`
	UpdatedAt time.Time
}

const SettingQRFileID = "qr_file_id"
