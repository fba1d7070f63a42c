package models

import "time"

// IdempotencyRecord stores a reserved Idempotency-Key and, once the
// request finished, the response to replay.
type IdempotencyRecord struct {
	ID              string    `gorm:"primaryKey;size:64" json:"id"`
	Key             string    `gorm:"size:255;not null" json:"key"`
	Fingerprint     string    `gorm:"size:64;not null" json:"fingerprint"`
	Status          string    `gorm:"size:20;not null" json:"status"`
	ResponseStatus  int       `json:"response_status"`
	ResponseHeaders string    `gorm:"type:text" json:"-"`
	ResponseBody    []byte    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	ExpiresAt       time.Time `gorm:"not null;index" json:"expires_at"`
}
