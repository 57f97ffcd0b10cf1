package models

import "time"

// User represents an account signed in through Google.
type User struct {
	ID string `gorm:"type:varchar(36);primaryKey"` // Primary key (UUID).

	GoogleSub string `gorm:"type:varchar(255);not null;uniqueIndex"` // Google account subject.
	Email     string `gorm:"type:text"`                              // Email address.
	Name      string `gorm:"type:text"`                              // Display name.
	AvatarURL string `gorm:"type:text"`                              // Profile picture URL.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last sign-in update timestamp.
}
