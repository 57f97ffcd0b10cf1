package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document is a schemaless JSON document addressed by collection path and ID.
type Document struct {
	ID string `gorm:"type:varchar(36);primaryKey"` // Generated document ID.

	Collection string         `gorm:"type:varchar(255);not null;index:idx_documents_collection_created,priority:1"` // Collection path, e.g. users/{uid}/plans.
	Data       datatypes.JSON `gorm:"type:jsonb;not null"`                                                          // Document body.

	CreatedAt time.Time `gorm:"not null;index:idx_documents_collection_created,priority:2"` // Server-side creation timestamp.
}
