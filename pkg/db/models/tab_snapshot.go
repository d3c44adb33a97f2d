package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TabSnapshot persists one serialized copy of the whole tab store for a
// namespace. Both sale contexts share the row; the payload carries the
// per-context partitions.
type TabSnapshot struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Namespace     string    `gorm:"column:namespace;uniqueIndex;not null"`
	Payload       []byte    `gorm:"column:payload;type:jsonb;not null"`
	LastUpdatedAt time.Time `gorm:"column:last_updated_at;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table used by snapshot persistence.
func (TabSnapshot) TableName() string {
	return "tab_snapshots"
}

// BeforeCreate assigns the id in Go so the sqlite dev path works the
// same as postgres.
func (s *TabSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
