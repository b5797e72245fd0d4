package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EngineSnapshot stores one serialized engine state. The latest row is
// restored at boot; older rows are pruned by the retention job.
type EngineSnapshot struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Version   int       `gorm:"column:version;not null"`
	State     []byte    `gorm:"column:state;type:bytea;not null"`
	TxIndex   uint64    `gorm:"column:tx_index;not null"`
	Supply    uint64    `gorm:"column:supply;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the id client-side so the model also works on
// sqlite.
func (s *EngineSnapshot) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
