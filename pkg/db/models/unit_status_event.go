package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
)

// UnitStatusEvent is one append-only history entry for a unit transition.
// Rows are never updated or deleted; they back audit and tracking pages.
type UnitStatusEvent struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UnitID     uuid.UUID        `gorm:"column:unit_id;type:uuid;not null;index"`
	FromStatus enums.UnitStatus `gorm:"column:from_status;type:text;not null"`
	ToStatus   enums.UnitStatus `gorm:"column:to_status;type:text;not null"`
	ActorType  enums.ActorType  `gorm:"column:actor_type;type:text;not null"`
	ActorID    uuid.UUID        `gorm:"column:actor_id;type:uuid;not null"`
	Note       *string          `gorm:"column:note"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
}
