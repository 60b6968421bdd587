package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
)

// ActivityLog is an append-only audit trail row.
type ActivityLog struct {
	ID           uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       *uuid.UUID         `gorm:"column:user_id;type:uuid"`
	ActivityType enums.ActivityType `gorm:"column:activity_type;type:activity_type;not null"`
	ObjectType   string             `gorm:"column:object_type;not null"`
	ObjectID     *uuid.UUID         `gorm:"column:object_id;type:uuid"`
	Details      json.RawMessage    `gorm:"column:details;type:jsonb"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}
