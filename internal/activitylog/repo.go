package activitylog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketadmin-backend/pkg/db/models"
)

// Repository appends and reads audit trail rows.
type Repository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	ListByObject(ctx context.Context, objectType string, objectID uuid.UUID) ([]models.ActivityLog, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an activity log repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByObject(ctx context.Context, objectType string, objectID uuid.UUID) ([]models.ActivityLog, error) {
	var out []models.ActivityLog
	if err := r.db.WithContext(ctx).
		Where("object_type = ? AND object_id = ?", objectType, objectID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
