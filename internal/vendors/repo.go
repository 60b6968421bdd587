package vendors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketadmin-backend/pkg/db/models"
	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
)

// Repository persists vendor profiles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.VendorProfile, error)
	FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.VendorProfile, error)
	Create(ctx context.Context, profile *models.VendorProfile) error
	UpdateClassification(ctx context.Context, profileID uuid.UUID, classification enums.VendorClassification) error
	CountByClassification(ctx context.Context) (map[enums.VendorClassification]int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a vendor profile repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.VendorProfile, error) {
	var profile models.VendorProfile
	if err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.VendorProfile, error) {
	out := make(map[uuid.UUID]models.VendorProfile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []models.VendorProfile
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = row
	}
	return out, nil
}

func (r *repository) Create(ctx context.Context, profile *models.VendorProfile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *repository) UpdateClassification(ctx context.Context, profileID uuid.UUID, classification enums.VendorClassification) error {
	return r.db.WithContext(ctx).
		Model(&models.VendorProfile{}).
		Where("id = ?", profileID).
		Update("classification", classification).Error
}

func (r *repository) CountByClassification(ctx context.Context) (map[enums.VendorClassification]int64, error) {
	type row struct {
		Classification enums.VendorClassification
		Total          int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.VendorProfile{}).
		Select("classification, COUNT(*) AS total").
		Group("classification").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[enums.VendorClassification]int64, len(rows))
	for _, r := range rows {
		out[r.Classification] = r.Total
	}
	return out, nil
}
