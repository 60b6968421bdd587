package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketadmin-backend/pkg/db/models"
)

// Repository answers category/subcategory existence and parent linkage.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindSubCategory(ctx context.Context, id uuid.UUID) (*models.SubCategory, error)
	CategoryNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	SubCategoryNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) FindSubCategory(ctx context.Context, id uuid.UUID) (*models.SubCategory, error) {
	var sub models.SubCategory
	if err := r.db.WithContext(ctx).First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) CategoryNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	var rows []models.Category
	if err := r.namesQuery(ctx, &models.Category{}, ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]string, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Name
	}
	return out, nil
}

func (r *repository) SubCategoryNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	var rows []models.SubCategory
	if err := r.namesQuery(ctx, &models.SubCategory{}, ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]string, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Name
	}
	return out, nil
}

func (r *repository) namesQuery(ctx context.Context, model any, ids []uuid.UUID) *gorm.DB {
	query := r.db.WithContext(ctx).Model(model).Select("id", "name")
	if len(ids) == 0 {
		return query.Where("1 = 0")
	}
	return query.Where("id IN ?", ids)
}
