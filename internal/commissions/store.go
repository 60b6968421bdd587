package commissions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketadmin-backend/internal/repo"
	"github.com/angelmondragon/marketadmin-backend/pkg/db/models"
	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
	"github.com/angelmondragon/marketadmin-backend/pkg/pagination"
)

// ListFilter narrows store listings.
type ListFilter struct {
	Active *bool
	Limit  int
	Cursor *pagination.Cursor
}

// VendorTypeKey identifies the slot an active vendor-type record occupies.
// Standard tiers key on classification alone; special records also key on the linked vendor.
type VendorTypeKey struct {
	Classification enums.VendorClassification
	VendorID       *uuid.UUID
}

// VendorTypeStore persists vendor-type commissions.
type VendorTypeStore interface {
	WithTx(tx *gorm.DB) VendorTypeStore
	FindByID(ctx context.Context, id uuid.UUID) (*models.VendorTypeCommission, error)
	List(ctx context.Context, filter ListFilter) ([]models.VendorTypeCommission, error)
	Create(ctx context.Context, record *models.VendorTypeCommission) error
	Save(ctx context.Context, record *models.VendorTypeCommission) error
	FindActive(ctx context.Context, key VendorTypeKey, excludeID *uuid.UUID) (*models.VendorTypeCommission, error)
	CountActive(ctx context.Context) (int64, error)
}

// TimePeriodStore persists time-period commissions.
type TimePeriodStore interface {
	WithTx(tx *gorm.DB) TimePeriodStore
	FindByID(ctx context.Context, id uuid.UUID) (*models.TimePeriodCommission, error)
	List(ctx context.Context, filter ListFilter) ([]models.TimePeriodCommission, error)
	Create(ctx context.Context, record *models.TimePeriodCommission) error
	Save(ctx context.Context, record *models.TimePeriodCommission) error
	FindOverlappingActive(ctx context.Context, start, end time.Time, excludeID *uuid.UUID) (*models.TimePeriodCommission, error)
	FindActiveAt(ctx context.Context, at time.Time) (*models.TimePeriodCommission, error)
	CountActive(ctx context.Context) (int64, error)
}

// OfferTypeStore persists offer-category commissions.
type OfferTypeStore interface {
	WithTx(tx *gorm.DB) OfferTypeStore
	FindByID(ctx context.Context, id uuid.UUID) (*models.OfferTypeCommission, error)
	List(ctx context.Context, filter ListFilter) ([]models.OfferTypeCommission, error)
	Create(ctx context.Context, record *models.OfferTypeCommission) error
	Save(ctx context.Context, record *models.OfferTypeCommission) error
	FindActive(ctx context.Context, categoryID uuid.UUID, subCategoryID *uuid.UUID, excludeID *uuid.UUID) (*models.OfferTypeCommission, error)
	CountActive(ctx context.Context) (int64, error)
}

type vendorTypeStore struct {
	repo.Base
}

type timePeriodStore struct {
	repo.Base
}

type offerTypeStore struct {
	repo.Base
}

// NewVendorTypeStore returns a vendor-type store bound to the provided database.
func NewVendorTypeStore(db *gorm.DB) VendorTypeStore {
	return &vendorTypeStore{Base: repo.NewBase(db)}
}

// NewTimePeriodStore returns a time-period store bound to the provided database.
func NewTimePeriodStore(db *gorm.DB) TimePeriodStore {
	return &timePeriodStore{Base: repo.NewBase(db)}
}

// NewOfferTypeStore returns an offer-category store bound to the provided database.
func NewOfferTypeStore(db *gorm.DB) OfferTypeStore {
	return &offerTypeStore{Base: repo.NewBase(db)}
}

func (s *vendorTypeStore) WithTx(tx *gorm.DB) VendorTypeStore {
	return &vendorTypeStore{Base: s.Bind(tx)}
}

func (s *vendorTypeStore) FindByID(ctx context.Context, id uuid.UUID) (*models.VendorTypeCommission, error) {
	var record models.VendorTypeCommission
	if err := s.DB(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *vendorTypeStore) List(ctx context.Context, filter ListFilter) ([]models.VendorTypeCommission, error) {
	var records []models.VendorTypeCommission
	if err := applyListFilter(s.DB(ctx).Model(&models.VendorTypeCommission{}), filter).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *vendorTypeStore) Create(ctx context.Context, record *models.VendorTypeCommission) error {
	ensureID(&record.CommissionBase)
	return s.DB(ctx).Create(record).Error
}

func (s *vendorTypeStore) Save(ctx context.Context, record *models.VendorTypeCommission) error {
	return s.DB(ctx).Save(record).Error
}

func (s *vendorTypeStore) FindActive(ctx context.Context, key VendorTypeKey, excludeID *uuid.UUID) (*models.VendorTypeCommission, error) {
	query := s.DB(ctx).
		Where("is_active = ?", true).
		Where("vendor_classification = ?", key.Classification)
	if key.VendorID != nil {
		query = query.Where("vendor_id = ?", *key.VendorID)
	} else {
		query = query.Where("vendor_id IS NULL")
	}
	query = excludeRecord(query, excludeID)

	return repo.FirstOrNil[models.VendorTypeCommission](query.Order("created_at DESC"))
}

func (s *vendorTypeStore) CountActive(ctx context.Context) (int64, error) {
	return s.Base.CountActive(ctx, &models.VendorTypeCommission{})
}

func (s *timePeriodStore) WithTx(tx *gorm.DB) TimePeriodStore {
	return &timePeriodStore{Base: s.Bind(tx)}
}

func (s *timePeriodStore) FindByID(ctx context.Context, id uuid.UUID) (*models.TimePeriodCommission, error) {
	var record models.TimePeriodCommission
	if err := s.DB(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *timePeriodStore) List(ctx context.Context, filter ListFilter) ([]models.TimePeriodCommission, error) {
	var records []models.TimePeriodCommission
	if err := applyListFilter(s.DB(ctx).Model(&models.TimePeriodCommission{}), filter).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *timePeriodStore) Create(ctx context.Context, record *models.TimePeriodCommission) error {
	ensureID(&record.CommissionBase)
	return s.DB(ctx).Create(record).Error
}

func (s *timePeriodStore) Save(ctx context.Context, record *models.TimePeriodCommission) error {
	return s.DB(ctx).Save(record).Error
}

// FindOverlappingActive returns an active record whose half-open range
// intersects [start, end). Ranges that merely touch do not overlap.
func (s *timePeriodStore) FindOverlappingActive(ctx context.Context, start, end time.Time, excludeID *uuid.UUID) (*models.TimePeriodCommission, error) {
	query := s.DB(ctx).
		Where("is_active = ?", true).
		Where("start_date < ?", end.UTC()).
		Where("end_date > ?", start.UTC())
	query = excludeRecord(query, excludeID)

	return repo.FirstOrNil[models.TimePeriodCommission](query.Order("start_date ASC"))
}

func (s *timePeriodStore) FindActiveAt(ctx context.Context, at time.Time) (*models.TimePeriodCommission, error) {
	query := s.DB(ctx).
		Where("is_active = ?", true).
		Where("start_date <= ?", at.UTC()).
		Where("end_date > ?", at.UTC()).
		Order("start_date DESC")
	return repo.FirstOrNil[models.TimePeriodCommission](query)
}

func (s *timePeriodStore) CountActive(ctx context.Context) (int64, error) {
	return s.Base.CountActive(ctx, &models.TimePeriodCommission{})
}

func (s *offerTypeStore) WithTx(tx *gorm.DB) OfferTypeStore {
	return &offerTypeStore{Base: s.Bind(tx)}
}

func (s *offerTypeStore) FindByID(ctx context.Context, id uuid.UUID) (*models.OfferTypeCommission, error) {
	var record models.OfferTypeCommission
	if err := s.DB(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *offerTypeStore) List(ctx context.Context, filter ListFilter) ([]models.OfferTypeCommission, error) {
	var records []models.OfferTypeCommission
	if err := applyListFilter(s.DB(ctx).Model(&models.OfferTypeCommission{}), filter).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *offerTypeStore) Create(ctx context.Context, record *models.OfferTypeCommission) error {
	ensureID(&record.CommissionBase)
	return s.DB(ctx).Create(record).Error
}

func (s *offerTypeStore) Save(ctx context.Context, record *models.OfferTypeCommission) error {
	return s.DB(ctx).Save(record).Error
}

// FindActive treats a nil subcategory as its own whole-category key, never as a wildcard.
func (s *offerTypeStore) FindActive(ctx context.Context, categoryID uuid.UUID, subCategoryID *uuid.UUID, excludeID *uuid.UUID) (*models.OfferTypeCommission, error) {
	query := s.DB(ctx).
		Where("is_active = ?", true).
		Where("category_id = ?", categoryID)
	if subCategoryID != nil {
		query = query.Where("subcategory_id = ?", *subCategoryID)
	} else {
		query = query.Where("subcategory_id IS NULL")
	}
	query = excludeRecord(query, excludeID)

	return repo.FirstOrNil[models.OfferTypeCommission](query.Order("created_at DESC"))
}

func (s *offerTypeStore) CountActive(ctx context.Context) (int64, error) {
	return s.Base.CountActive(ctx, &models.OfferTypeCommission{})
}

func applyListFilter(query *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if filter.Cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}
	query = query.Order("created_at DESC").Order("id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	return query
}

func excludeRecord(query *gorm.DB, excludeID *uuid.UUID) *gorm.DB {
	if excludeID == nil {
		return query
	}
	return query.Where("id <> ?", *excludeID)
}

func ensureID(base *models.CommissionBase) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
}
