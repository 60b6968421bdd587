package commissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketadmin-backend/internal/activitylog"
	"github.com/angelmondragon/marketadmin-backend/internal/catalog"
	"github.com/angelmondragon/marketadmin-backend/internal/users"
	"github.com/angelmondragon/marketadmin-backend/internal/vendors"
	"github.com/angelmondragon/marketadmin-backend/pkg/db/models"
	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketadmin-backend/pkg/errors"
	"github.com/angelmondragon/marketadmin-backend/pkg/logger"
	"github.com/angelmondragon/marketadmin-backend/pkg/metrics"
	"github.com/angelmondragon/marketadmin-backend/pkg/pagination"
)

// Service is the single entry point for commission management.
type Service interface {
	List(ctx context.Context, actorID uuid.UUID, query ListQuery) (Page, error)
	Get(ctx context.Context, actorID, id uuid.UUID, kindHint *enums.CommissionKind) (Record, error)
	Create(ctx context.Context, actorID uuid.UUID, payload Payload) (Record, error)
	Update(ctx context.Context, actorID, id uuid.UUID, kindHint *enums.CommissionKind, payload Payload) (Record, error)
	Summary(ctx context.Context, actorID uuid.UUID) (Summary, error)
	GetOrCreateDefault(ctx context.Context, actorID uuid.UUID, classification enums.VendorClassification) (Record, error)
	AssignToVendor(ctx context.Context, actorID, vendorID, commissionID uuid.UUID) (Assignment, error)
	CreateSpecial(ctx context.Context, actorID uuid.UUID, input SpecialInput) (Assignment, error)
	VendorCommissions(ctx context.Context, actorID uuid.UUID) ([]VendorCommission, error)
	ResolveVendor(ctx context.Context, actorID, vendorID uuid.UUID) (Resolution, error)
	ResolveOfferCategory(ctx context.Context, actorID, categoryID uuid.UUID, subCategoryID *uuid.UUID) (Resolution, error)
	ActivePeriod(ctx context.Context, actorID uuid.UUID, at time.Time) (Resolution, error)
	EnsureDefault(ctx context.Context, tx *gorm.DB, classification enums.VendorClassification) (uuid.UUID, bool, error)
}

// ListQuery filters List. An empty or unknown Kind lists vendor-type records.
type ListQuery struct {
	Kind   string
	Active *bool
	Limit  int
	Cursor string
}

// SpecialInput is the input of CreateSpecial.
type SpecialInput struct {
	VendorID    *uuid.UUID
	Percentage  *decimal.Decimal
	Name        *string
	Description *string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups the facade collaborators.
type ServiceParams struct {
	Tx              txRunner
	VendorTypes     VendorTypeStore
	TimePeriods     TimePeriodStore
	OfferTypes      OfferTypeStore
	Users           users.Repository
	Vendors         vendors.Repository
	Catalog         catalog.Repository
	Audit           activitylog.Sink
	Metrics         *metrics.CommissionMetrics
	Logger          *logger.Logger
	DefaultPageSize int
	MaxPageSize     int
}

type service struct {
	tx       txRunner
	stores   storeSet
	users    users.Repository
	vendors  vendors.Repository
	catalog  catalog.Repository
	resolver *Resolver
	audit    activitylog.Sink
	metrics  *metrics.CommissionMetrics
	logg     *logger.Logger
	window   pagination.Window
	now      func() time.Time
}

// NewService wires the commission management facade.
func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case p.VendorTypes == nil || p.TimePeriods == nil || p.OfferTypes == nil:
		return nil, fmt.Errorf("commission stores required")
	case p.Users == nil:
		return nil, fmt.Errorf("users repository required")
	case p.Vendors == nil:
		return nil, fmt.Errorf("vendors repository required")
	case p.Catalog == nil:
		return nil, fmt.Errorf("catalog repository required")
	case p.Audit == nil:
		return nil, fmt.Errorf("audit sink required")
	case p.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       p.Tx,
		stores:   storeSet{vendorTypes: p.VendorTypes, timePeriods: p.TimePeriods, offerTypes: p.OfferTypes},
		users:    p.Users,
		vendors:  p.Vendors,
		catalog:  p.Catalog,
		resolver: NewResolver(p.VendorTypes, p.TimePeriods, p.OfferTypes, p.Metrics),
		audit:    p.Audit,
		metrics:  p.Metrics,
		logg:     p.Logger,
		window:   pagination.NewWindow(p.DefaultPageSize, p.MaxPageSize),
		now:      time.Now,
	}, nil
}

type storeSet struct {
	vendorTypes VendorTypeStore
	timePeriods TimePeriodStore
	offerTypes  OfferTypeStore
}

func (s storeSet) withTx(tx *gorm.DB) storeSet {
	return storeSet{
		vendorTypes: s.vendorTypes.WithTx(tx),
		timePeriods: s.timePeriods.WithTx(tx),
		offerTypes:  s.offerTypes.WithTx(tx),
	}
}

func (s *service) authorize(ctx context.Context, actorID uuid.UUID) error {
	_, err := users.Authorize(ctx, s.users, actorID, enums.CapabilityManageCommissions)
	return err
}

func (s *service) List(ctx context.Context, actorID uuid.UUID, query ListQuery) (Page, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return Page{}, err
	}
	kind, err := enums.ParseCommissionKind(query.Kind)
	if err != nil {
		kind = enums.CommissionKindVendorType
	}
	cursor, err := pagination.ParseCursor(query.Cursor)
	if err != nil {
		return Page{}, pkgerrors.Field("cursor", "Invalid cursor.")
	}
	limit := s.window.Normalize(query.Limit)
	filter := ListFilter{Active: query.Active, Limit: s.window.Fetch(query.Limit), Cursor: cursor}

	var items []Record
	switch kind {
	case enums.CommissionKindTimePeriod:
		rows, err := s.stores.timePeriods.List(ctx, filter)
		if err != nil {
			return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list time period commissions")
		}
		for _, row := range rows {
			items = append(items, FromTimePeriod(row))
		}
	case enums.CommissionKindOfferType:
		rows, err := s.stores.offerTypes.List(ctx, filter)
		if err != nil {
			return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offer type commissions")
		}
		items, err = s.offerRecords(ctx, s.catalog, rows)
		if err != nil {
			return Page{}, err
		}
	default:
		rows, err := s.stores.vendorTypes.List(ctx, filter)
		if err != nil {
			return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor type commissions")
		}
		for _, row := range rows {
			items = append(items, FromVendorType(row))
		}
	}

	if items == nil {
		items = []Record{}
	}
	page := Page{}
	page.Items, page.NextCursor = pagination.Trim(items, limit, func(r Record) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	return page, nil
}

// offerRecords projects offer rows with their category and subcategory names.
func (s *service) offerRecords(ctx context.Context, cat catalog.Repository, rows []models.OfferTypeCommission) ([]Record, error) {
	categoryIDs := make([]uuid.UUID, 0, len(rows))
	subIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		categoryIDs = append(categoryIDs, row.CategoryID)
		if row.SubCategoryID != nil {
			subIDs = append(subIDs, *row.SubCategoryID)
		}
	}
	categoryNames, err := cat.CategoryNames(ctx, categoryIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category names")
	}
	subNames, err := cat.SubCategoryNames(ctx, subIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subcategory names")
	}

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		subName := ""
		if row.SubCategoryID != nil {
			subName = subNames[*row.SubCategoryID]
		}
		out = append(out, FromOfferType(row, categoryNames[row.CategoryID], subName))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, actorID, id uuid.UUID, kindHint *enums.CommissionKind) (Record, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return Record{}, err
	}
	found, err := s.find(ctx, s.stores, id, kindHint)
	if err != nil {
		return Record{}, err
	}
	return s.project(ctx, s.catalog, found)
}

// loaded is a commission read from exactly one store.
type loaded struct {
	kind       enums.CommissionKind
	vendorType *models.VendorTypeCommission
	timePeriod *models.TimePeriodCommission
	offerType  *models.OfferTypeCommission
}

type lookup func(ctx context.Context, stores storeSet, id uuid.UUID) (*loaded, error)

// lookups is the fixed probe order used when no kind hint is given.
var lookups = []struct {
	kind enums.CommissionKind
	find lookup
}{
	{enums.CommissionKindVendorType, func(ctx context.Context, stores storeSet, id uuid.UUID) (*loaded, error) {
		record, err := stores.vendorTypes.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &loaded{kind: enums.CommissionKindVendorType, vendorType: record}, nil
	}},
	{enums.CommissionKindTimePeriod, func(ctx context.Context, stores storeSet, id uuid.UUID) (*loaded, error) {
		record, err := stores.timePeriods.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &loaded{kind: enums.CommissionKindTimePeriod, timePeriod: record}, nil
	}},
	{enums.CommissionKindOfferType, func(ctx context.Context, stores storeSet, id uuid.UUID) (*loaded, error) {
		record, err := stores.offerTypes.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &loaded{kind: enums.CommissionKindOfferType, offerType: record}, nil
	}},
}

// find looks only in the hinted store when a hint is given, otherwise probes
// every store in order and returns the first hit. An unknown hint counts as none.
func (s *service) find(ctx context.Context, stores storeSet, id uuid.UUID, kindHint *enums.CommissionKind) (*loaded, error) {
	if kindHint != nil && !kindHint.IsValid() {
		kindHint = nil
	}
	for _, l := range lookups {
		if kindHint != nil && l.kind != *kindHint {
			continue
		}
		found, err := l.find(ctx, stores, id)
		if err == nil {
			return found, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commission")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "commission not found")
}

func (s *service) project(ctx context.Context, cat catalog.Repository, found *loaded) (Record, error) {
	switch found.kind {
	case enums.CommissionKindTimePeriod:
		return FromTimePeriod(*found.timePeriod), nil
	case enums.CommissionKindOfferType:
		records, err := s.offerRecords(ctx, cat, []models.OfferTypeCommission{*found.offerType})
		if err != nil {
			return Record{}, err
		}
		return records[0], nil
	default:
		return FromVendorType(*found.vendorType), nil
	}
}

func (s *service) Summary(ctx context.Context, actorID uuid.UUID) (Summary, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return Summary{}, err
	}
	var (
		out Summary
		err error
	)
	if out.VendorTypeCommissions, err = s.stores.vendorTypes.CountActive(ctx); err != nil {
		return Summary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count vendor type commissions")
	}
	if out.TimePeriodCommissions, err = s.stores.timePeriods.CountActive(ctx); err != nil {
		return Summary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count time period commissions")
	}
	if out.OfferTypeCommissions, err = s.stores.offerTypes.CountActive(ctx); err != nil {
		return Summary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count offer type commissions")
	}
	out.TotalActive = out.VendorTypeCommissions + out.TimePeriodCommissions + out.OfferTypeCommissions
	return out, nil
}
