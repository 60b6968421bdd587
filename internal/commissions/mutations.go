package commissions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketadmin-backend/internal/activitylog"
	"github.com/angelmondragon/marketadmin-backend/internal/catalog"
	"github.com/angelmondragon/marketadmin-backend/pkg/db"
	"github.com/angelmondragon/marketadmin-backend/pkg/db/models"
	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketadmin-backend/pkg/errors"
	"github.com/angelmondragon/marketadmin-backend/pkg/metrics"
)

// Advisory lock keys; one per commission table.
var lockKeys = map[enums.CommissionKind]int64{
	enums.CommissionKindVendorType: 7_311_204_001,
	enums.CommissionKindTimePeriod: 7_311_204_002,
	enums.CommissionKindOfferType:  7_311_204_003,
}

const (
	constraintVendorTypeActive = "ux_vendor_type_commissions_active"
	constraintOfferTypeActive  = "ux_offer_type_commissions_active"
	constraintPeriodOverlap    = "ex_time_period_commissions_active_overlap"
)

func lockKind(tx *gorm.DB, kind enums.CommissionKind) error {
	if err := db.LockKey(tx, lockKeys[kind]); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock commission table")
	}
	return nil
}

// writeError maps constraint backstop hits to validation failures.
func writeError(err error, action string) error {
	switch {
	case db.IsUniqueViolation(err, constraintVendorTypeActive),
		db.IsUniqueViolation(err, constraintOfferTypeActive),
		db.IsExclusionViolation(err, constraintPeriodOverlap):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "a conflicting active commission was saved concurrently").
			WithDetails(pkgerrors.FieldDetails{"is_active": "a conflicting active commission already exists"})
	case db.IsCheckViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "commission violates a storage constraint")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
	}
}

func (s *service) Create(ctx context.Context, actorID uuid.UUID, payload Payload) (Record, error) {
	started := s.now()
	record, err := s.create(ctx, actorID, payload)
	s.observe(payload.Kind, "create", started, err)
	if err != nil {
		return Record{}, err
	}

	logCtx := s.logg.WithCommission(ctx, string(record.Kind), record.ID.String())
	s.logg.Info(logCtx, "commission created")
	s.auditRecord(ctx, actorID, enums.ActivityTypeCreate, record)
	return record, nil
}

func (s *service) create(ctx context.Context, actorID uuid.UUID, payload Payload) (Record, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return Record{}, err
	}
	if payload.Kind == "" {
		return Record{}, pkgerrors.Field("commission_type", "This field is required.")
	}
	if !payload.Kind.IsValid() {
		return Record{}, pkgerrors.Field("commission_type", fmt.Sprintf("%q is not a valid commission type.", payload.Kind))
	}

	base := models.CommissionBase{
		Name:        derefString(payload.Name),
		Description: payload.Description,
		IsActive:    true,
		CreatedByID: &actorID,
		UpdatedByID: &actorID,
	}
	if payload.Percentage != nil {
		base.Percentage = *payload.Percentage
	}
	if payload.IsActive != nil {
		base.IsActive = *payload.IsActive
	}

	var out Record
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := lockKind(tx, payload.Kind); err != nil {
			return err
		}
		stores := s.stores.withTx(tx)
		var err error
		switch payload.Kind {
		case enums.CommissionKindVendorType:
			if payload.VendorID != nil {
				if _, err := loadVendorUser(ctx, s.users.WithTx(tx), *payload.VendorID); err != nil {
					return err
				}
			}
			out, err = createVendorType(ctx, stores.vendorTypes, base, payload)
		case enums.CommissionKindTimePeriod:
			out, err = createTimePeriod(ctx, stores.timePeriods, base, payload)
		case enums.CommissionKindOfferType:
			out, err = createOfferType(ctx, stores.offerTypes, s.catalog.WithTx(tx), base, payload)
		}
		return err
	})
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

func createVendorType(ctx context.Context, store VendorTypeStore, base models.CommissionBase, payload Payload) (Record, error) {
	if payload.VendorClassification == nil {
		return Record{}, pkgerrors.Field("vendor_classification", "This field is required.")
	}
	record := &models.VendorTypeCommission{
		CommissionBase:       base,
		VendorClassification: *payload.VendorClassification,
		VendorID:             payload.VendorID,
	}
	if err := validateVendorType(ctx, store, record, payload.Percentage != nil); err != nil {
		return Record{}, err
	}
	if err := store.Create(ctx, record); err != nil {
		return Record{}, writeError(err, "create vendor type commission")
	}
	return FromVendorType(*record), nil
}

func createTimePeriod(ctx context.Context, store TimePeriodStore, base models.CommissionBase, payload Payload) (Record, error) {
	if payload.Percentage == nil {
		return Record{}, pkgerrors.Field("percentage", "This field is required.")
	}
	record := &models.TimePeriodCommission{CommissionBase: base}
	if payload.StartDate != nil {
		record.StartDate = *payload.StartDate
	}
	if payload.EndDate != nil {
		record.EndDate = *payload.EndDate
	}
	if err := validateTimePeriod(ctx, store, record); err != nil {
		return Record{}, err
	}
	if err := store.Create(ctx, record); err != nil {
		return Record{}, writeError(err, "create time period commission")
	}
	return FromTimePeriod(*record), nil
}

func createOfferType(ctx context.Context, store OfferTypeStore, cat catalog.Repository, base models.CommissionBase, payload Payload) (Record, error) {
	if payload.Percentage == nil {
		return Record{}, pkgerrors.Field("percentage", "This field is required.")
	}
	record := &models.OfferTypeCommission{CommissionBase: base, SubCategoryID: payload.SubCategoryID}
	if payload.CategoryID != nil {
		record.CategoryID = *payload.CategoryID
	}
	categoryName, subName, err := validateOfferType(ctx, store, cat, record)
	if err != nil {
		return Record{}, err
	}
	if err := store.Create(ctx, record); err != nil {
		return Record{}, writeError(err, "create offer type commission")
	}
	return FromOfferType(*record, categoryName, subName), nil
}

func (s *service) Update(ctx context.Context, actorID, id uuid.UUID, kindHint *enums.CommissionKind, payload Payload) (Record, error) {
	started := s.now()
	record, err := s.update(ctx, actorID, id, kindHint, payload)
	kind := record.Kind
	if kind == "" && kindHint != nil && kindHint.IsValid() {
		kind = *kindHint
	}
	s.observe(kind, "update", started, err)
	if err != nil {
		return Record{}, err
	}

	logCtx := s.logg.WithCommission(ctx, string(record.Kind), record.ID.String())
	s.logg.Info(logCtx, "commission updated")
	s.auditRecord(ctx, actorID, enums.ActivityTypeUpdate, record)
	return record, nil
}

func (s *service) update(ctx context.Context, actorID, id uuid.UUID, kindHint *enums.CommissionKind, payload Payload) (Record, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return Record{}, err
	}

	var out Record
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		stores := s.stores.withTx(tx)
		found, err := s.find(ctx, stores, id, kindHint)
		if err != nil {
			return err
		}
		if payload.Kind != "" && payload.Kind != found.kind {
			return pkgerrors.Field("commission_type", "The commission type of an existing commission cannot be changed.")
		}
		if err := lockKind(tx, found.kind); err != nil {
			return err
		}

		switch found.kind {
		case enums.CommissionKindTimePeriod:
			record := found.timePeriod
			applyBase(&record.CommissionBase, payload, actorID)
			if payload.StartDate != nil {
				record.StartDate = *payload.StartDate
			}
			if payload.EndDate != nil {
				record.EndDate = *payload.EndDate
			}
			if err := validateTimePeriod(ctx, stores.timePeriods, record); err != nil {
				return err
			}
			if err := stores.timePeriods.Save(ctx, record); err != nil {
				return writeError(err, "update time period commission")
			}
			out = FromTimePeriod(*record)
		case enums.CommissionKindOfferType:
			record := found.offerType
			applyBase(&record.CommissionBase, payload, actorID)
			if payload.CategoryID != nil {
				record.CategoryID = *payload.CategoryID
			}
			if payload.ClearSubCategory {
				record.SubCategoryID = nil
			} else if payload.SubCategoryID != nil {
				record.SubCategoryID = payload.SubCategoryID
			}
			categoryName, subName, err := validateOfferType(ctx, stores.offerTypes, s.catalog.WithTx(tx), record)
			if err != nil {
				return err
			}
			if err := stores.offerTypes.Save(ctx, record); err != nil {
				return writeError(err, "update offer type commission")
			}
			out = FromOfferType(*record, categoryName, subName)
		default:
			record := found.vendorType
			applyBase(&record.CommissionBase, payload, actorID)
			if payload.VendorClassification != nil {
				record.VendorClassification = *payload.VendorClassification
			}
			if payload.ClearVendor {
				record.VendorID = nil
			} else if payload.VendorID != nil {
				if _, err := loadVendorUser(ctx, s.users.WithTx(tx), *payload.VendorID); err != nil {
					return err
				}
				record.VendorID = payload.VendorID
			}
			if err := validateVendorType(ctx, stores.vendorTypes, record, true); err != nil {
				return err
			}
			if err := stores.vendorTypes.Save(ctx, record); err != nil {
				return writeError(err, "update vendor type commission")
			}
			out = FromVendorType(*record)
		}
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

func applyBase(base *models.CommissionBase, payload Payload, actorID uuid.UUID) {
	if payload.Name != nil {
		base.Name = *payload.Name
	}
	if payload.Description != nil {
		base.Description = payload.Description
	}
	if payload.Percentage != nil {
		base.Percentage = *payload.Percentage
	}
	if payload.IsActive != nil {
		base.IsActive = *payload.IsActive
	}
	base.UpdatedByID = &actorID
}

func (s *service) GetOrCreateDefault(ctx context.Context, actorID uuid.UUID, classification enums.VendorClassification) (Record, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return Record{}, err
	}
	record, created, err := s.ensureDefault(ctx, &actorID, classification)
	if err != nil {
		return Record{}, err
	}
	if created {
		s.auditRecord(ctx, actorID, enums.ActivityTypeCreate, record)
	}
	return record, nil
}

// EnsureDefault guarantees an active record for a standard classification
// and returns its id and whether it was created. A non-nil tx makes the write
// part of the caller's transaction. It performs no actor check.
func (s *service) EnsureDefault(ctx context.Context, tx *gorm.DB, classification enums.VendorClassification) (uuid.UUID, bool, error) {
	var (
		record  Record
		created bool
		err     error
	)
	if tx == nil {
		record, created, err = s.ensureDefault(ctx, nil, classification)
	} else {
		record, created, err = s.ensureDefaultTx(ctx, tx, nil, classification)
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return record.ID, created, nil
}

// ensureDefault runs ensureDefaultTx in its own transaction.
func (s *service) ensureDefault(ctx context.Context, actorID *uuid.UUID, classification enums.VendorClassification) (Record, bool, error) {
	var (
		out     Record
		created bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		out, created, err = s.ensureDefaultTx(ctx, tx, actorID, classification)
		return err
	})
	if err != nil {
		return Record{}, false, err
	}
	if created {
		logCtx := s.logg.WithCommission(ctx, string(out.Kind), out.ID.String())
		s.logg.Info(logCtx, "default commission created")
	}
	return out, created, nil
}

// ensureDefaultTx returns the active record for classification, creating the
// default one at the table rate when none exists.
func (s *service) ensureDefaultTx(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, classification enums.VendorClassification) (Record, bool, error) {
	if classification == enums.VendorClassificationSpecial {
		return Record{}, false, pkgerrors.Field("vendor_classification", msgSpecialHasNoDefault)
	}
	rate, ok := Rate(classification)
	if !ok {
		return Record{}, false, pkgerrors.Field("vendor_classification", fmt.Sprintf("%q is not a valid classification.", classification))
	}

	if err := lockKind(tx, enums.CommissionKindVendorType); err != nil {
		return Record{}, false, err
	}
	store := s.stores.vendorTypes.WithTx(tx)
	existing, err := store.FindActive(ctx, VendorTypeKey{Classification: classification}, nil)
	if err != nil {
		return Record{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default commission")
	}
	if existing != nil {
		return FromVendorType(*existing), false, nil
	}

	description := fmt.Sprintf("Standard %s vendor commission", classification)
	record := &models.VendorTypeCommission{
		CommissionBase: models.CommissionBase{
			Name:        fmt.Sprintf("Default %s commission", classification),
			Description: &description,
			Percentage:  rate,
			IsActive:    true,
			CreatedByID: actorID,
			UpdatedByID: actorID,
		},
		VendorClassification: classification,
	}
	if err := store.Create(ctx, record); err != nil {
		return Record{}, false, writeError(err, "create default commission")
	}
	return FromVendorType(*record), true, nil
}

func (s *service) observe(kind enums.CommissionKind, operation string, started time.Time, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		switch pkgerrors.As(err).Code() {
		case pkgerrors.CodeValidation:
			outcome = metrics.OutcomeRejected
		case pkgerrors.CodeNotFound:
			outcome = metrics.OutcomeNotFound
		case pkgerrors.CodeForbidden, pkgerrors.CodeUnauthorized:
			outcome = metrics.OutcomeForbidden
		default:
			outcome = metrics.OutcomeError
		}
	}
	s.metrics.ObserveMutation(string(kind), operation, outcome, s.now().Sub(started))
}

func (s *service) auditRecord(ctx context.Context, actorID uuid.UUID, activity enums.ActivityType, record Record) {
	id := record.ID
	s.audit.Record(ctx, activitylog.Entry{
		ActorID:    &actorID,
		Type:       activity,
		ObjectType: string(record.Kind) + "_commission",
		ObjectID:   &id,
		Details: map[string]any{
			"name":       record.Name,
			"percentage": record.Percentage.String(),
			"is_active":  record.IsActive,
		},
	})
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
