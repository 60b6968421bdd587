package commissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketadmin-backend/internal/activitylog"
	"github.com/angelmondragon/marketadmin-backend/internal/users"
	"github.com/angelmondragon/marketadmin-backend/internal/vendors"
	"github.com/angelmondragon/marketadmin-backend/pkg/db/models"
	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketadmin-backend/pkg/errors"
)

const objectTypeVendorProfile = "vendor_profile"

// loadVendorUser returns the user only when it exists and is a vendor.
func loadVendorUser(ctx context.Context, repo users.Repository, vendorID uuid.UUID) (*models.User, error) {
	user, err := repo.FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	if user.UserType != enums.UserTypeVendor {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	return user, nil
}

// AssignToVendor moves a vendor onto the tier of an active vendor-type
// commission. Standard tiers copy the classification; anything else makes the
// vendor special and links an unlinked special record to it.
func (s *service) AssignToVendor(ctx context.Context, actorID, vendorID, commissionID uuid.UUID) (Assignment, error) {
	started := s.now()
	out, err := s.assignToVendor(ctx, actorID, vendorID, commissionID)
	s.observe(enums.CommissionKindVendorType, "assign", started, err)
	if err != nil {
		return Assignment{}, err
	}

	logCtx := s.logg.WithVendorID(s.logg.WithCommission(ctx, string(out.Commission.Kind), out.Commission.ID.String()), vendorID.String())
	s.logg.Info(logCtx, "commission assigned to vendor")
	s.auditAssignment(ctx, actorID, out)
	return out, nil
}

func (s *service) assignToVendor(ctx context.Context, actorID, vendorID, commissionID uuid.UUID) (Assignment, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return Assignment{}, err
	}

	var out Assignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store := s.stores.vendorTypes.WithTx(tx)
		commission, err := store.FindByID(ctx, commissionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "active vendor type commission not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commission")
		}
		if !commission.IsActive {
			return pkgerrors.New(pkgerrors.CodeNotFound, "active vendor type commission not found")
		}

		user, err := loadVendorUser(ctx, s.users.WithTx(tx), vendorID)
		if err != nil {
			return err
		}
		vendorRepo := s.vendors.WithTx(tx)
		profile, err := vendors.EnsureProfile(ctx, vendorRepo, user)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor profile")
		}

		classification := enums.VendorClassificationSpecial
		if commission.VendorClassification.IsStandard() {
			classification = commission.VendorClassification
		} else if err := s.linkSpecial(ctx, tx, store, commission, vendorID); err != nil {
			return err
		}

		if err := vendorRepo.UpdateClassification(ctx, profile.ID, classification); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor classification")
		}
		profile.Classification = classification
		out = Assignment{Vendor: vendorSummary(user, profile), Commission: FromVendorType(*commission)}
		return nil
	})
	if err != nil {
		return Assignment{}, err
	}
	return out, nil
}

// linkSpecial binds an unlinked special record to vendorID. A record already
// bound to another vendor cannot be reassigned.
func (s *service) linkSpecial(ctx context.Context, tx *gorm.DB, store VendorTypeStore, commission *models.VendorTypeCommission, vendorID uuid.UUID) error {
	if commission.VendorID != nil {
		if *commission.VendorID != vendorID {
			return pkgerrors.Field("vendor_id", "This special commission is linked to another vendor.")
		}
		return nil
	}
	if err := lockKind(tx, enums.CommissionKindVendorType); err != nil {
		return err
	}
	commission.VendorID = &vendorID
	if err := validateVendorType(ctx, store, commission, true); err != nil {
		return err
	}
	if err := store.Save(ctx, commission); err != nil {
		return writeError(err, "link special commission")
	}
	return nil
}

// CreateSpecial records a bespoke rate for one vendor and marks it special.
func (s *service) CreateSpecial(ctx context.Context, actorID uuid.UUID, input SpecialInput) (Assignment, error) {
	started := s.now()
	out, err := s.createSpecial(ctx, actorID, input)
	s.observe(enums.CommissionKindVendorType, "create_special", started, err)
	if err != nil {
		return Assignment{}, err
	}

	logCtx := s.logg.WithVendorID(s.logg.WithCommission(ctx, string(out.Commission.Kind), out.Commission.ID.String()), out.Vendor.ID.String())
	s.logg.Info(logCtx, "special commission created")
	s.auditRecord(ctx, actorID, enums.ActivityTypeCreate, out.Commission)
	s.auditAssignment(ctx, actorID, out)
	return out, nil
}

func (s *service) createSpecial(ctx context.Context, actorID uuid.UUID, input SpecialInput) (Assignment, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return Assignment{}, err
	}
	if input.VendorID == nil || *input.VendorID == uuid.Nil {
		return Assignment{}, pkgerrors.Field("vendor_id", "This field is required.")
	}
	if input.Percentage == nil {
		return Assignment{}, pkgerrors.Field("percentage", "This field is required.")
	}
	vendorID := *input.VendorID

	var out Assignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		user, err := loadVendorUser(ctx, s.users.WithTx(tx), vendorID)
		if err != nil {
			return err
		}
		vendorRepo := s.vendors.WithTx(tx)
		profile, err := vendors.EnsureProfile(ctx, vendorRepo, user)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor profile")
		}
		if err := lockKind(tx, enums.CommissionKindVendorType); err != nil {
			return err
		}

		name := fmt.Sprintf("Special commission for %s", user.Username)
		if input.Name != nil && *input.Name != "" {
			name = *input.Name
		}
		description := fmt.Sprintf("Custom commission rate for %s", user.Username)
		if input.Description != nil {
			description = *input.Description
		}
		record := &models.VendorTypeCommission{
			CommissionBase: models.CommissionBase{
				Name:        name,
				Description: &description,
				Percentage:  *input.Percentage,
				IsActive:    true,
				CreatedByID: &actorID,
				UpdatedByID: &actorID,
			},
			VendorClassification: enums.VendorClassificationSpecial,
			VendorID:             &vendorID,
		}
		store := s.stores.vendorTypes.WithTx(tx)
		if err := validateVendorType(ctx, store, record, true); err != nil {
			return err
		}
		if err := store.Create(ctx, record); err != nil {
			return writeError(err, "create special commission")
		}

		if err := vendorRepo.UpdateClassification(ctx, profile.ID, enums.VendorClassificationSpecial); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor classification")
		}
		profile.Classification = enums.VendorClassificationSpecial
		out = Assignment{Vendor: vendorSummary(user, profile), Commission: FromVendorType(*record)}
		return nil
	})
	if err != nil {
		return Assignment{}, err
	}
	return out, nil
}

// VendorCommissions lists every vendor with the rate the resolver gives it.
// Vendors without a profile are listed as undetermined.
func (s *service) VendorCommissions(ctx context.Context, actorID uuid.UUID) ([]VendorCommission, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	vendorUsers, err := s.users.ListByType(ctx, enums.UserTypeVendor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}
	ids := make([]uuid.UUID, 0, len(vendorUsers))
	for _, u := range vendorUsers {
		ids = append(ids, u.ID)
	}
	profiles, err := s.vendors.FindByUserIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor profiles")
	}

	out := make([]VendorCommission, 0, len(vendorUsers))
	for i := range vendorUsers {
		user := &vendorUsers[i]
		profile, ok := profiles[user.ID]
		if !ok {
			out = append(out, VendorCommission{
				Vendor:     VendorSummary{ID: user.ID, Username: user.Username},
				Resolution: Resolution{Source: SourceUndetermined},
			})
			continue
		}
		res, err := s.resolver.ResolveVendor(ctx, VendorRef{UserID: user.ID, Classification: profile.Classification})
		if err != nil {
			return nil, err
		}
		out = append(out, VendorCommission{Vendor: vendorSummary(user, &profile), Resolution: res})
	}
	return out, nil
}

func (s *service) ResolveVendor(ctx context.Context, actorID, vendorID uuid.UUID) (Resolution, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return Resolution{}, err
	}
	user, err := loadVendorUser(ctx, s.users, vendorID)
	if err != nil {
		return Resolution{}, err
	}
	profile, err := s.vendors.FindByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Resolution{}, pkgerrors.New(pkgerrors.CodeNotFound, "vendor profile not found")
		}
		return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor profile")
	}
	return s.resolver.ResolveVendor(ctx, VendorRef{UserID: user.ID, Classification: profile.Classification})
}

func (s *service) ResolveOfferCategory(ctx context.Context, actorID, categoryID uuid.UUID, subCategoryID *uuid.UUID) (Resolution, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return Resolution{}, err
	}
	if _, err := s.catalog.FindCategory(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Resolution{}, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return s.resolver.ResolveOfferCategory(ctx, categoryID, subCategoryID)
}

func (s *service) ActivePeriod(ctx context.Context, actorID uuid.UUID, at time.Time) (Resolution, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return Resolution{}, err
	}
	if at.IsZero() {
		at = s.now()
	}
	return s.resolver.ActivePeriod(ctx, at)
}

func (s *service) auditAssignment(ctx context.Context, actorID uuid.UUID, out Assignment) {
	vendorID := out.Vendor.ID
	s.audit.Record(ctx, activitylog.Entry{
		ActorID:    &actorID,
		Type:       enums.ActivityTypeUpdate,
		ObjectType: objectTypeVendorProfile,
		ObjectID:   &vendorID,
		Details: map[string]any{
			"classification": string(out.Vendor.Classification),
			"commission_id":  out.Commission.ID.String(),
		},
	})
}
