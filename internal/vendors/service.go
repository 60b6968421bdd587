package vendors

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketadmin-backend/internal/activitylog"
	"github.com/angelmondragon/marketadmin-backend/internal/users"
	"github.com/angelmondragon/marketadmin-backend/pkg/db/models"
	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketadmin-backend/pkg/errors"
	"github.com/angelmondragon/marketadmin-backend/pkg/logger"
)

// DefaultEnsurer guarantees an active vendor-type commission exists for a
// standard tier, writing through tx, and reports whether it created one.
type DefaultEnsurer interface {
	EnsureDefault(ctx context.Context, tx *gorm.DB, classification enums.VendorClassification) (uuid.UUID, bool, error)
}

// Counts is the number of vendor profiles per classification.
type Counts struct {
	ByClassification map[enums.VendorClassification]int64 `json:"by_classification"`
	Total            int64                                 `json:"total"`
}

// Profile is the admin view of a vendor after a classification change.
type Profile struct {
	UserID         uuid.UUID                  `json:"user_id"`
	Username       string                     `json:"username"`
	BusinessName   string                     `json:"business_name"`
	Classification enums.VendorClassification `json:"classification"`
	CommissionID   *uuid.UUID                 `json:"commission_id,omitempty"`
}

// Service exposes admin operations on vendor classifications.
type Service interface {
	Counts(ctx context.Context, actorID uuid.UUID) (Counts, error)
	SetClassification(ctx context.Context, actorID, vendorID uuid.UUID, classification enums.VendorClassification) (Profile, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx       txRunner
	repo     Repository
	users    users.Repository
	defaults DefaultEnsurer
	audit    activitylog.Sink
	logg     *logger.Logger
}

// NewService wires the vendor classification service.
func NewService(tx txRunner, repo Repository, userRepo users.Repository, defaults DefaultEnsurer, audit activitylog.Sink, logg *logger.Logger) (Service, error) {
	switch {
	case tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case repo == nil:
		return nil, fmt.Errorf("vendor repository required")
	case userRepo == nil:
		return nil, fmt.Errorf("users repository required")
	case defaults == nil:
		return nil, fmt.Errorf("default commission ensurer required")
	case audit == nil:
		return nil, fmt.Errorf("audit sink required")
	case logg == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, repo: repo, users: userRepo, defaults: defaults, audit: audit, logg: logg}, nil
}

func (s *service) Counts(ctx context.Context, actorID uuid.UUID) (Counts, error) {
	if _, err := users.Authorize(ctx, s.users, actorID, enums.CapabilityManageCommissions); err != nil {
		return Counts{}, err
	}
	raw, err := s.repo.CountByClassification(ctx)
	if err != nil {
		return Counts{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count vendors")
	}
	out := Counts{ByClassification: make(map[enums.VendorClassification]int64)}
	for _, c := range enums.VendorClassifications() {
		out.ByClassification[c] = raw[c]
		out.Total += raw[c]
	}
	return out, nil
}

// SetClassification moves a vendor onto a tier. Standard tiers get their
// default commission in the same transaction so the vendor always resolves to a record.
func (s *service) SetClassification(ctx context.Context, actorID, vendorID uuid.UUID, classification enums.VendorClassification) (Profile, error) {
	if _, err := users.Authorize(ctx, s.users, actorID, enums.CapabilityManageCommissions); err != nil {
		return Profile{}, err
	}
	if !classification.IsValid() {
		return Profile{}, pkgerrors.Field("classification", fmt.Sprintf("%q is not a valid classification.", classification))
	}

	var (
		out            Profile
		defaultCreated bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		user, err := s.users.WithTx(tx).FindByID(ctx, vendorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
		}
		if user.UserType != enums.UserTypeVendor {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}

		var commissionID *uuid.UUID
		if classification.IsStandard() {
			id, created, err := s.defaults.EnsureDefault(ctx, tx, classification)
			if err != nil {
				return err
			}
			commissionID = &id
			defaultCreated = created
		}

		repo := s.repo.WithTx(tx)
		profile, err := EnsureProfile(ctx, repo, user)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor profile")
		}
		if err := repo.UpdateClassification(ctx, profile.ID, classification); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor classification")
		}
		profile.Classification = classification
		out = profileView(user, profile, commissionID)
		return nil
	})
	if err != nil {
		return Profile{}, err
	}

	logCtx := s.logg.WithVendorID(ctx, vendorID.String())
	s.logg.Info(logCtx, "vendor classification updated")
	if defaultCreated {
		s.audit.Record(ctx, activitylog.Entry{
			ActorID:    &actorID,
			Type:       enums.ActivityTypeCreate,
			ObjectType: "vendor_type_commission",
			ObjectID:   out.CommissionID,
			Details:    map[string]any{"vendor_classification": string(classification), "default": true},
		})
	}
	s.audit.Record(ctx, activitylog.Entry{
		ActorID:    &actorID,
		Type:       enums.ActivityTypeUpdate,
		ObjectType: "vendor_profile",
		ObjectID:   &vendorID,
		Details:    map[string]any{"classification": string(classification)},
	})
	return out, nil
}

func profileView(user *models.User, profile *models.VendorProfile, commissionID *uuid.UUID) Profile {
	return Profile{
		UserID:         user.ID,
		Username:       user.Username,
		BusinessName:   profile.BusinessName,
		Classification: profile.Classification,
		CommissionID:   commissionID,
	}
}
