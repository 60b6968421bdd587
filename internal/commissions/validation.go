package commissions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketadmin-backend/internal/catalog"
	"github.com/angelmondragon/marketadmin-backend/pkg/db/models"
	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketadmin-backend/pkg/errors"
)

const (
	msgSpecialNeedsPercentage = "Special commissions require a custom percentage"
	msgSpecialHasNoDefault    = "Special commissions must be created explicitly"
	msgEndBeforeStart         = "End date must be after start date"
	msgPeriodOverlap          = "This time period overlaps with an existing active commission period."
	msgSubcategoryMismatch    = "Subcategory must belong to the selected category"
	msgAllSubcategories       = "All subcategories"
)

var (
	minPercentage = decimal.Zero
	maxPercentage = decimal.NewFromInt(100)
)

type fieldError struct {
	field   string
	message string
}

func (e fieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.message)
}

// validationFrom folds accumulated field errors into one VALIDATION_ERROR.
func validationFrom(err error) error {
	if err == nil {
		return nil
	}
	details := pkgerrors.FieldDetails{}
	var first string
	for _, e := range multierr.Errors(err) {
		var fe fieldError
		if !errors.As(e, &fe) {
			return e
		}
		if first == "" {
			first = fe.message
		}
		if _, seen := details[fe.field]; !seen {
			details[fe.field] = fe.message
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, first).WithDetails(details)
}

func conflictError(field, message string, conflictID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(pkgerrors.FieldDetails{
		field:         message,
		"conflict_id": conflictID.String(),
	})
}

func checkCommon(base *models.CommissionBase) error {
	var err error
	base.Name = strings.TrimSpace(base.Name)
	if base.Name == "" {
		err = multierr.Append(err, fieldError{"name", "This field may not be blank."})
	}
	if base.Percentage.LessThan(minPercentage) || base.Percentage.GreaterThan(maxPercentage) {
		err = multierr.Append(err, fieldError{"percentage", "Ensure percentage is between 0 and 100."})
	}
	return err
}

// validateVendorType fills the default rate when no percentage was supplied and
// rejects a second active record for the same classification key.
func validateVendorType(ctx context.Context, store VendorTypeStore, record *models.VendorTypeCommission, percentageSet bool) error {
	var static error
	if !record.VendorClassification.IsValid() {
		return validationFrom(fieldError{"vendor_classification", fmt.Sprintf("%q is not a valid classification.", record.VendorClassification)})
	}
	if record.VendorID != nil && record.VendorClassification != enums.VendorClassificationSpecial {
		static = multierr.Append(static, fieldError{"vendor_id", "Only special commissions can be linked to a vendor."})
	}
	if !percentageSet {
		rate, ok := Rate(record.VendorClassification)
		if !ok {
			static = multierr.Append(static, fieldError{"percentage", msgSpecialNeedsPercentage})
		} else {
			record.Percentage = rate
		}
	}
	static = multierr.Append(static, checkCommon(&record.CommissionBase))
	if err := validationFrom(static); err != nil {
		return err
	}

	if !record.IsActive {
		return nil
	}
	conflict, err := store.FindActive(ctx, VendorTypeKey{
		Classification: record.VendorClassification,
		VendorID:       record.VendorID,
	}, excludeSelf(record.ID))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active vendor type commission")
	}
	if conflict != nil {
		return conflictError(
			"vendor_classification",
			fmt.Sprintf("An active commission already exists for %s vendors.", record.VendorClassification),
			conflict.ID,
		)
	}
	return nil
}

// validateTimePeriod requires end > start and rejects overlap with other
// active periods under the half-open test.
func validateTimePeriod(ctx context.Context, store TimePeriodStore, record *models.TimePeriodCommission) error {
	var static error
	if record.StartDate.IsZero() {
		static = multierr.Append(static, fieldError{"start_date", "This field is required."})
	}
	if record.EndDate.IsZero() {
		static = multierr.Append(static, fieldError{"end_date", "This field is required."})
	}
	if !record.StartDate.IsZero() && !record.EndDate.IsZero() && !record.EndDate.After(record.StartDate) {
		static = multierr.Append(static, fieldError{"end_date", msgEndBeforeStart})
	}
	static = multierr.Append(static, checkCommon(&record.CommissionBase))
	if err := validationFrom(static); err != nil {
		return err
	}

	record.StartDate = record.StartDate.UTC()
	record.EndDate = record.EndDate.UTC()
	if !record.IsActive {
		return nil
	}
	conflict, err := store.FindOverlappingActive(ctx, record.StartDate, record.EndDate, excludeSelf(record.ID))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check overlapping time period commission")
	}
	if conflict != nil {
		return conflictError("period", msgPeriodOverlap, conflict.ID)
	}
	return nil
}

// validateOfferType checks the category linkage and rejects a second active
// record for the same (category, subcategory) key. It returns the resolved names.
func validateOfferType(ctx context.Context, store OfferTypeStore, cat catalog.Repository, record *models.OfferTypeCommission) (string, string, error) {
	if record.CategoryID == uuid.Nil {
		return "", "", validationFrom(fieldError{"category", "This field is required."})
	}
	category, err := cat.FindCategory(ctx, record.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", validationFrom(fieldError{"category", "Category not found."})
		}
		return "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}

	subName := ""
	var static error
	if record.SubCategoryID != nil {
		sub, err := cat.FindSubCategory(ctx, *record.SubCategoryID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			static = multierr.Append(static, fieldError{"subcategory", "Subcategory not found."})
		case err != nil:
			return "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subcategory")
		case sub.CategoryID != category.ID:
			static = multierr.Append(static, fieldError{"subcategory", msgSubcategoryMismatch})
		default:
			subName = sub.Name
		}
	}
	static = multierr.Append(static, checkCommon(&record.CommissionBase))
	if err := validationFrom(static); err != nil {
		return "", "", err
	}

	if !record.IsActive {
		return category.Name, subName, nil
	}
	conflict, err := store.FindActive(ctx, record.CategoryID, record.SubCategoryID, excludeSelf(record.ID))
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active offer type commission")
	}
	if conflict != nil {
		label := subName
		if record.SubCategoryID == nil {
			label = msgAllSubcategories
		}
		return "", "", conflictError(
			"category",
			fmt.Sprintf("An active commission already exists for category '%s' and subcategory '%s'.", category.Name, label),
			conflict.ID,
		)
	}
	return category.Name, subName, nil
}

func excludeSelf(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
