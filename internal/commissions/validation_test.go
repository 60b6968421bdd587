package commissions

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/marketadmin-backend/pkg/db/models"
	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketadmin-backend/pkg/errors"
)

func TestValidateVendorTypeSkipsConflictCheckWhenInactive(t *testing.T) {
	called := false
	store := stubVendorTypeStore{findActive: func(VendorTypeKey) (*models.VendorTypeCommission, error) {
		called = true
		return nil, nil
	}}
	record := &models.VendorTypeCommission{
		CommissionBase:       models.CommissionBase{Name: "gold"},
		VendorClassification: enums.VendorClassificationGold,
	}

	require.NoError(t, validateVendorType(context.Background(), store, record, false))
	assert.False(t, called)
	assert.True(t, record.Percentage.Equal(decimal.NewFromInt(10)))
}

func TestValidateVendorTypeRejectsLinkOnStandardTier(t *testing.T) {
	vendorID := uuid.New()
	record := &models.VendorTypeCommission{
		CommissionBase:       models.CommissionBase{Name: "gold", Percentage: decimal.NewFromInt(9)},
		VendorClassification: enums.VendorClassificationGold,
		VendorID:             &vendorID,
	}

	err := validateVendorType(context.Background(), stubVendorTypeStore{}, record, true)
	requireField(t, err, "vendor_id")
}

func TestValidateVendorTypeRejectsUnknownClassification(t *testing.T) {
	record := &models.VendorTypeCommission{
		CommissionBase:       models.CommissionBase{Name: "x"},
		VendorClassification: "diamond",
	}
	err := validateVendorType(context.Background(), stubVendorTypeStore{}, record, false)
	requireField(t, err, "vendor_classification")
}

func TestValidationFromPassesThroughForeignErrors(t *testing.T) {
	boom := errors.New("boom")
	assert.Same(t, boom, validationFrom(boom))
	assert.NoError(t, validationFrom(nil))
}

func TestWriteErrorMapsBackstops(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: constraintVendorTypeActive}
	err := writeError(unique, "create")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, pkgerrors.As(err).Details(), "is_active")

	overlap := &pgconn.PgError{Code: "23P01", ConstraintName: constraintPeriodOverlap}
	assert.True(t, pkgerrors.HasCode(writeError(overlap, "create"), pkgerrors.CodeValidation))

	other := errors.New("connection refused")
	assert.True(t, pkgerrors.HasCode(writeError(other, "create"), pkgerrors.CodeDependency))
}
