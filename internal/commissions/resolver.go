package commissions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketadmin-backend/pkg/errors"
	"github.com/angelmondragon/marketadmin-backend/pkg/metrics"
)

// Source names the fallback tier that produced a resolved rate.
type Source string

const (
	SourceSpecial      Source = "special"
	SourceConfigured   Source = "configured"
	SourceDefault      Source = "default"
	SourceCategory     Source = "category"
	SourceSubCategory  Source = "subcategory"
	SourcePeriod       Source = "period"
	SourceUndetermined Source = "undetermined"
)

// Resolution is the outcome of a rate lookup. An undetermined resolution
// means no commission is configured; it is not a zero rate.
type Resolution struct {
	Percentage   *decimal.Decimal `json:"percentage"`
	Source       Source           `json:"source"`
	CommissionID *uuid.UUID       `json:"commission_id,omitempty"`
	Name         string           `json:"name,omitempty"`
}

// Determined reports whether a rate was found.
func (r Resolution) Determined() bool {
	return r.Percentage != nil
}

// VendorRef is the part of a vendor the resolver needs.
type VendorRef struct {
	UserID         uuid.UUID
	Classification enums.VendorClassification
}

// Resolver walks the commission fallback chains.
type Resolver struct {
	vendorTypes VendorTypeStore
	timePeriods TimePeriodStore
	offerTypes  OfferTypeStore
	metrics     *metrics.CommissionMetrics
}

// NewResolver builds a resolver over the three stores. metrics may be nil.
func NewResolver(vendorTypes VendorTypeStore, timePeriods TimePeriodStore, offerTypes OfferTypeStore, m *metrics.CommissionMetrics) *Resolver {
	return &Resolver{
		vendorTypes: vendorTypes,
		timePeriods: timePeriods,
		offerTypes:  offerTypes,
		metrics:     m,
	}
}

// ResolveVendor returns the applicable rate for a vendor: a special record
// linked to the vendor, then the active record for the classification, then
// the classification default.
func (r *Resolver) ResolveVendor(ctx context.Context, vendor VendorRef) (Resolution, error) {
	res, err := r.resolveVendor(ctx, vendor)
	if err == nil {
		r.metrics.IncResolution("vendor", string(res.Source))
	}
	return res, err
}

func (r *Resolver) resolveVendor(ctx context.Context, vendor VendorRef) (Resolution, error) {
	if vendor.Classification == enums.VendorClassificationSpecial {
		vendorID := vendor.UserID
		record, err := r.vendorTypes.FindActive(ctx, VendorTypeKey{
			Classification: enums.VendorClassificationSpecial,
			VendorID:       &vendorID,
		}, nil)
		if err != nil {
			return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load special commission")
		}
		if record != nil {
			return resolved(SourceSpecial, record.ID, record.Name, record.Percentage), nil
		}
	}

	record, err := r.vendorTypes.FindActive(ctx, VendorTypeKey{Classification: vendor.Classification}, nil)
	if err != nil {
		return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor type commission")
	}
	if record != nil {
		return resolved(SourceConfigured, record.ID, record.Name, record.Percentage), nil
	}

	if rate, ok := Rate(vendor.Classification); ok {
		return Resolution{Percentage: &rate, Source: SourceDefault}, nil
	}
	return Resolution{Source: SourceUndetermined}, nil
}

// ResolveOfferCategory returns the exact (category, subcategory) record, then
// the whole-category record.
func (r *Resolver) ResolveOfferCategory(ctx context.Context, categoryID uuid.UUID, subCategoryID *uuid.UUID) (Resolution, error) {
	res, err := r.resolveOfferCategory(ctx, categoryID, subCategoryID)
	if err == nil {
		r.metrics.IncResolution("category", string(res.Source))
	}
	return res, err
}

func (r *Resolver) resolveOfferCategory(ctx context.Context, categoryID uuid.UUID, subCategoryID *uuid.UUID) (Resolution, error) {
	if subCategoryID != nil {
		record, err := r.offerTypes.FindActive(ctx, categoryID, subCategoryID, nil)
		if err != nil {
			return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subcategory commission")
		}
		if record != nil {
			return resolved(SourceSubCategory, record.ID, record.Name, record.Percentage), nil
		}
	}
	record, err := r.offerTypes.FindActive(ctx, categoryID, nil, nil)
	if err != nil {
		return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category commission")
	}
	if record != nil {
		return resolved(SourceCategory, record.ID, record.Name, record.Percentage), nil
	}
	return Resolution{Source: SourceUndetermined}, nil
}

// ActivePeriod returns the active time-period commission covering at.
func (r *Resolver) ActivePeriod(ctx context.Context, at time.Time) (Resolution, error) {
	record, err := r.timePeriods.FindActiveAt(ctx, at)
	if err != nil {
		return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load time period commission")
	}
	res := Resolution{Source: SourceUndetermined}
	if record != nil {
		res = resolved(SourcePeriod, record.ID, record.Name, record.Percentage)
	}
	r.metrics.IncResolution("period", string(res.Source))
	return res, nil
}

func resolved(source Source, id uuid.UUID, name string, pct decimal.Decimal) Resolution {
	return Resolution{
		Percentage:   &pct,
		Source:       source,
		CommissionID: &id,
		Name:         name,
	}
}
