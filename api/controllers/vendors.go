package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/marketadmin-backend/api/responses"
	"github.com/angelmondragon/marketadmin-backend/api/validators"
	"github.com/angelmondragon/marketadmin-backend/internal/commissions"
	"github.com/angelmondragon/marketadmin-backend/internal/vendors"
	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketadmin-backend/pkg/errors"
	"github.com/angelmondragon/marketadmin-backend/pkg/logger"
)

const vendorServiceUnavailable = "vendor service unavailable"

// VendorCommissions lists every vendor with its resolved commission rate.
func VendorCommissions(svc commissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, commissionServiceUnavailable))
			return
		}
		actorID, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.VendorCommissions(r.Context(), actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if rows == nil {
			rows = []commissions.VendorCommission{}
		}
		responses.WriteSuccess(w, rows)
	}
}

func VendorCounts(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, vendorServiceUnavailable))
			return
		}
		actorID, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		counts, err := svc.Counts(r.Context(), actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, counts)
	}
}

type classificationRequest struct {
	Classification string `json:"classification" validate:"required"`
}

func VendorSetClassification(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, vendorServiceUnavailable))
			return
		}
		actorID, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := validators.ParseURLUUID(r, "vendorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload classificationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.SetClassification(r.Context(), actorID, vendorID, enums.VendorClassification(strings.TrimSpace(payload.Classification)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
