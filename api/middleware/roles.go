package middleware

import (
	"net/http"

	"github.com/angelmondragon/marketadmin-backend/api/responses"
	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketadmin-backend/pkg/errors"
	"github.com/angelmondragon/marketadmin-backend/pkg/logger"
)

// RequireCapability rejects callers whose token user type does not grant the capability.
// Services authorize again against the stored user.
func RequireCapability(required enums.Capability, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userType := enums.UserType(UserTypeFromContext(r.Context()))
			if enums.CapabilityFor(userType) != required {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCommissionManager admits super admins and financial managers.
func RequireCommissionManager(logg *logger.Logger) func(http.Handler) http.Handler {
	return RequireCapability(enums.CapabilityManageCommissions, logg)
}
