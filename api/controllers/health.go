package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/marketadmin-backend/api/responses"
	"github.com/angelmondragon/marketadmin-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/marketadmin-backend/pkg/errors"
	"github.com/angelmondragon/marketadmin-backend/pkg/logger"
)

const (
	envHeader          = "X-MarketAdmin-Env"
	readinessTimeout   = 2 * time.Second
	readinessDependent = "dependency not ready"
)

// Pinger is satisfied by the database and redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency; nil pingers are skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), readinessDependent, err)
				}
				continue
			}
			checks[name] = "up"
		}

		for _, state := range checks {
			if state != "up" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, readinessDependent).WithDetails(checks))
				return
			}
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
