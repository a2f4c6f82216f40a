package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/fitlinehq/fitline-backend/api/responses"
	"github.com/fitlinehq/fitline-backend/pkg/config"
	"github.com/fitlinehq/fitline-backend/pkg/db"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

type redisPinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fitline-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports whether the API can reach its backing stores.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redisPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				checks["db"] = "down"
				healthy = false
			} else {
				checks["db"] = "ok"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = "down"
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		w.Header().Set("X-Fitline-Env", cfg.App.Env)
		if !healthy {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
