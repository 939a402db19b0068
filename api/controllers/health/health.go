package health

import (
	"net/http"

	"github.com/vendora-hq/fulfillment-backend/api/responses"
	"github.com/vendora-hq/fulfillment-backend/pkg/config"
	"github.com/vendora-hq/fulfillment-backend/pkg/db"
	pkgerrors "github.com/vendora-hq/fulfillment-backend/pkg/errors"
	"github.com/vendora-hq/fulfillment-backend/pkg/logger"
	"github.com/vendora-hq/fulfillment-backend/pkg/redis"
)

func Live(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Vendora-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// Ready reports whether both backing stores answer. A dead Redis only degrades
// reads, but it still fails readiness so the orchestrator can rotate the pod.
func Ready(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Vendora-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		if dbP == nil {
			checks["postgres"] = "not configured"
			healthy = false
		} else if err := dbP.Ping(r.Context()); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		} else {
			checks["postgres"] = "ok"
		}

		if redisP == nil {
			checks["redis"] = "not configured"
			healthy = false
		} else if err := redisP.Ping(r.Context()); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency check failed").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
