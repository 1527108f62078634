package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/Musty2002/sm-data-app-sub000/api/responses"
	"github.com/Musty2002/sm-data-app-sub000/pkg/config"
	"github.com/Musty2002/sm-data-app-sub000/pkg/db"
	"github.com/Musty2002/sm-data-app-sub000/pkg/logger"
	pkgredis "github.com/Musty2002/sm-data-app-sub000/pkg/redis"
)

const envHeader = "X-SMData-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP pkgredis.Pinger) http.HandlerFunc {
	type pinger interface {
		Ping(ctx context.Context) error
	}
	deps := map[string]pinger{}
	if dbP != nil {
		deps["database"] = dbP
	}
	if redisP != nil {
		deps["redis"] = redisP
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ready"}
		ready := true
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				if logg != nil {
					logg.Error(r.Context(), "readiness check failed: "+name, err)
				}
				status[name] = "unavailable"
				ready = false
				continue
			}
			status[name] = "ok"
		}

		if !ready {
			status["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
