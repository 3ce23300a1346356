package web

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/rgeron/next-hackaton/pkg/db"
)

// HealthController registers the health check routes for the web server.
func HealthController(_ context.Context, r *mux.Router) {
	r.HandleFunc("/livez", getLiveness)
	r.HandleFunc("/readyz", getReadiness)
}

func getLiveness(w http.ResponseWriter, _ *http.Request) {
	hdrNocache(w)
	renderStatus(http.StatusOK)(w, nil)
}

// getReadiness pings the database when the store is backed by one.
func getReadiness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hdrNocache(w)

	if dbx := db.FromContext(ctx); dbx != nil {
		if err := dbx.PingContext(ctx); err != nil {
			log.FromContext(ctx).Error("readiness check failed", "err", err)
			renderStatus(http.StatusServiceUnavailable)(w, nil)
			return
		}
	}

	renderStatus(http.StatusOK)(w, nil)
}
