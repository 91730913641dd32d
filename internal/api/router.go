package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ride-dispatch-service/internal/api/handlers"
	"ride-dispatch-service/internal/platform/obs"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root (handlers stay unaware
// of concrete adapters).
func NewRouter(planner handlers.DispatchPlanner) http.Handler {
	obs.RegisterDefault()

	mux := http.NewServeMux()

	dispatchHandler := &handlers.DispatchHandler{Planner: planner}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/dispatch", dispatchHandler.Dispatch)
	mux.Handle("/metrics", promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{}))

	return observeMiddleware(mux)
}
