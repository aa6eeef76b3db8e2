// Package api serves the read-only ranking dashboard and the metrics
// endpoint. It only ever takes snapshots of the aggregate; the
// consuming path never waits on an HTTP request.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ajhatfield/buzzline-06-hatfield/internal/aggregate"
)

const defaultTopN = 10

func NewRouter(engine *aggregate.Engine) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/rankings", handleRankings(engine))

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func handleRankings(engine *aggregate.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := defaultTopN
		if raw := r.URL.Query().Get("n"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				http.Error(w, `{"error":"n must be a positive integer"}`, http.StatusBadRequest)
				return
			}
			n = parsed
		}

		resp := struct {
			TotalEvents int               `json:"total_events"`
			Titles      int               `json:"titles"`
			Rankings    []aggregate.Entry `json:"rankings"`
		}{
			TotalEvents: engine.Total(),
			Titles:      engine.Titles(),
			Rankings:    engine.TopN(n),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}
