package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"business_war/internal/domain"
	"business_war/internal/engine"
	"business_war/internal/service"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers are the dependencies of the HTTP API. Repo, Gatherer, Feed and
// Reset may be nil.
type Handlers struct {
	Game     *engine.Game
	Board    *service.PriceBoard
	Repo     domain.ReportRepository
	Gatherer prometheus.Gatherer
	Feed     http.Handler
	Reset    func(ctx context.Context) error
}

// NewRouter builds the spectator API. Everything is read-only except the
// optional admin reset.
func NewRouter(h Handlers) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	r.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.Game.Snapshot())
	}).Methods("GET")

	r.HandleFunc("/rankings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.Game.Rankings())
	}).Methods("GET")

	r.HandleFunc("/prices", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.Board.GetAll())
	}).Methods("GET")

	r.HandleFunc("/prices/{item}", func(w http.ResponseWriter, r *http.Request) {
		item := mux.Vars(r)["item"]
		q, ok := h.Board.Get(item)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown item " + item})
			return
		}
		writeJSON(w, http.StatusOK, q)
	}).Methods("GET")

	if h.Repo != nil {
		r.HandleFunc("/history/{item}", func(w http.ResponseWriter, r *http.Request) {
			points, err := h.Repo.PriceHistory(r.Context(), h.Game.ID(), mux.Vars(r)["item"])
			if err != nil {
				slog.Error("Failed to load price history", slog.Any("error", err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
				return
			}
			writeJSON(w, http.StatusOK, points)
		}).Methods("GET")
	}

	if h.Reset != nil {
		r.HandleFunc("/admin/reset", func(w http.ResponseWriter, r *http.Request) {
			if err := h.Reset(r.Context()); err != nil {
				slog.Error("Failed to reset game", slog.Any("error", err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, h.Game.Snapshot())
		}).Methods("POST")
	}

	if h.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}
	if h.Feed != nil {
		r.Handle("/feed", h.Feed)
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", slog.Any("error", err))
	}
}
