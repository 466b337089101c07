package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"server/internal/domain"
	"server/internal/generate"
	"server/internal/infra"
)

// App bundles the handler dependencies. All fields are immutable after
// startup; handlers share no mutable state across requests.
type App struct {
	Config   *infra.Config
	Logger   infra.Logger
	Fast     *generate.FastOrchestrator
	Batch    *generate.BatchOrchestrator
	Status   *generate.StatusResolver
	Registry domain.BatchJobRegistry
}

func NewApp(cfg *infra.Config, logger infra.Logger, fast *generate.FastOrchestrator, batch *generate.BatchOrchestrator, status *generate.StatusResolver, registry domain.BatchJobRegistry) *App {
	return &App{
		Config:   cfg,
		Logger:   logger,
		Fast:     fast,
		Batch:    batch,
		Status:   status,
		Registry: registry,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}

// fail maps domain errors onto HTTP status codes: caller mistakes are 4xx,
// backend and decode failures are 5xx.
func (a *App) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrGeneration), errors.Is(err, domain.ErrBackendUnavailable):
		a.error(w, http.StatusBadGateway, "generation_failed", err.Error())
	case errors.Is(err, domain.ErrImageDecode):
		a.error(w, http.StatusInternalServerError, "decode_failed", err.Error())
	default:
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
