package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/samber/lo"

	"server/internal/domain"
)

type submitRequest struct {
	Prompts []string `json:"prompts"`
}

type fastResponse struct {
	Mode   string   `json:"mode"`
	Count  int      `json:"count"`
	Images []string `json:"images"`
}

type batchResponse struct {
	Mode    string `json:"mode"`
	BatchID string `json:"batch_id"`
}

type statusResponse struct {
	Status string   `json:"status"`
	Count  *int     `json:"count,omitempty"`
	Images []string `json:"images,omitempty"`
}

// SubmitFast runs the synchronous path: every prompt is generated and
// normalized before the response is written. The aspect ratio is fixed
// process-wide.
func (a *App) SubmitFast(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	images, err := a.Fast.Run(r.Context(), req.Prompts, a.Config.DefaultAspect)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, fastResponse{Mode: "fast", Count: len(images), Images: images})
}

// SubmitBatch hands the prompt list to the backend's asynchronous batch API
// and returns the opaque job handle immediately.
func (a *App) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	batchID, err := a.Batch.Submit(r.Context(), req.Prompts, a.Config.DefaultAspect)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, batchResponse{Mode: "batch", BatchID: batchID})
}

// BatchStatus polls a submitted batch. Completed batches carry the
// normalized images inline; every other state reports the status only.
func (a *App) BatchStatus(w http.ResponseWriter, r *http.Request) {
	result, err := a.Status.Poll(r.Context(), r.URL.Query().Get("batch_id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	resp := statusResponse{Status: string(result.Status)}
	if result.Status == domain.BatchStatusCompleted {
		count := result.Count
		resp.Count = &count
		resp.Images = result.Images
	}
	a.json(w, http.StatusOK, resp)
}

// ListBatches reports the jobs this deployment has submitted. It only works
// when the registry extension is configured; otherwise the endpoint says so.
func (a *App) ListBatches(w http.ResponseWriter, r *http.Request) {
	if a.Registry == nil {
		a.error(w, http.StatusNotFound, "not_found", "batch registry is not configured")
		return
	}
	jobs, err := a.Registry.List(r.Context(), 100)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: batch registry list failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list batches")
		return
	}
	items := lo.Map(jobs, func(job domain.BatchJob, _ int) map[string]any {
		return map[string]any{
			"batch_id":     job.ID,
			"aspect_ratio": string(job.AspectRatio),
			"item_count":   job.ItemCount,
			"created_at":   job.CreatedAt.Format(time.RFC3339),
		}
	})
	a.json(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}
