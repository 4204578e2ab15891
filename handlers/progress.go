package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"flixvault/models"
	"flixvault/services/progress"
)

type progressService interface {
	GetAll(ctx context.Context) ([]models.ProgressRecord, error)
	GetByContentID(ctx context.Context, contentID string) *models.ProgressRecord
	UpdateProgress(ctx context.Context, contentID string, progress float64) (models.ProgressRecord, error)
	Delete(ctx context.Context, contentID string) (bool, error)
	ContinueWatching(ctx context.Context, resolver progress.ContentResolver) ([]models.ContinueWatchingEntry, error)
}

var _ progressService = (*progress.Service)(nil)

type ProgressHandler struct {
	Service  progressService
	Resolver progress.ContentResolver
}

func NewProgressHandler(service progressService, resolver progress.ContentResolver) *ProgressHandler {
	return &ProgressHandler{Service: service, Resolver: resolver}
}

func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.Service.GetAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	contentID, ok := requireContentID(w, r)
	if !ok {
		return
	}

	record := h.Service.GetByContentID(r.Context(), contentID)
	if record == nil {
		http.Error(w, "no progress recorded", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

func (h *ProgressHandler) Update(w http.ResponseWriter, r *http.Request) {
	contentID, ok := requireContentID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Progress float64 `json:"progress"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.Service.UpdateProgress(r.Context(), contentID, payload.Progress)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, progress.ErrContentIDRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

func (h *ProgressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	contentID, ok := requireContentID(w, r)
	if !ok {
		return
	}

	existed, err := h.Service.Delete(r.Context(), contentID)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, progress.ErrContentIDRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	if !existed {
		http.Error(w, "no progress recorded", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProgressHandler) ContinueWatching(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.ContinueWatching(r.Context(), h.Resolver)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func requireContentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	vars := mux.Vars(r)
	contentID := strings.TrimSpace(vars["contentID"])
	if contentID == "" {
		http.Error(w, "content id is required", http.StatusBadRequest)
		return "", false
	}
	return contentID, true
}
