package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"flixvault/models"
	"flixvault/services/catalog"
)

type catalogService interface {
	GetAll(ctx context.Context) ([]models.ContentItem, error)
	GetByID(ctx context.Context, id int) *models.ContentItem
	Featured(ctx context.Context) (*models.ContentItem, error)
	ByGenre(ctx context.Context, genre string) ([]models.ContentItem, error)
	ByType(ctx context.Context, contentType string) ([]models.ContentItem, error)
	Trending(ctx context.Context) ([]models.ContentItem, error)
	NewReleases(ctx context.Context) ([]models.ContentItem, error)
}

var _ catalogService = (*catalog.Service)(nil)

// membershipReader supplies list membership for the added sort on browse
// views. Failures degrade to an empty membership.
type membershipReader interface {
	Get(ctx context.Context) (models.MyList, error)
}

type CatalogHandler struct {
	Service    catalogService
	Membership membershipReader
}

func NewCatalogHandler(service catalogService, list membershipReader) *CatalogHandler {
	return &CatalogHandler{Service: service, Membership: list}
}

// List serves the browse pipeline: the full catalog narrowed by the q, genre
// and sort query parameters.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.GetAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	var list models.MyList
	if h.Membership != nil {
		if l, err := h.Membership.Get(r.Context()); err == nil {
			list = l
		}
	}

	params := r.URL.Query()
	view := catalog.BuildView(items,
		params.Get("q"),
		params.Get("genre"),
		catalog.ParseSortKey(params.Get("sort")),
		list)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(strings.TrimSpace(vars["id"]))
	if err != nil {
		http.Error(w, "content id must be numeric", http.StatusBadRequest)
		return
	}

	item := h.Service.GetByID(r.Context(), id)
	if item == nil {
		http.Error(w, "content not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

func (h *CatalogHandler) Featured(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.Featured(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if item == nil {
		http.Error(w, "catalog is empty", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

func (h *CatalogHandler) Trending(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.Trending(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *CatalogHandler) NewReleases(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.NewReleases(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *CatalogHandler) ByGenre(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	genre := strings.TrimSpace(vars["genre"])
	if genre == "" {
		http.Error(w, "genre is required", http.StatusBadRequest)
		return
	}

	items, err := h.Service.ByGenre(r.Context(), genre)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *CatalogHandler) ByType(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	contentType := strings.TrimSpace(vars["type"])
	if contentType == "" {
		http.Error(w, "type is required", http.StatusBadRequest)
		return
	}

	items, err := h.Service.ByType(r.Context(), contentType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}
