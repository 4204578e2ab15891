package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"flixvault/models"
	"flixvault/services/catalog"
	"flixvault/services/mylist"
)

type listService interface {
	Get(ctx context.Context) (models.MyList, error)
	Items(ctx context.Context, resolver mylist.ContentResolver) ([]models.ContentItem, models.MyList, error)
	Add(ctx context.Context, contentID string) error
	Remove(ctx context.Context, contentID string) error
	IsInList(ctx context.Context, contentID string) bool
	Clear(ctx context.Context) error
}

var _ listService = (*mylist.Service)(nil)

type MyListHandler struct {
	Service  listService
	Resolver mylist.ContentResolver
}

func NewMyListHandler(service listService, resolver mylist.ContentResolver) *MyListHandler {
	return &MyListHandler{Service: service, Resolver: resolver}
}

func (h *MyListHandler) Get(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.Get(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// Items serves the list view: members resolved to catalog items, narrowed
// and ordered by the same q, genre and sort parameters as the browse page.
// The sort defaults to added, newest membership first.
func (h *MyListHandler) Items(w http.ResponseWriter, r *http.Request) {
	items, list, err := h.Service.Items(r.Context(), h.Resolver)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
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

func (h *MyListHandler) Add(w http.ResponseWriter, r *http.Request) {
	contentID, ok := requireContentID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Add(r.Context(), contentID); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, mylist.ErrContentIDRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MyListHandler) Remove(w http.ResponseWriter, r *http.Request) {
	contentID, ok := requireContentID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Remove(r.Context(), contentID); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, mylist.ErrContentIDRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MyListHandler) Contains(w http.ResponseWriter, r *http.Request) {
	contentID, ok := requireContentID(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{
		"inList": h.Service.IsInList(r.Context(), contentID),
	})
}

func (h *MyListHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Clear(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
