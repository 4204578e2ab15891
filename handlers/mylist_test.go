package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"

	"flixvault/handlers"
	"flixvault/models"
	"flixvault/services/catalog"
	"flixvault/services/mylist"
	"flixvault/store"
)

func newListHandler(t *testing.T) *handlers.MyListHandler {
	t.Helper()

	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc, err := mylist.NewService(db)
	if err != nil {
		t.Fatalf("failed to create list service: %v", err)
	}

	catalogSvc, err := catalog.NewService(db)
	if err != nil {
		t.Fatalf("failed to create catalog service: %v", err)
	}

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "catalog.json", []byte(catalogSeed), 0o644); err != nil {
		t.Fatalf("failed to write seed: %v", err)
	}
	if err := catalogSvc.Seed(context.Background(), fs, "catalog.json"); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}

	return handlers.NewMyListHandler(svc, catalogSvc)
}

func TestMyListAddAndGet(t *testing.T) {
	h := newListHandler(t)

	req := httptest.NewRequest(http.MethodPut, "/api/mylist/7", nil)
	req = mux.SetURLVars(req, map[string]string{"contentID": "7"})
	rec := httptest.NewRecorder()
	h.Add(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}

	reqGet := httptest.NewRequest(http.MethodGet, "/api/mylist", nil)
	recGet := httptest.NewRecorder()
	h.Get(recGet, reqGet)

	if recGet.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recGet.Code)
	}

	var list models.MyList
	if err := json.Unmarshal(recGet.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(list.ContentIDs) != 1 || list.ContentIDs[0] != "7" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestMyListContains(t *testing.T) {
	h := newListHandler(t)

	req := httptest.NewRequest(http.MethodPut, "/api/mylist/7", nil)
	req = mux.SetURLVars(req, map[string]string{"contentID": "7"})
	h.Add(httptest.NewRecorder(), req)

	reqCheck := httptest.NewRequest(http.MethodGet, "/api/mylist/7", nil)
	reqCheck = mux.SetURLVars(reqCheck, map[string]string{"contentID": "7"})
	recCheck := httptest.NewRecorder()
	h.Contains(recCheck, reqCheck)

	var body map[string]bool
	if err := json.Unmarshal(recCheck.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body["inList"] {
		t.Fatalf("expected inList=true, got %+v", body)
	}

	reqMiss := httptest.NewRequest(http.MethodGet, "/api/mylist/99", nil)
	reqMiss = mux.SetURLVars(reqMiss, map[string]string{"contentID": "99"})
	recMiss := httptest.NewRecorder()
	h.Contains(recMiss, reqMiss)

	if err := json.Unmarshal(recMiss.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["inList"] {
		t.Fatalf("expected inList=false, got %+v", body)
	}
}

func TestMyListRemoveAndClear(t *testing.T) {
	h := newListHandler(t)

	for _, id := range []string{"1", "2", "3"} {
		req := httptest.NewRequest(http.MethodPut, "/api/mylist/"+id, nil)
		req = mux.SetURLVars(req, map[string]string{"contentID": id})
		h.Add(httptest.NewRecorder(), req)
	}

	reqDel := httptest.NewRequest(http.MethodDelete, "/api/mylist/2", nil)
	reqDel = mux.SetURLVars(reqDel, map[string]string{"contentID": "2"})
	recDel := httptest.NewRecorder()
	h.Remove(recDel, reqDel)

	if recDel.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", recDel.Code)
	}

	reqClear := httptest.NewRequest(http.MethodDelete, "/api/mylist", nil)
	recClear := httptest.NewRecorder()
	h.Clear(recClear, reqClear)

	if recClear.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", recClear.Code)
	}

	reqGet := httptest.NewRequest(http.MethodGet, "/api/mylist", nil)
	recGet := httptest.NewRecorder()
	h.Get(recGet, reqGet)

	var list models.MyList
	if err := json.Unmarshal(recGet.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(list.ContentIDs) != 0 {
		t.Fatalf("expected empty list, got %+v", list)
	}
}

func TestMyListItemsSortedByMembershipRecency(t *testing.T) {
	h := newListHandler(t)

	// Item 3 joins the list after item 1; item 2 never joins.
	for _, id := range []string{"1", "3"} {
		req := httptest.NewRequest(http.MethodPut, "/api/mylist/"+id, nil)
		req = mux.SetURLVars(req, map[string]string{"contentID": id})
		h.Add(httptest.NewRecorder(), req)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/mylist/items", nil)
	rec := httptest.NewRecorder()
	h.Items(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var view catalog.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode view: %v", err)
	}
	if len(view.Items) != 2 {
		t.Fatalf("expected 2 resolved members, got %d", len(view.Items))
	}
	if view.Items[0].ID != 3 || view.Items[1].ID != 1 {
		t.Fatalf("expected added-desc order [3 1], got [%d %d]", view.Items[0].ID, view.Items[1].ID)
	}
	if view.Sort != catalog.SortByAdded {
		t.Fatalf("expected the added sort by default, got %s", view.Sort)
	}
}

func TestMyListItemsAppliesSortParam(t *testing.T) {
	h := newListHandler(t)

	for _, id := range []string{"1", "3"} {
		req := httptest.NewRequest(http.MethodPut, "/api/mylist/"+id, nil)
		req = mux.SetURLVars(req, map[string]string{"contentID": id})
		h.Add(httptest.NewRecorder(), req)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/mylist/items?sort=year", nil)
	rec := httptest.NewRecorder()
	h.Items(rec, req)

	var view catalog.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode view: %v", err)
	}
	if len(view.Items) != 2 || view.Items[0].ID != 3 || view.Items[1].ID != 1 {
		t.Fatalf("expected year-desc order [3 1] over members, got %+v", view.Items)
	}
}

func TestMyListMissingContentID(t *testing.T) {
	h := newListHandler(t)

	req := httptest.NewRequest(http.MethodPut, "/api/mylist/", nil)
	rec := httptest.NewRecorder()
	h.Add(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}
