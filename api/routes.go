package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"flixvault/handlers"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	catalogHandler *handlers.CatalogHandler,
	listHandler *handlers.MyListHandler,
	progressHandler *handlers.ProgressHandler,
	playerHandler *handlers.PlayerHandler,
) {
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(corsMiddleware)

	// Catalog. Fixed paths go before the {id} route so mux does not
	// swallow them.
	apiRouter.HandleFunc("/content", catalogHandler.List).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/content/featured", catalogHandler.Featured).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/content/trending", catalogHandler.Trending).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/content/new", catalogHandler.NewReleases).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/content/genre/{genre}", catalogHandler.ByGenre).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/content/type/{type}", catalogHandler.ByType).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/content/{id}", catalogHandler.Get).Methods(http.MethodGet, http.MethodOptions)

	// My list
	apiRouter.HandleFunc("/mylist", listHandler.Get).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/mylist", listHandler.Clear).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/mylist/items", listHandler.Items).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/mylist/{contentID}", listHandler.Contains).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/mylist/{contentID}", listHandler.Add).Methods(http.MethodPut)
	apiRouter.HandleFunc("/mylist/{contentID}", listHandler.Remove).Methods(http.MethodDelete)

	// Watch progress
	apiRouter.HandleFunc("/progress", progressHandler.List).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/progress/continue-watching", progressHandler.ContinueWatching).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/progress/{contentID}", progressHandler.Get).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/progress/{contentID}", progressHandler.Update).Methods(http.MethodPut)
	apiRouter.HandleFunc("/progress/{contentID}", progressHandler.Delete).Methods(http.MethodDelete)

	// Playback sessions
	apiRouter.HandleFunc("/player/sessions", playerHandler.Open).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/player/sessions/{sessionID}", playerHandler.Get).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/player/sessions/{sessionID}", playerHandler.Close).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/player/sessions/{sessionID}/events", playerHandler.Event).Methods(http.MethodPost, http.MethodOptions)
}
