package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"flixvault/services/player"
)

type PlayerHandler struct {
	Manager *player.Manager
}

func NewPlayerHandler(manager *player.Manager) *PlayerHandler {
	return &PlayerHandler{Manager: manager}
}

// Open starts a playback session for a title and returns its initial state.
func (h *PlayerHandler) Open(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ContentID       string  `json:"contentId"`
		InitialProgress float64 `json:"initialProgress"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session, err := h.Manager.Open(payload.ContentID, payload.InitialProgress)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, player.ErrContentIDRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	if err := session.Load(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(session.Snapshot())
}

// Get returns the current state of a session.
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session.Snapshot())
}

// Event applies one playback event to a session and returns the state that
// results. Events mirror what a media surface emits: metadata, time updates,
// user controls and the end of the stream.
func (h *PlayerHandler) Event(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var payload struct {
		Kind     string  `json:"kind"`
		Time     float64 `json:"time"`
		Duration float64 `json:"duration"`
		Volume   float64 `json:"volume"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var err error
	switch payload.Kind {
	case "metadata":
		err = session.HandleMetadataLoaded(payload.Duration)
	case "play":
		err = session.Play()
	case "pause":
		err = session.Pause()
	case "toggle":
		err = session.TogglePlayback()
	case "timeupdate":
		err = session.HandleTimeUpdate(payload.Time)
	case "seek":
		err = session.Seek(payload.Time)
	case "ended":
		err = session.HandleEnded()
	case "volume":
		err = session.SetVolume(payload.Volume)
	case "mute":
		err = session.ToggleMute()
	case "fullscreen":
		err = session.ToggleFullscreen()
	case "pointer":
		err = session.PointerActivity()
	default:
		http.Error(w, "unknown event kind", http.StatusBadRequest)
		return
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, player.ErrSessionClosed) {
			status = http.StatusGone
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session.Snapshot())
}

// Close tears a session down.
func (h *PlayerHandler) Close(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := strings.TrimSpace(vars["sessionID"])
	if sessionID == "" {
		http.Error(w, "session id is required", http.StatusBadRequest)
		return
	}

	if err := h.Manager.Close(sessionID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, player.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PlayerHandler) requireSession(w http.ResponseWriter, r *http.Request) (*player.Session, bool) {
	vars := mux.Vars(r)
	sessionID := strings.TrimSpace(vars["sessionID"])
	if sessionID == "" {
		http.Error(w, "session id is required", http.StatusBadRequest)
		return nil, false
	}

	session, err := h.Manager.Get(sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}

	return session, true
}
