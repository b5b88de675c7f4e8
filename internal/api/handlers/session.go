package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ideialab/maieutica/internal/domain"
)

type SessionHandler struct {
	events domain.EventLog
}

func NewSessionHandler(events domain.EventLog) *SessionHandler {
	return &SessionHandler{events: events}
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	var maxAge time.Duration
	if s := r.URL.Query().Get("max_age"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid max_age duration")
			return
		}
		maxAge = d
	}

	sessions, err := h.events.ActiveSessions(r.Context(), maxAge)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *SessionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.events.SessionSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to summarize session")
		return
	}
	if summary == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.SessionEvents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read session events")
		return
	}
	if events == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	removed, err := h.events.Clear(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
