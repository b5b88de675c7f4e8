package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ideialab/maieutica/internal/domain"
	"github.com/ideialab/maieutica/internal/service"
	"github.com/ideialab/maieutica/internal/store"
)

type IdeaHandler struct {
	svc *service.IdeaService
}

func NewIdeaHandler(svc *service.IdeaService) *IdeaHandler {
	return &IdeaHandler{svc: svc}
}

type createIdeaRequest struct {
	Title string `json:"title"`
}

func (h *IdeaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createIdeaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	idea, err := h.svc.Create(r.Context(), req.Title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create idea")
		return
	}

	writeJSON(w, http.StatusCreated, idea)
}

func (h *IdeaHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	idea, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "idea not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get idea")
		return
	}

	writeJSON(w, http.StatusOK, idea)
}

func (h *IdeaHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *domain.IdeaStatus
	if s := r.URL.Query().Get("status"); s != "" {
		if !domain.ValidIdeaStatus(s) {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		v := domain.IdeaStatus(s)
		status = &v
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}

	ideas, err := h.svc.List(r.Context(), status, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list ideas")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ideas": ideas})
}

type updateIdeaRequest struct {
	Title    *string `json:"title,omitempty"`
	Status   *string `json:"status,omitempty"`
	ThreadID *string `json:"thread_id,omitempty"`
}

func (h *IdeaHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateIdeaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	upd := domain.IdeaUpdate{Title: req.Title, ThreadID: req.ThreadID}
	if req.Status != nil {
		if !domain.ValidIdeaStatus(*req.Status) {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		v := domain.IdeaStatus(*req.Status)
		upd.Status = &v
	}
	if upd.Empty() {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	idea, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "idea not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update idea")
		return
	}

	writeJSON(w, http.StatusOK, idea)
}

func (h *IdeaHandler) Arguments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}

	arguments, err := h.svc.Arguments(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "idea not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list arguments")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"arguments": arguments})
}

func (h *IdeaHandler) Related(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	related, err := h.svc.Related(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "idea not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to find related ideas")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"related": related})
}

func (h *IdeaHandler) Argument(w http.ResponseWriter, r *http.Request) {
	arg, err := h.svc.Argument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "argument not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get argument")
		return
	}

	writeJSON(w, http.StatusOK, arg)
}
