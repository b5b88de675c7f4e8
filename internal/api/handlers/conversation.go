package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ideialab/maieutica/internal/agent"
	"github.com/ideialab/maieutica/internal/domain"
	"github.com/ideialab/maieutica/internal/store"
)

type ConversationHandler struct {
	coordinator *agent.Coordinator
}

func NewConversationHandler(coordinator *agent.Coordinator) *ConversationHandler {
	return &ConversationHandler{coordinator: coordinator}
}

type startConversationRequest struct {
	Message string `json:"message"`
	IdeaID  string `json:"idea_id,omitempty"`
}

type messageRequest struct {
	Message string `json:"message"`
}

// turnResponse is the per-turn API view of the conversation state.
type turnResponse struct {
	SessionID           string                      `json:"session_id"`
	Reply               string                      `json:"reply"`
	Stage               domain.Stage                `json:"stage"`
	NextStep            domain.NextStep             `json:"next_step,omitempty"`
	ReflectionPrompt    string                      `json:"reflection_prompt,omitempty"`
	StageSuggestion     *domain.StageSuggestion     `json:"stage_suggestion,omitempty"`
	PendingInterrupt    *domain.Interrupt           `json:"pending_interrupt,omitempty"`
	FocalArgument       *domain.FocalArgument       `json:"focal_argument,omitempty"`
	CognitiveModel      *domain.CognitiveModel      `json:"cognitive_model,omitempty"`
	StructurerOutput    *domain.StructurerOutput    `json:"structurer_output,omitempty"`
	MethodologistOutput *domain.MethodologistOutput `json:"methodologist_output,omitempty"`
}

func toTurnResponse(state *domain.ConversationState) turnResponse {
	return turnResponse{
		SessionID:           state.SessionID,
		Reply:               state.LastAssistantMessage(),
		Stage:               state.CurrentStage,
		NextStep:            state.NextStep,
		ReflectionPrompt:    state.ReflectionPrompt,
		StageSuggestion:     state.StageSuggestion,
		PendingInterrupt:    state.PendingInterrupt,
		FocalArgument:       state.FocalArgument,
		CognitiveModel:      state.CognitiveModel,
		StructurerOutput:    state.StructurerOutput,
		MethodologistOutput: state.MethodologistOutput,
	}
}

func (h *ConversationHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	state, err := h.coordinator.Start(r.Context(), req.Message, req.IdeaID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start conversation")
		return
	}

	writeJSON(w, http.StatusCreated, toTurnResponse(state))
}

func (h *ConversationHandler) Message(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	state, err := h.coordinator.Message(r.Context(), sessionID, req.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, toTurnResponse(state))
}

func (h *ConversationHandler) GetState(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	state, err := h.coordinator.State(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}

	sessions, err := h.coordinator.ListSessions(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"conversations": sessions})
}
