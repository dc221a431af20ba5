package chatbot

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type ChatRequest struct {
	RequesterID string `json:"requester_id"`
	Text        string `json:"text"`
}

type ChatResponse struct {
	RequesterID string `json:"requester_id"`
	Response    string `json:"response"`
}

// HandleChat feeds one message into the intake engine. Anonymous web
// clients get a fresh requester id, echoed back so they can keep it for
// the rest of the conversation.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "Missing text", http.StatusBadRequest)
		return
	}
	if req.RequesterID == "" {
		req.RequesterID = uuid.New().String()
	}

	response := h.svc.ProcessMessage(r.Context(), req.RequesterID, req.Text)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatResponse{
		RequesterID: req.RequesterID,
		Response:    response,
	})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/chat", h.HandleChat)
}
