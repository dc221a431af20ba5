package request

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"blood-donation-bot/internal/chatbot"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// CreateRequestForm is the manual request form, the non-conversational
// path the chatbot points users at when persistence is down.
type CreateRequestForm struct {
	RequesterID     string `json:"requester_id"`
	BloodType       string `json:"blood_type"`
	Hospital        string `json:"hospital"`
	Location        string `json:"location"`
	Zone            string `json:"zone"`
	PatientProblem  string `json:"patient_problem"`
	BagNeeded       string `json:"bag_needed"`
	NeededDate      string `json:"needed_date"`
	NeededTime      string `json:"needed_time"`
	HemoglobinPoint string `json:"hemoglobin_point"`
	AdditionalInfo  string `json:"additional_info"`
}

// validate applies the same domain rules the chatbot enforces turn by
// turn.
func (f *CreateRequestForm) validate() string {
	if _, ok := chatbot.ExtractBloodType(f.BloodType); !ok {
		return "blood_type must be one of A+, A-, B+, B-, AB+, AB-, O+, O-"
	}
	if len(f.Hospital) <= 3 {
		return "hospital is required"
	}
	if len(f.Location) <= 3 {
		return "location is required"
	}
	if len(f.Zone) <= 2 {
		return "zone is required"
	}
	if len(f.PatientProblem) <= 3 {
		return "patient_problem is required"
	}
	if !chatbot.ValidateBloodBags(f.BagNeeded) {
		return "bag_needed must be between 1 and 10"
	}
	if !chatbot.ValidateDate(f.NeededDate) {
		return "needed_date must be DD/MM/YYYY within the next 30 days"
	}
	if !chatbot.ValidateTime(f.NeededTime) {
		return "needed_time must be HH:MM or H:MM AM/PM"
	}
	if f.HemoglobinPoint != "" && f.HemoglobinPoint != chatbot.NotSpecified &&
		!chatbot.ValidateHemoglobin(f.HemoglobinPoint) {
		return "hemoglobin_point must be between 7.0 and 20.0"
	}
	return ""
}

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var form CreateRequestForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if msg := form.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if form.RequesterID == "" {
		form.RequesterID = uuid.New().String()
	}

	bloodType, _ := chatbot.ExtractBloodType(form.BloodType)
	hemoglobin := form.HemoglobinPoint
	if hemoglobin == "" {
		hemoglobin = chatbot.NotSpecified
	}

	id, err := h.svc.CreateBloodRequest(r.Context(), chatbot.Draft{
		RequesterID:     form.RequesterID,
		BloodType:       bloodType,
		Hospital:        form.Hospital,
		Location:        form.Location,
		Zone:            form.Zone,
		PatientProblem:  form.PatientProblem,
		BagNeeded:       form.BagNeeded,
		Date:            form.NeededDate,
		Time:            form.NeededTime,
		HemoglobinPoint: hemoglobin,
		AdditionalInfo:  form.AdditionalInfo,
	})
	if err != nil {
		http.Error(w, "Failed to create request", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"id":           id.String(),
		"requester_id": form.RequesterID,
	})
}

func (h *Handler) ListOpenRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.svc.ListOpen(r.Context())
	if err != nil {
		http.Error(w, "Failed to list requests", http.StatusInternalServerError)
		return
	}
	if requests == nil {
		requests = []BloodRequest{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(requests)
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid request ID", http.StatusBadRequest)
		return
	}
	br, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Request not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(br)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/requests", h.CreateRequest)
	r.Get("/requests", h.ListOpenRequests)
	r.Get("/requests/{id}", h.GetRequest)
}
