package request

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
)

// BloodRequest is the immutable record created when an intake is
// confirmed (or submitted through the manual form).
type BloodRequest struct {
	ID              uuid.UUID `json:"id" db:"id"`
	RequesterID     string    `json:"requester_id" db:"requester_id"`
	BloodType       string    `json:"blood_type" db:"blood_type"`
	Hospital        string    `json:"hospital" db:"hospital"`
	Location        string    `json:"location" db:"location"`
	Zone            string    `json:"zone" db:"zone"`
	PatientProblem  string    `json:"patient_problem" db:"patient_problem"`
	BagNeeded       int       `json:"bag_needed" db:"bag_needed"`
	NeededDate      string    `json:"needed_date" db:"needed_date"` // DD/MM/YYYY as collected
	NeededTime      string    `json:"needed_time" db:"needed_time"`
	HemoglobinPoint string    `json:"hemoglobin_point" db:"hemoglobin_point"`
	AdditionalInfo  string    `json:"additional_info" db:"additional_info"`
	Status          Status    `json:"status" db:"status"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
