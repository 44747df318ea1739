package booking

import (
	"fmt"
	"strings"
	"time"
)

type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type Reservation struct {
	ID          string    `json:"id"`
	RequesterID string    `json:"requesterId"`
	Resource    Resource  `json:"resource"`
	Window      Window    `json:"window"`
	Purpose     string    `json:"purpose"`
	Status      Status    `json:"status"`
	AdminNote   string    `json:"adminNote,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Request is what a requester supplies to open a reservation.
type Request struct {
	RequesterID string
	Resource    Resource
	Window      Window
	Purpose     string
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.RequesterID) == "" {
		return ValidationError{Code: "REQUESTER_REQUIRED", Message: "requester is required"}
	}
	if err := r.Resource.Validate(); err != nil {
		return err
	}
	if err := r.Window.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Purpose) == "" {
		return ValidationError{Code: "PURPOSE_REQUIRED", Message: "purpose is required"}
	}
	return nil
}

// NewReservation builds a Submitted reservation from a validated request.
func NewReservation(id string, req Request, now time.Time) (Reservation, error) {
	if id == "" {
		return Reservation{}, ValidationError{Code: "ID_REQUIRED", Message: "reservation id is required"}
	}
	if err := req.Validate(); err != nil {
		return Reservation{}, err
	}
	return Reservation{
		ID:          id,
		RequesterID: req.RequesterID,
		Resource:    req.Resource,
		Window:      req.Window,
		Purpose:     strings.TrimSpace(req.Purpose),
		Status:      StatusSubmitted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
