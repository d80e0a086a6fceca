package dto

import (
	"time"

	"github.com/campuspulse/server/internal/app/models"
)

// RegisterForEventRequest carries the student's custom-form answers,
// keyed by field id. Values are validated against the event's schema.
type RegisterForEventRequest struct {
	Responses map[string]any `json:"responses" binding:"required"`
}

// RegistrationResponse represents one registration
type RegistrationResponse struct {
	ID                 int64          `json:"id"`
	EventID            int64          `json:"eventId"`
	EventTitle         string         `json:"eventTitle,omitempty"`
	UserID             int64          `json:"userId"`
	StudentName        string         `json:"studentName,omitempty"`
	StudentEmail       string         `json:"studentEmail,omitempty"`
	Responses          map[string]any `json:"responses"`
	RegistrationStatus string         `json:"registrationStatus"`
	PaymentStatus      *string        `json:"paymentStatus,omitempty"`
	PaymentProofURL    string         `json:"paymentProofUrl,omitempty"`
	Attended           bool           `json:"attended"`
	AttendedAt         *time.Time     `json:"attendedAt,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
}

// RegistrationListResponse represents a paginated list of registrations
type RegistrationListResponse struct {
	Registrations []RegistrationResponse `json:"registrations"`
	Pagination    PaginationInfo         `json:"pagination"`
}

// RegistrationFilterRequest represents registration list query parameters
type RegistrationFilterRequest struct {
	Status        string `form:"status"`
	PaymentStatus string `form:"paymentStatus"`
	Page          int    `form:"page,default=1"`
	PageSize      int    `form:"pageSize,default=20"`
}

// UpdateRegistrationStatusRequest is the organizer's review decision.
// PaymentStatus is only meaningful for paid events.
type UpdateRegistrationStatusRequest struct {
	Status        string `json:"status" binding:"omitempty,oneof=approved rejected"`
	PaymentStatus string `json:"paymentStatus" binding:"omitempty,oneof=verified rejected"`
}

// FromRegistration converts a models.Registration to a RegistrationResponse
func FromRegistration(reg *models.Registration) RegistrationResponse {
	resp := RegistrationResponse{
		ID:                 reg.ID,
		EventID:            reg.EventID,
		UserID:             reg.UserID,
		Responses:          reg.Responses,
		RegistrationStatus: string(reg.RegistrationStatus),
		Attended:           reg.Attended,
		AttendedAt:         reg.AttendedAt,
		CreatedAt:          reg.CreatedAt,
	}
	if reg.PaymentStatus != nil {
		status := string(*reg.PaymentStatus)
		resp.PaymentStatus = &status
	}
	if reg.User != nil {
		resp.StudentName = reg.User.Name
		resp.StudentEmail = reg.User.Email
	}
	if reg.Event != nil {
		resp.EventTitle = reg.Event.Title
	}
	return resp
}
