package dto

import (
	"time"

	"github.com/campuspulse/server/internal/app/models"
)

// PaymentConfigRequest configures manual payment for an event. The QR
// image must have been uploaded beforehand.
type PaymentConfigRequest struct {
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	QRFileID     int64   `json:"qrFileId" binding:"required,min=1"`
	Instructions string  `json:"instructions"`
}

// CreateEventRequest represents a new event with its registration form
type CreateEventRequest struct {
	Title       string                `json:"title" binding:"required,min=3,max=200"`
	Description string                `json:"description" binding:"required"`
	Venue       string                `json:"venue" binding:"required"`
	StartsAt    time.Time             `json:"startsAt" binding:"required"`
	EndsAt      time.Time             `json:"endsAt" binding:"required"`
	Capacity    int                   `json:"capacity" binding:"min=0"`
	FormSchema  []models.FormField    `json:"formSchema" binding:"required"`
	Payment     *PaymentConfigRequest `json:"payment"`
}

// UpdateEventRequest mirrors CreateEventRequest for owner edits
type UpdateEventRequest struct {
	Title       string                `json:"title" binding:"required,min=3,max=200"`
	Description string                `json:"description" binding:"required"`
	Venue       string                `json:"venue" binding:"required"`
	StartsAt    time.Time             `json:"startsAt" binding:"required"`
	EndsAt      time.Time             `json:"endsAt" binding:"required"`
	Capacity    int                   `json:"capacity" binding:"min=0"`
	FormSchema  []models.FormField    `json:"formSchema" binding:"required"`
	Payment     *PaymentConfigRequest `json:"payment"`
}

// PaymentInfo is the payment section of an event response
type PaymentInfo struct {
	Amount       float64 `json:"amount"`
	QRImageURL   string  `json:"qrImageUrl,omitempty"`
	Instructions string  `json:"instructions,omitempty"`
}

// EventResponse represents event information
type EventResponse struct {
	ID              int64              `json:"id"`
	ClubID          int64              `json:"clubId"`
	ClubName        string             `json:"clubName,omitempty"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Venue           string             `json:"venue"`
	StartsAt        time.Time          `json:"startsAt"`
	EndsAt          time.Time          `json:"endsAt"`
	Capacity        int                `json:"capacity"`
	RegisteredCount int                `json:"registeredCount"`
	FormSchema      []models.FormField `json:"formSchema"`
	Payment         *PaymentInfo       `json:"payment,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// EventListResponse represents a paginated list of events
type EventListResponse struct {
	Events     []EventResponse `json:"events"`
	Pagination PaginationInfo  `json:"pagination"`
}

// EventFilterRequest represents event list query parameters
type EventFilterRequest struct {
	Search   string `form:"search"`
	ClubID   int64  `form:"clubId"`
	Upcoming bool   `form:"upcoming"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"pageSize,default=10"`
}

// AttendanceRequest carries a scanned registration QR token
type AttendanceRequest struct {
	Code string `json:"code" binding:"required"`
}

// AttendanceResponse reports the scan outcome
type AttendanceResponse struct {
	RegistrationID  int64      `json:"registrationId"`
	StudentName     string     `json:"studentName"`
	Attended        bool       `json:"attended"`
	AttendedAt      *time.Time `json:"attendedAt,omitempty"`
	AlreadyAttended bool       `json:"alreadyAttended"`
}

// FromEvent converts a models.Event to an EventResponse
func FromEvent(event *models.Event, registeredCount int) EventResponse {
	resp := EventResponse{
		ID:              event.ID,
		ClubID:          event.ClubID,
		Title:           event.Title,
		Description:     event.Description,
		Venue:           event.Venue,
		StartsAt:        event.StartsAt,
		EndsAt:          event.EndsAt,
		Capacity:        event.Capacity,
		RegisteredCount: registeredCount,
		FormSchema:      event.FormSchema,
		CreatedAt:       event.CreatedAt,
	}
	if event.Club != nil {
		resp.ClubName = event.Club.ClubName
	}
	if event.Payment != nil {
		resp.Payment = &PaymentInfo{
			Amount:       event.Payment.Amount,
			Instructions: event.Payment.Instructions,
		}
	}
	return resp
}
