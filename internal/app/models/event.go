package models

import "time"

// FormField is one descriptor in an event's custom registration form.
// Fields are ordered; Options is only meaningful for choice types.
type FormField struct {
	ID          string    `json:"id"`
	Type        FieldType `json:"type"`
	Label       string    `json:"label"`
	Required    bool      `json:"required"`
	Placeholder string    `json:"placeholder,omitempty"`
	Options     []string  `json:"options,omitempty"`
}

// PaymentConfig is the optional manual-payment setup for an event. The QR
// image is an uploaded file shown to registrants; screenshots come back
// through the registration payment-proof endpoint and are reviewed by hand.
type PaymentConfig struct {
	Amount       float64 `json:"amount"`
	QRFileID     int64   `json:"qrFileId"`
	Instructions string  `json:"instructions,omitempty"`
}

// Event represents a published event owned by a verified organizer's club.
// FormSchema and Payment are stored as JSONB.
type Event struct {
	ID          int64          `json:"id" db:"id"`
	ClubID      int64          `json:"clubId" db:"club_id"`
	OrganizerID int64          `json:"organizerId" db:"organizer_id"`
	Title       string         `json:"title" db:"title"`
	Description string         `json:"description" db:"description"`
	Venue       string         `json:"venue" db:"venue"`
	StartsAt    time.Time      `json:"startsAt" db:"starts_at"`
	EndsAt      time.Time      `json:"endsAt" db:"ends_at"`
	Capacity    int            `json:"capacity" db:"capacity"` // 0 means unlimited
	FormSchema  []FormField    `json:"formSchema" db:"form_schema"`
	Payment     *PaymentConfig `json:"payment,omitempty" db:"payment"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time      `json:"updatedAt" db:"updated_at"`

	// Related entities
	Club *Club `json:"club,omitempty"`
}
