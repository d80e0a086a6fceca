package models

import "time"

// Registration links a student to an event together with their custom-form
// responses. PaymentStatus is nil for free events.
type Registration struct {
	ID                 int64              `json:"id" db:"id"`
	EventID            int64              `json:"eventId" db:"event_id"`
	UserID             int64              `json:"userId" db:"user_id"`
	Responses          map[string]any     `json:"responses" db:"responses"`
	RegistrationStatus RegistrationStatus `json:"registrationStatus" db:"registration_status"`
	PaymentStatus      *PaymentStatus     `json:"paymentStatus,omitempty" db:"payment_status"`
	PaymentProofFileID *int64             `json:"paymentProofFileId,omitempty" db:"payment_proof_file_id"`
	Attended           bool               `json:"attended" db:"attended"`
	AttendedAt         *time.Time         `json:"attendedAt,omitempty" db:"attended_at"`
	CreatedAt          time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time          `json:"updatedAt" db:"updated_at"`

	// Related entities
	User  *User  `json:"user,omitempty"`
	Event *Event `json:"event,omitempty"`
}
