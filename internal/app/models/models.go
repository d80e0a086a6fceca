package models

// UserType defines the account type
type UserType string

const (
	UserTypeStudent   UserType = "student"
	UserTypeOrganizer UserType = "organizer"
	UserTypeAdmin     UserType = "admin"
)

// ClubStatus is the club approval state machine. Transitions only move
// forward: pending -> approved via the faculty OTP check, and into
// rejected only through the admin status endpoint.
type ClubStatus string

const (
	ClubStatusPending         ClubStatus = "pending"
	ClubStatusFacultyVerified ClubStatus = "faculty_verified"
	ClubStatusApproved        ClubStatus = "approved"
	ClubStatusRejected        ClubStatus = "rejected"
)

// RegistrationStatus is the organizer-controlled review state of an event
// registration.
type RegistrationStatus string

const (
	RegistrationStatusPending  RegistrationStatus = "pending"
	RegistrationStatusApproved RegistrationStatus = "approved"
	RegistrationStatusRejected RegistrationStatus = "rejected"
)

// Valid reports whether s is a known registration status.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationStatusPending, RegistrationStatusApproved, RegistrationStatusRejected:
		return true
	}
	return false
}

// PaymentStatus tracks manual review of an uploaded payment screenshot.
// Only set for registrations to events that carry a payment config.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusVerified PaymentStatus = "verified"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// Valid reports whether s is a known payment review status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusVerified, PaymentStatusRejected:
		return true
	}
	return false
}

// FieldType enumerates the supported registration-form field kinds
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeNumber   FieldType = "number"
	FieldTypeEmail    FieldType = "email"
	FieldTypePhone    FieldType = "phone"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCheckbox FieldType = "checkbox"
)

// RequiresOptions reports whether the field type needs a non-empty options list
func (t FieldType) RequiresOptions() bool {
	switch t {
	case FieldTypeSelect, FieldTypeRadio, FieldTypeCheckbox:
		return true
	}
	return false
}

// ValidFieldType reports whether t is one of the supported field kinds
func ValidFieldType(t FieldType) bool {
	switch t {
	case FieldTypeText, FieldTypeTextarea, FieldTypeNumber, FieldTypeEmail,
		FieldTypePhone, FieldTypeSelect, FieldTypeRadio, FieldTypeCheckbox:
		return true
	}
	return false
}
