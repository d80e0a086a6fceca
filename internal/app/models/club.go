package models

import "time"

// Club represents an organizer-owned club awaiting or holding faculty
// sign-off. One club per organizer; the faculty OTP columns are cleared
// once consumed so a code can never validate twice.
type Club struct {
	ID                  int64      `json:"id" db:"id"`
	ClubName            string     `json:"clubName" db:"club_name"`
	ClubDescription     string     `json:"clubDescription" db:"club_description"`
	LogoFileID          int64      `json:"logoFileId" db:"logo_file_id"`
	OrganizerID         int64      `json:"organizerId" db:"organizer_id"`
	FacultyName         string     `json:"facultyName" db:"faculty_name"`
	FacultyEmail        string     `json:"facultyEmail" db:"faculty_email"`
	FacultyDepartment   string     `json:"facultyDepartment" db:"faculty_department"`
	IsOrganizerVerified bool       `json:"isOrganizerVerified" db:"is_organizer_verified"` // organizer identity proven at signup
	IsFacultyVerified   bool       `json:"isFacultyVerified" db:"is_faculty_verified"`
	IsClubApproved      bool       `json:"isClubApproved" db:"is_club_approved"`
	FacultyOTPDigest    *string    `json:"-" db:"faculty_otp_digest"`
	FacultyOTPExpiresAt *time.Time `json:"-" db:"faculty_otp_expires_at"`
	FacultyOTPSentAt    *time.Time `json:"-" db:"faculty_otp_sent_at"`
	Status              ClubStatus `json:"status" db:"status"`
	AdminNotes          string     `json:"adminNotes,omitempty" db:"admin_notes"`
	College             string     `json:"college" db:"college"`
	MemberCount         int        `json:"memberCount" db:"member_count"`
	EventCount          int        `json:"eventCount" db:"event_count"`
	CreatedAt           time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time  `json:"updatedAt" db:"updated_at"`

	// Related entities
	Organizer *User `json:"organizer,omitempty"`
	Logo      *File `json:"logo,omitempty"`
}

// OTPExpired reports whether the stored faculty OTP is past its window.
// The code is live strictly before the expiry instant, matching the
// store-side expiry condition. A club with no stored digest has nothing
// to expire.
func (c *Club) OTPExpired(now time.Time) bool {
	return c.FacultyOTPExpiresAt != nil && !c.FacultyOTPExpiresAt.After(now)
}
