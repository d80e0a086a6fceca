package dto

import (
	"time"

	"github.com/campuspulse/server/internal/app/models"
)

// CreateClubRequest is bound from the multipart form alongside the logo
// file, which is validated separately.
type CreateClubRequest struct {
	ClubName          string `form:"clubName" binding:"required,min=3,max=100"`
	ClubDescription   string `form:"clubDescription" binding:"required"`
	FacultyName       string `form:"facultyName" binding:"required"`
	FacultyEmail      string `form:"facultyEmail" binding:"required,email"`
	FacultyDepartment string `form:"facultyDepartment" binding:"required"`
}

// CreateClubResponse reports the created club and the faculty OTP dispatch
type CreateClubResponse struct {
	ClubID       int64     `json:"clubId"`
	Status       string    `json:"status"`
	FacultyEmail string    `json:"facultyEmail"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Delivered    bool      `json:"delivered"`
}

// VerifyFacultyRequest carries the club and the code sent to its faculty
type VerifyFacultyRequest struct {
	ClubID int64  `json:"clubId" binding:"required,min=1"`
	OTP    string `json:"otp" binding:"required"`
}

// VerifyFacultyResponse reports the club state after verification
type VerifyFacultyResponse struct {
	ClubID   int64  `json:"clubId"`
	Status   string `json:"status"`
	Approved bool   `json:"approved"`
}

// ResendFacultyOTPRequest asks for a fresh faculty code
type ResendFacultyOTPRequest struct {
	ClubID int64 `json:"clubId" binding:"required,min=1"`
}

// UpdateClubStatusRequest is the admin review decision
type UpdateClubStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
	Notes  string `json:"notes"`
}

// ClubSummary is the compact club shape embedded in other responses
type ClubSummary struct {
	ID       int64  `json:"id"`
	ClubName string `json:"clubName"`
	Status   string `json:"status"`
	LogoURL  string `json:"logoUrl,omitempty"`
}

// ClubResponse represents full club information
type ClubResponse struct {
	ID                int64     `json:"id"`
	ClubName          string    `json:"clubName"`
	ClubDescription   string    `json:"clubDescription"`
	LogoURL           string    `json:"logoUrl,omitempty"`
	OrganizerID       int64     `json:"organizerId"`
	OrganizerName     string    `json:"organizerName,omitempty"`
	FacultyName       string    `json:"facultyName"`
	FacultyDepartment string    `json:"facultyDepartment"`
	IsFacultyVerified bool      `json:"isFacultyVerified"`
	IsClubApproved    bool      `json:"isClubApproved"`
	Status            string    `json:"status"`
	AdminNotes        string    `json:"adminNotes,omitempty"`
	College           string    `json:"college"`
	MemberCount       int       `json:"memberCount"`
	EventCount        int       `json:"eventCount"`
	CreatedAt         time.Time `json:"createdAt"`
}

// ClubListResponse represents a paginated list of clubs
type ClubListResponse struct {
	Clubs      []ClubResponse `json:"clubs"`
	Pagination PaginationInfo `json:"pagination"`
}

// ClubFilterRequest represents club list query parameters
type ClubFilterRequest struct {
	Search   string `form:"search"`
	Status   string `form:"status"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"pageSize,default=10"`
}

// FromClub converts a models.Club to a ClubResponse
func FromClub(club *models.Club) ClubResponse {
	resp := ClubResponse{
		ID:                club.ID,
		ClubName:          club.ClubName,
		ClubDescription:   club.ClubDescription,
		OrganizerID:       club.OrganizerID,
		FacultyName:       club.FacultyName,
		FacultyDepartment: club.FacultyDepartment,
		IsFacultyVerified: club.IsFacultyVerified,
		IsClubApproved:    club.IsClubApproved,
		Status:            string(club.Status),
		AdminNotes:        club.AdminNotes,
		College:           club.College,
		MemberCount:       club.MemberCount,
		EventCount:        club.EventCount,
		CreatedAt:         club.CreatedAt,
	}
	if club.Organizer != nil {
		resp.OrganizerName = club.Organizer.Name
	}
	if club.Logo != nil {
		resp.LogoURL = club.Logo.FileURL
	}
	return resp
}

// SummaryFromClub converts a models.Club to a ClubSummary
func SummaryFromClub(club *models.Club) *ClubSummary {
	if club == nil {
		return nil
	}
	summary := &ClubSummary{
		ID:       club.ID,
		ClubName: club.ClubName,
		Status:   string(club.Status),
	}
	if club.Logo != nil {
		summary.LogoURL = club.Logo.FileURL
	}
	return summary
}
