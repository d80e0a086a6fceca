package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspulse/server/internal/app/models"
	"github.com/campuspulse/server/internal/app/models/dto"
	"github.com/campuspulse/server/internal/pkg/apperrors"
	"github.com/campuspulse/server/internal/pkg/filestorage"
)

type clubTestEnv struct {
	svc   *ClubService
	clubs *fakeClubRepo
	users *fakeUserRepo
	files *fakeFileRepo
	email *fakeEmailService
	clock time.Time
}

func newClubTestEnv(t *testing.T, allowBypass bool) *clubTestEnv {
	t.Helper()

	users := newFakeUserRepo()
	env := &clubTestEnv{
		users: users,
		clubs: newFakeClubRepo(users),
		files: newFakeFileRepo(),
		email: &fakeEmailService{},
		clock: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	storage, err := filestorage.NewLocalStorage(t.TempDir(), "http://test/uploads")
	require.NoError(t, err)

	env.svc = NewClubService(
		env.clubs, env.users, env.files, storage, env.email,
		"KL University",
		15*time.Minute, 60*time.Second,
		allowBypass,
		zerolog.Nop(),
	)
	env.svc.now = func() time.Time { return env.clock }
	return env
}

func (e *clubTestEnv) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

// seedClub creates an organizer and their pending club with a known
// faculty code already issued.
func (e *clubTestEnv) seedClub(t *testing.T, code string) (organizerID, clubID int64) {
	t.Helper()

	organizerID, err := e.users.Create(context.Background(), &models.User{
		Name:     "Rohit Verma",
		Email:    "2100035678@klu.ac.in",
		UserType: models.UserTypeOrganizer,
	})
	require.NoError(t, err)

	clubID, err = e.clubs.Create(context.Background(), &models.Club{
		ClubName:        "Robotics Club",
		ClubDescription: "Builds robots",
		OrganizerID:     organizerID,
		FacultyName:     "Dr. Meena Iyer",
		FacultyEmail:    "meena.iyer@university.edu",
	})
	require.NoError(t, err)

	seedFacultyOTP(e.clubs.clubs[clubID], code, e.clock, 15*time.Minute)
	return organizerID, clubID
}

// logoUpload builds an openable multipart file header the way gin hands
// one to the controller
func logoUpload(t *testing.T, filename string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="logo"; filename=%q`, filename))
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["logo"][0]
}

func TestCreateClubCleansUpLogoWhenCodeGenerationFails(t *testing.T) {
	env := newClubTestEnv(t, false)
	organizerID, err := env.users.Create(context.Background(), &models.User{
		Name:     "Rohit Verma",
		Email:    "2100035678@klu.ac.in",
		UserType: models.UserTypeOrganizer,
	})
	require.NoError(t, err)

	env.svc.generate = func() (string, error) {
		return "", errors.New("entropy source unavailable")
	}

	_, err = env.svc.CreateClub(context.Background(), organizerID, &dto.CreateClubRequest{
		ClubName:          "Robotics Club",
		ClubDescription:   "Builds robots",
		FacultyName:       "Dr. Meena Iyer",
		FacultyEmail:      "meena.iyer@university.edu",
		FacultyDepartment: "Mechanical Engineering",
	}, logoUpload(t, "logo.png"))
	require.Error(t, err)

	assert.Empty(t, env.files.files)
	assert.Empty(t, env.clubs.clubs)
}

func TestVerifyFacultyApprovesClub(t *testing.T) {
	env := newClubTestEnv(t, false)
	organizerID, clubID := env.seedClub(t, "482913")

	resp, err := env.svc.VerifyFaculty(context.Background(), organizerID, &dto.VerifyFacultyRequest{
		ClubID: clubID,
		OTP:    "482913",
	})
	require.NoError(t, err)
	assert.True(t, resp.Approved)
	assert.Equal(t, string(models.ClubStatusApproved), resp.Status)

	club := env.clubs.clubs[clubID]
	assert.Equal(t, models.ClubStatusApproved, club.Status)
	assert.True(t, club.IsClubApproved)
	// The consumed code is gone; nothing can validate against it again
	assert.Nil(t, club.FacultyOTPDigest)
	assert.Nil(t, club.FacultyOTPExpiresAt)

	// Approval flips the organizer's flag too
	assert.True(t, env.users.users[organizerID].IsClubVerified)
}

func TestVerifyFacultyWrongCodeChangesNothing(t *testing.T) {
	env := newClubTestEnv(t, false)
	organizerID, clubID := env.seedClub(t, "482913")

	_, err := env.svc.VerifyFaculty(context.Background(), organizerID, &dto.VerifyFacultyRequest{
		ClubID: clubID,
		OTP:    "111111",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidOTP)

	club := env.clubs.clubs[clubID]
	assert.Equal(t, models.ClubStatusPending, club.Status)
	assert.False(t, club.IsClubApproved)
	assert.NotNil(t, club.FacultyOTPDigest)
	assert.False(t, env.users.users[organizerID].IsClubVerified)

	// The stored code is still good
	_, err = env.svc.VerifyFaculty(context.Background(), organizerID, &dto.VerifyFacultyRequest{
		ClubID: clubID,
		OTP:    "482913",
	})
	assert.NoError(t, err)
}

func TestVerifyFacultyExpiredCode(t *testing.T) {
	env := newClubTestEnv(t, false)
	organizerID, clubID := env.seedClub(t, "482913")

	env.advance(16 * time.Minute)

	_, err := env.svc.VerifyFaculty(context.Background(), organizerID, &dto.VerifyFacultyRequest{
		ClubID: clubID,
		OTP:    "482913",
	})
	assert.ErrorIs(t, err, apperrors.ErrOTPExpired)
	assert.Equal(t, models.ClubStatusPending, env.clubs.clubs[clubID].Status)
}

func TestVerifyFacultyExpiredAtExactInstant(t *testing.T) {
	env := newClubTestEnv(t, false)
	organizerID, clubID := env.seedClub(t, "482913")

	// The code is live strictly before the expiry instant
	env.advance(15 * time.Minute)

	_, err := env.svc.VerifyFaculty(context.Background(), organizerID, &dto.VerifyFacultyRequest{
		ClubID: clubID,
		OTP:    "482913",
	})
	assert.ErrorIs(t, err, apperrors.ErrOTPExpired)
}

func TestVerifyFacultyRepeatAfterApprovalIsIdempotent(t *testing.T) {
	env := newClubTestEnv(t, false)
	organizerID, clubID := env.seedClub(t, "482913")

	_, err := env.svc.VerifyFaculty(context.Background(), organizerID, &dto.VerifyFacultyRequest{
		ClubID: clubID,
		OTP:    "482913",
	})
	require.NoError(t, err)
	approvedAt := env.clubs.clubs[clubID].UpdatedAt

	// A duplicate submit of the same code reports success without a second
	// transition
	resp, err := env.svc.VerifyFaculty(context.Background(), organizerID, &dto.VerifyFacultyRequest{
		ClubID: clubID,
		OTP:    "482913",
	})
	require.NoError(t, err)
	assert.True(t, resp.Approved)
	assert.Equal(t, approvedAt, env.clubs.clubs[clubID].UpdatedAt)
}

func TestVerifyFacultyOnlyOrganizer(t *testing.T) {
	env := newClubTestEnv(t, false)
	_, clubID := env.seedClub(t, "482913")

	otherID, err := env.users.Create(context.Background(), &models.User{Email: "2100039999@klu.ac.in"})
	require.NoError(t, err)

	_, err = env.svc.VerifyFaculty(context.Background(), otherID, &dto.VerifyFacultyRequest{
		ClubID: clubID,
		OTP:    "482913",
	})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestVerifyFacultyRejectedClub(t *testing.T) {
	env := newClubTestEnv(t, false)
	organizerID, clubID := env.seedClub(t, "482913")

	require.NoError(t, env.clubs.UpdateStatus(context.Background(), clubID, models.ClubStatusRejected, "incomplete application"))

	_, err := env.svc.VerifyFaculty(context.Background(), organizerID, &dto.VerifyFacultyRequest{
		ClubID: clubID,
		OTP:    "482913",
	})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestVerifyFacultyBypassCode(t *testing.T) {
	env := newClubTestEnv(t, true)
	organizerID, clubID := env.seedClub(t, "482913")

	resp, err := env.svc.VerifyFaculty(context.Background(), organizerID, &dto.VerifyFacultyRequest{
		ClubID: clubID,
		OTP:    devBypassCode,
	})
	require.NoError(t, err)
	assert.True(t, resp.Approved)
}

func TestResendFacultyOTPInvalidatesOldCode(t *testing.T) {
	env := newClubTestEnv(t, false)
	organizerID, clubID := env.seedClub(t, "482913")

	env.advance(2 * time.Minute)

	resp, err := env.svc.ResendFacultyOTP(context.Background(), organizerID, clubID)
	require.NoError(t, err)
	assert.Equal(t, env.clock.Add(15*time.Minute), resp.ExpiresAt)

	newCode := env.email.lastFacultyCode()
	require.NotEmpty(t, newCode)

	_, err = env.svc.VerifyFaculty(context.Background(), organizerID, &dto.VerifyFacultyRequest{
		ClubID: clubID,
		OTP:    "482913",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidOTP)

	_, err = env.svc.VerifyFaculty(context.Background(), organizerID, &dto.VerifyFacultyRequest{
		ClubID: clubID,
		OTP:    newCode,
	})
	assert.NoError(t, err)
}

func TestResendFacultyOTPThrottled(t *testing.T) {
	env := newClubTestEnv(t, false)
	organizerID, clubID := env.seedClub(t, "482913")

	env.advance(30 * time.Second)
	_, err := env.svc.ResendFacultyOTP(context.Background(), organizerID, clubID)
	assert.ErrorIs(t, err, apperrors.ErrResendThrottled)
}

func TestResendFacultyOTPAfterApproval(t *testing.T) {
	env := newClubTestEnv(t, false)
	organizerID, clubID := env.seedClub(t, "482913")

	_, err := env.svc.VerifyFaculty(context.Background(), organizerID, &dto.VerifyFacultyRequest{
		ClubID: clubID,
		OTP:    "482913",
	})
	require.NoError(t, err)

	_, err = env.svc.ResendFacultyOTP(context.Background(), organizerID, clubID)
	assert.ErrorIs(t, err, apperrors.ErrClubAlreadyApproved)
}

func TestGetClubByIDVisibility(t *testing.T) {
	env := newClubTestEnv(t, false)
	organizerID, clubID := env.seedClub(t, "482913")

	// Pending club hidden from strangers, visible to owner and admin
	_, err := env.svc.GetClubByID(context.Background(), clubID, 0, false)
	assert.ErrorIs(t, err, apperrors.ErrClubNotFound)

	_, err = env.svc.GetClubByID(context.Background(), clubID, organizerID, false)
	assert.NoError(t, err)

	_, err = env.svc.GetClubByID(context.Background(), clubID, 0, true)
	assert.NoError(t, err)

	// Approved club visible to everyone
	_, err = env.svc.VerifyFaculty(context.Background(), organizerID, &dto.VerifyFacultyRequest{
		ClubID: clubID,
		OTP:    "482913",
	})
	require.NoError(t, err)

	_, err = env.svc.GetClubByID(context.Background(), clubID, 0, false)
	assert.NoError(t, err)
}

func TestGetClubsNonAdminSeesOnlyApproved(t *testing.T) {
	env := newClubTestEnv(t, false)
	_, _ = env.seedClub(t, "482913")

	resp, err := env.svc.GetClubs(context.Background(), &dto.ClubFilterRequest{}, false)
	require.NoError(t, err)
	assert.Empty(t, resp.Clubs)

	adminResp, err := env.svc.GetClubs(context.Background(), &dto.ClubFilterRequest{}, true)
	require.NoError(t, err)
	assert.Len(t, adminResp.Clubs, 1)
}

func TestAdminUpdateStatus(t *testing.T) {
	env := newClubTestEnv(t, false)
	organizerID, clubID := env.seedClub(t, "482913")

	resp, err := env.svc.UpdateStatus(context.Background(), clubID, &dto.UpdateClubStatusRequest{
		Status: string(models.ClubStatusApproved),
	})
	require.NoError(t, err)
	assert.Equal(t, string(models.ClubStatusApproved), resp.Status)
	assert.True(t, env.users.users[organizerID].IsClubVerified)

	// Rejection revokes the organizer's verification
	_, err = env.svc.UpdateStatus(context.Background(), clubID, &dto.UpdateClubStatusRequest{
		Status: string(models.ClubStatusRejected),
		Notes:  "policy violation",
	})
	require.NoError(t, err)
	assert.False(t, env.users.users[organizerID].IsClubVerified)
	assert.Equal(t, "policy violation", env.clubs.clubs[clubID].AdminNotes)
}
