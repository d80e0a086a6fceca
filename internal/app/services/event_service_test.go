package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspulse/server/internal/app/models"
	"github.com/campuspulse/server/internal/app/models/dto"
	"github.com/campuspulse/server/internal/pkg/apperrors"
	"github.com/campuspulse/server/internal/pkg/qr"
)

type eventTestEnv struct {
	svc    *EventService
	users  *fakeUserRepo
	clubs  *fakeClubRepo
	events *fakeEventRepo
	regs   *fakeRegistrationRepo
	files  *fakeFileRepo
	signer *qr.Signer
	clock  time.Time
}

func newEventTestEnv(t *testing.T) *eventTestEnv {
	t.Helper()

	users := newFakeUserRepo()
	events := newFakeEventRepo()
	env := &eventTestEnv{
		users:  users,
		clubs:  newFakeClubRepo(users),
		events: events,
		regs:   newFakeRegistrationRepo(events),
		files:  newFakeFileRepo(),
		signer: qr.NewSigner("test-qr-secret"),
		clock:  time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	env.svc = NewEventService(env.events, env.clubs, env.regs, env.files, env.signer, zerolog.Nop())
	env.svc.now = func() time.Time { return env.clock }
	return env
}

// seedApprovedClub creates an organizer with an approved club
func (e *eventTestEnv) seedApprovedClub(t *testing.T) (organizerID, clubID int64) {
	t.Helper()

	organizerID, err := e.users.Create(context.Background(), &models.User{
		Name:     "Rohit Verma",
		Email:    "2100035678@klu.ac.in",
		UserType: models.UserTypeOrganizer,
	})
	require.NoError(t, err)

	clubID, err = e.clubs.Create(context.Background(), &models.Club{
		ClubName:    "Robotics Club",
		OrganizerID: organizerID,
	})
	require.NoError(t, err)
	_, err = e.clubs.Approve(context.Background(), clubID)
	require.NoError(t, err)
	return organizerID, clubID
}

func (e *eventTestEnv) validCreateRequest() *dto.CreateEventRequest {
	return &dto.CreateEventRequest{
		Title:       "Line Follower Workshop",
		Description: "Build and race a line-following robot",
		Venue:       "Lab 204",
		StartsAt:    e.clock.Add(48 * time.Hour),
		EndsAt:      e.clock.Add(52 * time.Hour),
		Capacity:    30,
		FormSchema: []models.FormField{
			{ID: "roll", Label: "Roll number", Type: models.FieldTypeText, Required: true},
		},
	}
}

func TestCreateEvent(t *testing.T) {
	env := newEventTestEnv(t)
	organizerID, clubID := env.seedApprovedClub(t)

	resp, err := env.svc.CreateEvent(context.Background(), organizerID, env.validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, "Line Follower Workshop", resp.Title)
	assert.Equal(t, clubID, resp.ClubID)
	assert.Nil(t, resp.Payment)
	assert.Equal(t, 1, env.clubs.clubs[clubID].EventCount)
}

func TestCreateEventRequiresApprovedClub(t *testing.T) {
	env := newEventTestEnv(t)

	organizerID, err := env.users.Create(context.Background(), &models.User{
		Email:    "2100035678@klu.ac.in",
		UserType: models.UserTypeOrganizer,
	})
	require.NoError(t, err)

	// No club at all
	_, err = env.svc.CreateEvent(context.Background(), organizerID, env.validCreateRequest())
	assert.ErrorIs(t, err, apperrors.ErrClubNotFound)

	// Club still pending
	_, err = env.clubs.Create(context.Background(), &models.Club{
		ClubName:    "Robotics Club",
		OrganizerID: organizerID,
	})
	require.NoError(t, err)

	_, err = env.svc.CreateEvent(context.Background(), organizerID, env.validCreateRequest())
	assert.ErrorIs(t, err, apperrors.ErrClubNotVerified)
}

func TestCreateEventValidatesInput(t *testing.T) {
	env := newEventTestEnv(t)
	organizerID, _ := env.seedApprovedClub(t)

	req := env.validCreateRequest()
	req.EndsAt = req.StartsAt.Add(-time.Hour)
	_, err := env.svc.CreateEvent(context.Background(), organizerID, req)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	req = env.validCreateRequest()
	req.FormSchema = nil
	_, err = env.svc.CreateEvent(context.Background(), organizerID, req)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestCreateEventWithPayment(t *testing.T) {
	env := newEventTestEnv(t)
	organizerID, _ := env.seedApprovedClub(t)

	qrFileID, err := env.files.Create(context.Background(), &models.File{
		FileName:     "upi.png",
		ResourceType: models.FileResourcePaymentQR,
		UploadedBy:   organizerID,
	})
	require.NoError(t, err)

	req := env.validCreateRequest()
	req.Payment = &dto.PaymentConfigRequest{
		Amount:       150,
		QRFileID:     qrFileID,
		Instructions: "Pay via UPI and upload the screenshot",
	}

	resp, err := env.svc.CreateEvent(context.Background(), organizerID, req)
	require.NoError(t, err)
	require.NotNil(t, resp.Payment)
	assert.Equal(t, float64(150), resp.Payment.Amount)
}

func TestCreateEventRejectsForeignPaymentQR(t *testing.T) {
	env := newEventTestEnv(t)
	organizerID, _ := env.seedApprovedClub(t)

	otherID, err := env.users.Create(context.Background(), &models.User{Email: "other@klu.ac.in"})
	require.NoError(t, err)

	foreignQR, err := env.files.Create(context.Background(), &models.File{
		ResourceType: models.FileResourcePaymentQR,
		UploadedBy:   otherID,
	})
	require.NoError(t, err)

	req := env.validCreateRequest()
	req.Payment = &dto.PaymentConfigRequest{Amount: 100, QRFileID: foreignQR}
	_, err = env.svc.CreateEvent(context.Background(), organizerID, req)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	// Missing upload entirely
	req.Payment.QRFileID = 999
	_, err = env.svc.CreateEvent(context.Background(), organizerID, req)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestUpdateAndDeleteEventOwnership(t *testing.T) {
	env := newEventTestEnv(t)
	organizerID, _ := env.seedApprovedClub(t)

	created, err := env.svc.CreateEvent(context.Background(), organizerID, env.validCreateRequest())
	require.NoError(t, err)

	otherID, err := env.users.Create(context.Background(), &models.User{Email: "other@klu.ac.in"})
	require.NoError(t, err)

	upd := &dto.UpdateEventRequest{
		Title:       "Renamed Workshop",
		Description: "desc",
		Venue:       "Lab 205",
		StartsAt:    env.clock.Add(48 * time.Hour),
		EndsAt:      env.clock.Add(52 * time.Hour),
		Capacity:    40,
		FormSchema: []models.FormField{
			{ID: "roll", Label: "Roll number", Type: models.FieldTypeText, Required: true},
		},
	}

	_, err = env.svc.UpdateEvent(context.Background(), otherID, created.ID, upd)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	resp, err := env.svc.UpdateEvent(context.Background(), organizerID, created.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Workshop", resp.Title)

	err = env.svc.DeleteEvent(context.Background(), otherID, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	require.NoError(t, env.svc.DeleteEvent(context.Background(), organizerID, created.ID))
	_, err = env.events.GetByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

// seedApprovedRegistration creates a student registered and approved for
// the event, returning the signed attendance token
func (e *eventTestEnv) seedApprovedRegistration(t *testing.T, eventID int64) (regID int64, token string) {
	t.Helper()

	studentID, err := e.users.Create(context.Background(), &models.User{
		Name:  "Anjali Rao",
		Email: "2100031234@klu.ac.in",
	})
	require.NoError(t, err)

	regID, err = e.regs.Create(context.Background(), &models.Registration{
		EventID:            eventID,
		UserID:             studentID,
		RegistrationStatus: models.RegistrationStatusApproved,
	})
	require.NoError(t, err)

	token, err = e.signer.Encode(qr.Payload{
		EventID:        eventID,
		UserID:         studentID,
		RegistrationID: regID,
		StudentName:    "Anjali Rao",
	})
	require.NoError(t, err)
	return regID, token
}

func TestMarkAttendance(t *testing.T) {
	env := newEventTestEnv(t)
	organizerID, _ := env.seedApprovedClub(t)

	event, err := env.svc.CreateEvent(context.Background(), organizerID, env.validCreateRequest())
	require.NoError(t, err)
	regID, token := env.seedApprovedRegistration(t, event.ID)

	resp, err := env.svc.MarkAttendance(context.Background(), organizerID, event.ID, token)
	require.NoError(t, err)
	assert.Equal(t, regID, resp.RegistrationID)
	assert.Equal(t, "Anjali Rao", resp.StudentName)
	assert.True(t, resp.Attended)
	assert.False(t, resp.AlreadyAttended)
	require.NotNil(t, resp.AttendedAt)
	assert.Equal(t, env.clock, *resp.AttendedAt)
}

func TestMarkAttendanceSecondScanIsFlagged(t *testing.T) {
	env := newEventTestEnv(t)
	organizerID, _ := env.seedApprovedClub(t)

	event, err := env.svc.CreateEvent(context.Background(), organizerID, env.validCreateRequest())
	require.NoError(t, err)
	_, token := env.seedApprovedRegistration(t, event.ID)

	first, err := env.svc.MarkAttendance(context.Background(), organizerID, event.ID, token)
	require.NoError(t, err)

	env.clock = env.clock.Add(5 * time.Minute)
	second, err := env.svc.MarkAttendance(context.Background(), organizerID, event.ID, token)
	require.NoError(t, err)

	assert.True(t, second.AlreadyAttended)
	// The original scan time is reported, not the repeat's
	assert.Equal(t, first.AttendedAt, second.AttendedAt)
}

func TestMarkAttendanceRejectsTamperedToken(t *testing.T) {
	env := newEventTestEnv(t)
	organizerID, _ := env.seedApprovedClub(t)

	event, err := env.svc.CreateEvent(context.Background(), organizerID, env.validCreateRequest())
	require.NoError(t, err)
	env.seedApprovedRegistration(t, event.ID)

	_, err = env.svc.MarkAttendance(context.Background(), organizerID, event.ID, "tampered.token")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestMarkAttendanceRejectsWrongEvent(t *testing.T) {
	env := newEventTestEnv(t)
	organizerID, _ := env.seedApprovedClub(t)

	event, err := env.svc.CreateEvent(context.Background(), organizerID, env.validCreateRequest())
	require.NoError(t, err)
	otherReq := env.validCreateRequest()
	otherReq.Title = "Second Event"
	other, err := env.svc.CreateEvent(context.Background(), organizerID, otherReq)
	require.NoError(t, err)

	_, token := env.seedApprovedRegistration(t, event.ID)

	_, err = env.svc.MarkAttendance(context.Background(), organizerID, other.ID, token)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestMarkAttendanceRequiresApprovedRegistration(t *testing.T) {
	env := newEventTestEnv(t)
	organizerID, _ := env.seedApprovedClub(t)

	event, err := env.svc.CreateEvent(context.Background(), organizerID, env.validCreateRequest())
	require.NoError(t, err)

	studentID, err := env.users.Create(context.Background(), &models.User{Email: "2100031234@klu.ac.in"})
	require.NoError(t, err)
	regID, err := env.regs.Create(context.Background(), &models.Registration{
		EventID:            event.ID,
		UserID:             studentID,
		RegistrationStatus: models.RegistrationStatusPending,
	})
	require.NoError(t, err)

	token, err := env.signer.Encode(qr.Payload{
		EventID: event.ID, UserID: studentID, RegistrationID: regID,
	})
	require.NoError(t, err)

	_, err = env.svc.MarkAttendance(context.Background(), organizerID, event.ID, token)
	assert.ErrorIs(t, err, apperrors.ErrNotApproved)
}

func TestMarkAttendanceOnlyOrganizer(t *testing.T) {
	env := newEventTestEnv(t)
	organizerID, _ := env.seedApprovedClub(t)

	event, err := env.svc.CreateEvent(context.Background(), organizerID, env.validCreateRequest())
	require.NoError(t, err)
	_, token := env.seedApprovedRegistration(t, event.ID)

	otherID, err := env.users.Create(context.Background(), &models.User{Email: "other@klu.ac.in"})
	require.NoError(t, err)

	_, err = env.svc.MarkAttendance(context.Background(), otherID, event.ID, token)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}
