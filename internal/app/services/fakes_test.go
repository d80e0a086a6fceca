package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/campuspulse/server/internal/app/models"
	"github.com/campuspulse/server/internal/pkg/apperrors"
	"github.com/campuspulse/server/internal/pkg/otp"
)

// In-memory repository fakes mirroring the conditional-update semantics
// of the real store, so the service tests exercise the same paths wrong
// codes, expiries and repeats take against Postgres.

type fakeUserRepo struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*models.User{}, nextID: 1}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) (int64, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return 0, apperrors.ErrEmailAlreadyExists
		}
	}
	id := r.nextID
	r.nextID++
	clone := *user
	clone.ID = id
	clone.IsEmailVerified = true
	clone.CreatedAt = time.Now()
	clone.UpdatedAt = clone.CreatedAt
	r.users[id] = &clone
	return id, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type fakePendingRepo struct {
	pending map[string]*models.PendingRegistration
}

func newFakePendingRepo() *fakePendingRepo {
	return &fakePendingRepo{pending: map[string]*models.PendingRegistration{}}
}

func (r *fakePendingRepo) Create(_ context.Context, p *models.PendingRegistration) error {
	clone := *p
	r.pending[p.Token] = &clone
	return nil
}

func (r *fakePendingRepo) GetByToken(_ context.Context, token string) (*models.PendingRegistration, error) {
	p, ok := r.pending[token]
	if !ok {
		return nil, apperrors.ErrPendingNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakePendingRepo) UpdateOTP(_ context.Context, token, otpDigest string, sentAt, expiresAt time.Time) error {
	p, ok := r.pending[token]
	if !ok {
		return apperrors.ErrPendingNotFound
	}
	p.OTPDigest = otpDigest
	p.OTPSentAt = sentAt
	p.ExpiresAt = expiresAt
	return nil
}

func (r *fakePendingRepo) Delete(_ context.Context, token string) error {
	delete(r.pending, token)
	return nil
}

func (r *fakePendingRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for token, p := range r.pending {
		if before.After(p.ExpiresAt) {
			delete(r.pending, token)
			n++
		}
	}
	return n, nil
}

type fakeClubRepo struct {
	clubs  map[int64]*models.Club
	users  *fakeUserRepo
	nextID int64
}

func newFakeClubRepo(users *fakeUserRepo) *fakeClubRepo {
	return &fakeClubRepo{clubs: map[int64]*models.Club{}, users: users, nextID: 1}
}

func (r *fakeClubRepo) Create(_ context.Context, club *models.Club) (int64, error) {
	for _, c := range r.clubs {
		if c.ClubName == club.ClubName {
			return 0, apperrors.ErrClubNameTaken
		}
		if c.OrganizerID == club.OrganizerID {
			return 0, apperrors.ErrClubAlreadyExists
		}
	}
	id := r.nextID
	r.nextID++
	clone := *club
	clone.ID = id
	clone.Status = models.ClubStatusPending
	clone.IsOrganizerVerified = true
	r.clubs[id] = &clone
	return id, nil
}

func (r *fakeClubRepo) GetByID(_ context.Context, id int64) (*models.Club, error) {
	c, ok := r.clubs[id]
	if !ok {
		return nil, apperrors.ErrClubNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *fakeClubRepo) GetByOrganizerID(_ context.Context, organizerID int64) (*models.Club, error) {
	for _, c := range r.clubs {
		if c.OrganizerID == organizerID {
			clone := *c
			return &clone, nil
		}
	}
	return nil, apperrors.ErrClubNotFound
}

func (r *fakeClubRepo) GetAll(_ context.Context, search, status string, page, pageSize int) ([]models.Club, int64, error) {
	var out []models.Club
	for _, c := range r.clubs {
		if status != "" && string(c.Status) != status {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *fakeClubRepo) UpdateFacultyOTP(_ context.Context, clubID int64, otpDigest string, sentAt, expiresAt time.Time) error {
	c, ok := r.clubs[clubID]
	if !ok {
		return apperrors.ErrClubNotFound
	}
	c.FacultyOTPDigest = &otpDigest
	c.FacultyOTPSentAt = &sentAt
	c.FacultyOTPExpiresAt = &expiresAt
	return nil
}

// ApproveWithFacultyOTP applies the same all-or-nothing condition the SQL
// statement does: pending or faculty_verified, digest match, not expired.
func (r *fakeClubRepo) ApproveWithFacultyOTP(_ context.Context, clubID int64, otpDigest string, now time.Time) (int64, error) {
	c, ok := r.clubs[clubID]
	if !ok {
		return 0, apperrors.ErrInvalidOTP
	}
	if c.Status != models.ClubStatusPending && c.Status != models.ClubStatusFacultyVerified {
		return 0, apperrors.ErrInvalidOTP
	}
	if c.FacultyOTPDigest == nil || *c.FacultyOTPDigest != otpDigest {
		return 0, apperrors.ErrInvalidOTP
	}
	if c.FacultyOTPExpiresAt == nil || !c.FacultyOTPExpiresAt.After(now) {
		return 0, apperrors.ErrInvalidOTP
	}
	r.approve(c)
	return c.OrganizerID, nil
}

func (r *fakeClubRepo) Approve(_ context.Context, clubID int64) (int64, error) {
	c, ok := r.clubs[clubID]
	if !ok {
		return 0, apperrors.ErrClubNotFound
	}
	if c.Status == models.ClubStatusApproved {
		return 0, apperrors.ErrClubAlreadyApproved
	}
	r.approve(c)
	return c.OrganizerID, nil
}

func (r *fakeClubRepo) approve(c *models.Club) {
	c.Status = models.ClubStatusApproved
	c.IsFacultyVerified = true
	c.IsClubApproved = true
	c.FacultyOTPDigest = nil
	c.FacultyOTPExpiresAt = nil
	c.AdminNotes = ""
	if u, ok := r.users.users[c.OrganizerID]; ok {
		u.IsClubVerified = true
	}
}

func (r *fakeClubRepo) UpdateStatus(_ context.Context, clubID int64, status models.ClubStatus, notes string) error {
	c, ok := r.clubs[clubID]
	if !ok {
		return apperrors.ErrClubNotFound
	}
	c.Status = status
	c.AdminNotes = notes
	approved := status == models.ClubStatusApproved
	c.IsClubApproved = approved
	if u, ok := r.users.users[c.OrganizerID]; ok {
		u.IsClubVerified = approved
	}
	return nil
}

func (r *fakeClubRepo) IncrementEventCount(_ context.Context, clubID int64, delta int) error {
	c, ok := r.clubs[clubID]
	if !ok {
		return apperrors.ErrClubNotFound
	}
	c.EventCount += delta
	return nil
}

type fakeTokenRepo struct {
	tokens map[string]fakeToken
}

type fakeToken struct {
	userID  int64
	expiry  time.Time
	revoked bool
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[string]fakeToken{}}
}

func (r *fakeTokenRepo) CreateToken(_ context.Context, token string, userID int64, expiryDate time.Time) error {
	r.tokens[token] = fakeToken{userID: userID, expiry: expiryDate}
	return nil
}

func (r *fakeTokenRepo) GetTokenByValue(_ context.Context, token string) (int64, time.Time, bool, error) {
	t, ok := r.tokens[token]
	if !ok {
		return 0, time.Time{}, false, apperrors.ErrTokenNotFound
	}
	if t.revoked {
		return 0, time.Time{}, true, apperrors.ErrTokenRevoked
	}
	if time.Now().After(t.expiry) {
		return 0, time.Time{}, false, apperrors.ErrTokenExpired
	}
	return t.userID, t.expiry, false, nil
}

func (r *fakeTokenRepo) RevokeToken(_ context.Context, token string) error {
	t, ok := r.tokens[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	t.revoked = true
	r.tokens[token] = t
	return nil
}

func (r *fakeTokenRepo) RevokeAllUserTokens(_ context.Context, userID int64) error {
	for k, t := range r.tokens {
		if t.userID == userID {
			t.revoked = true
			r.tokens[k] = t
		}
	}
	return nil
}

func (r *fakeTokenRepo) DeleteExpiredTokens(_ context.Context) (int64, error) {
	return 0, nil
}

type fakeFileRepo struct {
	files  map[int64]*models.File
	nextID int64
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: map[int64]*models.File{}, nextID: 1}
}

func (r *fakeFileRepo) Create(_ context.Context, file *models.File) (int64, error) {
	id := r.nextID
	r.nextID++
	clone := *file
	clone.ID = id
	r.files[id] = &clone
	return id, nil
}

func (r *fakeFileRepo) GetByID(_ context.Context, id int64) (*models.File, error) {
	f, ok := r.files[id]
	if !ok {
		return nil, apperrors.ErrFileNotFound
	}
	clone := *f
	return &clone, nil
}

func (r *fakeFileRepo) Delete(_ context.Context, id int64) error {
	delete(r.files, id)
	return nil
}

type fakeEventRepo struct {
	events    map[int64]*models.Event
	regCounts map[int64]int
	nextID    int64
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[int64]*models.Event{}, regCounts: map[int64]int{}, nextID: 1}
}

func (r *fakeEventRepo) Create(_ context.Context, event *models.Event) (int64, error) {
	id := r.nextID
	r.nextID++
	clone := *event
	clone.ID = id
	r.events[id] = &clone
	return id, nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id int64) (*models.Event, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	clone := *e
	return &clone, nil
}

func (r *fakeEventRepo) GetAll(_ context.Context, search string, clubID int64, upcomingOnly bool, page, pageSize int) ([]models.Event, int64, error) {
	var out []models.Event
	for _, e := range r.events {
		if clubID > 0 && e.ClubID != clubID {
			continue
		}
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (r *fakeEventRepo) Update(_ context.Context, event *models.Event) error {
	if _, ok := r.events[event.ID]; !ok {
		return apperrors.ErrEventNotFound
	}
	clone := *event
	r.events[event.ID] = &clone
	return nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.events[id]; !ok {
		return apperrors.ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *fakeEventRepo) CountRegistrations(_ context.Context, eventID int64) (int, error) {
	return r.regCounts[eventID], nil
}

type fakeRegistrationRepo struct {
	mu     sync.Mutex
	regs   map[int64]*models.Registration
	events *fakeEventRepo
	nextID int64
}

func newFakeRegistrationRepo(events *fakeEventRepo) *fakeRegistrationRepo {
	return &fakeRegistrationRepo{regs: map[int64]*models.Registration{}, events: events, nextID: 1}
}

// Create enforces the unique (event, user) pair and the capacity cap under
// a lock, the way the store serializes inserts on the locked event row.
func (r *fakeRegistrationRepo) Create(_ context.Context, reg *models.Registration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events.events[reg.EventID]
	if !ok {
		return 0, apperrors.ErrEventNotFound
	}
	var count int
	for _, existing := range r.regs {
		if existing.EventID == reg.EventID {
			if existing.UserID == reg.UserID {
				return 0, apperrors.ErrAlreadyRegistered
			}
			count++
		}
	}
	if event.Capacity > 0 && count >= event.Capacity {
		return 0, apperrors.ErrEventFull
	}
	id := r.nextID
	r.nextID++
	clone := *reg
	clone.ID = id
	r.regs[id] = &clone
	r.events.regCounts[reg.EventID]++
	return id, nil
}

func (r *fakeRegistrationRepo) GetByID(_ context.Context, id int64) (*models.Registration, error) {
	reg, ok := r.regs[id]
	if !ok {
		return nil, apperrors.ErrRegistrationNotFound
	}
	clone := *reg
	return &clone, nil
}

func (r *fakeRegistrationRepo) GetByEventID(_ context.Context, eventID int64, status, paymentStatus string, page, pageSize int) ([]models.Registration, int64, error) {
	var out []models.Registration
	for _, reg := range r.regs {
		if reg.EventID != eventID {
			continue
		}
		if status != "" && string(reg.RegistrationStatus) != status {
			continue
		}
		out = append(out, *reg)
	}
	return out, int64(len(out)), nil
}

func (r *fakeRegistrationRepo) GetByUserID(_ context.Context, userID int64) ([]models.Registration, error) {
	var out []models.Registration
	for _, reg := range r.regs {
		if reg.UserID == userID {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (r *fakeRegistrationRepo) UpdateStatus(_ context.Context, id int64, status *models.RegistrationStatus, paymentStatus *models.PaymentStatus) error {
	reg, ok := r.regs[id]
	if !ok {
		return apperrors.ErrRegistrationNotFound
	}
	if status != nil {
		reg.RegistrationStatus = *status
	}
	if paymentStatus != nil {
		reg.PaymentStatus = paymentStatus
	}
	return nil
}

func (r *fakeRegistrationRepo) SetPaymentProof(_ context.Context, id int64, fileID int64) error {
	reg, ok := r.regs[id]
	if !ok {
		return apperrors.ErrRegistrationNotFound
	}
	reg.PaymentProofFileID = &fileID
	pending := models.PaymentStatusPending
	reg.PaymentStatus = &pending
	return nil
}

// MarkAttended flips attended exactly once, reporting false on a repeat
func (r *fakeRegistrationRepo) MarkAttended(_ context.Context, id int64, at time.Time) (bool, error) {
	reg, ok := r.regs[id]
	if !ok {
		return false, apperrors.ErrRegistrationNotFound
	}
	if reg.Attended {
		return false, nil
	}
	reg.Attended = true
	reg.AttendedAt = &at
	return true, nil
}

// fakeEmailService records sent codes and can be told to fail delivery
type fakeEmailService struct {
	failNext       bool
	sentCodes      []string
	facultyCodes   []string
	lastRecipient  string
	registrationTo []string
}

func (s *fakeEmailService) SendRegistrationOTP(toEmail, toName, code string, ttl time.Duration) error {
	if s.failNext {
		s.failNext = false
		return errors.New("smtp connection refused")
	}
	s.sentCodes = append(s.sentCodes, code)
	s.registrationTo = append(s.registrationTo, toEmail)
	s.lastRecipient = toEmail
	return nil
}

func (s *fakeEmailService) SendFacultyOTP(toEmail, facultyName, clubName, code string, ttl time.Duration) error {
	if s.failNext {
		s.failNext = false
		return errors.New("smtp connection refused")
	}
	s.facultyCodes = append(s.facultyCodes, code)
	s.lastRecipient = toEmail
	return nil
}

func (s *fakeEmailService) lastCode() string {
	if len(s.sentCodes) == 0 {
		return ""
	}
	return s.sentCodes[len(s.sentCodes)-1]
}

func (s *fakeEmailService) lastFacultyCode() string {
	if len(s.facultyCodes) == 0 {
		return ""
	}
	return s.facultyCodes[len(s.facultyCodes)-1]
}

// seedFacultyOTP stores a known code on a club the way CreateClub would
func seedFacultyOTP(c *models.Club, code string, sentAt time.Time, ttl time.Duration) {
	digest := otp.Digest(code)
	expires := sentAt.Add(ttl)
	c.FacultyOTPDigest = &digest
	c.FacultyOTPSentAt = &sentAt
	c.FacultyOTPExpiresAt = &expires
}
