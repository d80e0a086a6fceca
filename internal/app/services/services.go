package services

// Services defined in this package:
// - AuthService: signup, email verification, login and token rotation
// - ClubService: club applications and the faculty sign-off pipeline
// - EventService: event publishing and attendance scanning
// - RegistrationService: event signups, payment review and QR codes
// - FileService: uploads referenced by events and registrations

// devBypassCode is accepted in place of a generated code when the OTP
// bypass is enabled. The config loader refuses the flag in production.
const devBypassCode = "123456"

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
