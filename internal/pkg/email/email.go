package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// EmailService defines the interface for outbound OTP mail
type EmailService interface {
	// SendRegistrationOTP delivers the signup verification code to the
	// registrant's own address.
	SendRegistrationOTP(toEmail, toName, code string, ttl time.Duration) error
	// SendFacultyOTP delivers the club sign-off code to the claimed
	// faculty advisor.
	SendFacultyOTP(toEmail, facultyName, clubName, code string, ttl time.Duration) error
}

// SMTPConfig holds configuration for the SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
	AppName   string
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) EmailService {
	return &EmailServiceImpl{
		config: config,
		logger: logger,
	}
}

// SendRegistrationOTP sends the signup verification code
func (s *EmailServiceImpl) SendRegistrationOTP(toEmail, toName, code string, ttl time.Duration) error {
	// Without SMTP credentials the code is logged for manual relay during
	// development, matching a missing-provider deployment.
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("code", code).
			Msg("SMTP credentials not configured - registration code not sent. Use the code above for testing.")
		return nil
	}

	subject := fmt.Sprintf("Verify your email - %s", s.config.AppName)
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Welcome to %s!</h2>
				<p>Hello %s,</p>
				<p>Use this code to verify your email address and finish creating your account:</p>

				<div style="text-align: center; margin: 30px 0;">
					<span style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">%s</span>
				</div>

				<p>The code expires in %d minutes.</p>

				<p>If you did not sign up, please ignore this email.</p>

				<p>Best regards,<br>The %s Team</p>
			</div>
		</body>
		</html>
	`, s.config.AppName, toName, code, int(ttl.Minutes()), s.config.AppName)

	return s.sendHTMLEmail(toEmail, subject, body)
}

// SendFacultyOTP sends the club sign-off code to the faculty advisor
func (s *EmailServiceImpl) SendFacultyOTP(toEmail, facultyName, clubName, code string, ttl time.Duration) error {
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("clubName", clubName).
			Str("code", code).
			Msg("SMTP credentials not configured - faculty verification code not sent. Use the code above for testing.")
		return nil
	}

	subject := fmt.Sprintf("Faculty verification for %s - %s", clubName, s.config.AppName)
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Club verification request</h2>
				<p>Dear %s,</p>
				<p>A student has listed you as the faculty advisor for the club <strong>%s</strong> on %s.
				If you approve, please share this verification code with them:</p>

				<div style="text-align: center; margin: 30px 0;">
					<span style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">%s</span>
				</div>

				<p>The code expires in %d minutes. If you do not recognize this club, ignore this email
				and the request will lapse.</p>

				<p>Best regards,<br>The %s Team</p>
			</div>
		</body>
		</html>
	`, facultyName, clubName, s.config.AppName, code, int(ttl.Minutes()), s.config.AppName)

	return s.sendHTMLEmail(toEmail, subject, body)
}

// sendHTMLEmail sends an HTML email
func (s *EmailServiceImpl) sendHTMLEmail(toEmail, subject, htmlBody string) error {
	auth := smtp.PlainAuth(
		"",
		s.config.Username,
		s.config.Password,
		s.config.Host,
	)

	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	headers["To"] = toEmail
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	message := ""
	for key, value := range headers {
		message += fmt.Sprintf("%s: %s\r\n", key, value)
	}
	message += "\r\n" + htmlBody

	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	if s.config.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: s.config.Host,
		}

		conn, err := tls.Dial("tcp", serverAddress, tlsConfig)
		if err != nil {
			s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
			return fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.config.Host)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to create SMTP client")
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
		defer client.Quit()

		if err = client.Auth(auth); err != nil {
			s.logger.Error().Err(err).Msg("SMTP authentication failed")
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}

		if err = client.Mail(s.config.FromEmail); err != nil {
			return fmt.Errorf("failed to set sender: %w", err)
		}
		if err = client.Rcpt(toEmail); err != nil {
			return fmt.Errorf("failed to set recipient: %w", err)
		}

		w, err := client.Data()
		if err != nil {
			return fmt.Errorf("failed to get data writer: %w", err)
		}
		if _, err = w.Write([]byte(message)); err != nil {
			return fmt.Errorf("failed to write email message: %w", err)
		}
		if err = w.Close(); err != nil {
			return fmt.Errorf("failed to close data writer: %w", err)
		}

		return nil
	}

	err := smtp.SendMail(
		serverAddress,
		auth,
		s.config.FromEmail,
		[]string{toEmail},
		[]byte(message),
	)
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
