package services

import (
	"fmt"
	"net/smtp"
	"os"
)

// EmailService sends transactional mail over SMTP. All sends are best
// effort; callers log failures instead of propagating them.
type EmailService struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewEmailService reads SMTP settings from the environment
func NewEmailService() *EmailService {
	return &EmailService{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		username: os.Getenv("SMTP_USERNAME"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     os.Getenv("SMTP_FROM"),
	}
}

// IsConfigured reports whether SMTP credentials are present
func (s *EmailService) IsConfigured() bool {
	return s.host != "" && s.port != "" && s.from != ""
}

func (s *EmailService) send(to, subject, body string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("smtp is not configured")
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s",
		s.from, to, subject, body,
	))

	addr := s.host + ":" + s.port
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	return smtp.SendMail(addr, auth, s.from, []string{to}, msg)
}

// SendEnrollmentConfirmation tells a user their course purchase went through
func (s *EmailService) SendEnrollmentConfirmation(to, userName, courseTitle string) error {
	subject := fmt.Sprintf("You're enrolled in %s", courseTitle)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour payment was received and you now have full access to \"%s\".\n\nHappy learning!\n",
		userName, courseTitle,
	)
	return s.send(to, subject, body)
}

// SendPasswordResetEmail sends a password reset link
func (s *EmailService) SendPasswordResetEmail(to, userName, resetURL string) error {
	subject := "Reset your password"
	body := fmt.Sprintf(
		"Hi %s,\n\nWe received a request to reset your password. Open the link below to choose a new one:\n\n%s\n\nIf you didn't request this, you can ignore this email. The link expires in 1 hour.\n",
		userName, resetURL,
	)
	return s.send(to, subject, body)
}
