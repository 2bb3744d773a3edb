// Package email sends transactional mail over SMTP
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"sync"
	"time"
	"docvault/internal/config"
)

// Sender defines the outbound notification port.
//
// Failure contract: callers on the password-reset and verification request
// paths must propagate send errors, since the user-visible outcome depends on
// the mail arriving. Callers on the account-lock and welcome paths must log
// and swallow errors; those sends never fail the triggering operation.
type Sender interface {
	SendVerificationEmail(to, firstName, token string) error
	SendPasswordResetEmail(to, firstName, token string) error
	SendAccountLockedEmail(to, firstName string, until time.Time) error
	SendWelcomeEmail(to, firstName string) error
}

// Service implements the Sender interface over a pooled SMTP connection
type Service struct {
	config config.EmailConfig
	client *smtp.Client
	mu     sync.Mutex
}

// NewService creates a new email service
func NewService(cfg config.EmailConfig) *Service {
	return &Service{
		config: cfg,
	}
}

// dialSMTP establishes an SMTP connection, reusing a live one when possible
func (s *Service) dialSMTP() (*smtp.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		if err := s.client.Noop(); err == nil {
			return s.client, nil
		}
		s.client.Close()
		s.client = nil
	}

	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)
	client, err := smtp.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial SMTP server: %w", err)
	}

	if err := client.Auth(smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to authenticate with SMTP server: %w", err)
	}

	s.client = client
	return client, nil
}

func (s *Service) sendMail(to []string, msg []byte) error {
	client, err := s.dialSMTP()
	if err != nil {
		return err
	}

	if err := client.Mail(s.config.SMTPUsername); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("failed to add recipient %s: %w", addr, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to create message writer: %w", err)
	}

	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close message writer: %w", err)
	}

	return nil
}

// Close closes the SMTP connection
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		err := s.client.Quit()
		s.client = nil
		return err
	}
	return nil
}

func (s *Service) checkConfig() error {
	if s.config.SMTPHost == "" || s.config.SMTPPort == 0 || s.config.SMTPUsername == "" ||
		s.config.SMTPPassword == "" || s.config.FromAddress == "" || s.config.AppURL == "" {
		return fmt.Errorf("incomplete email configuration")
	}
	return nil
}

func (s *Service) send(to, subject, bodyTemplate string, data map[string]string) error {
	if err := s.checkConfig(); err != nil {
		return err
	}

	tmpl, err := template.New(subject).Parse(bodyTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse email template: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	msg := fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s", to, s.config.FromAddress, subject, body.String())

	return s.sendMail([]string{to}, []byte(msg))
}

// SendVerificationEmail mails an email verification link
func (s *Service) SendVerificationEmail(to, firstName, token string) error {
	verificationURL := fmt.Sprintf("%s/api/v1/auth/verify-email?token=%s", s.config.AppURL, token)

	return s.send(to, "Verify Your Email Address", `
		<h2>Hello {{.FirstName}},</h2>
		<p>Please verify your email address by clicking the link below:</p>
		<p><a href="{{.URL}}">Verify Email Address</a></p>
		<p>This link will expire in 24 hours.</p>
		<p>If you did not create an account, no further action is required.</p>
	`, map[string]string{
		"FirstName": firstName,
		"URL":       verificationURL,
	})
}

// SendPasswordResetEmail mails a password reset link
func (s *Service) SendPasswordResetEmail(to, firstName, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.config.AppURL, token)

	return s.send(to, "Reset Your Password", `
		<h2>Hello {{.FirstName}},</h2>
		<p>You have requested to reset your password. Click the link below to proceed:</p>
		<p><a href="{{.URL}}">Reset Password</a></p>
		<p>This link will expire in 1 hour.</p>
		<p>If you did not request a password reset, please ignore this email.</p>
	`, map[string]string{
		"FirstName": firstName,
		"URL":       resetURL,
	})
}

// SendAccountLockedEmail notifies the user that their account was locked
func (s *Service) SendAccountLockedEmail(to, firstName string, until time.Time) error {
	return s.send(to, "Account Locked", `
		<h2>Hello {{.FirstName}},</h2>
		<p>Your account has been temporarily locked after repeated failed login attempts.</p>
		<p>You can try again after {{.Until}}.</p>
		<p>If this was not you, please contact your administrator and consider resetting your password.</p>
	`, map[string]string{
		"FirstName": firstName,
		"Until":     until.Format(time.RFC1123),
	})
}

// SendWelcomeEmail greets a user after their email is verified
func (s *Service) SendWelcomeEmail(to, firstName string) error {
	return s.send(to, "Welcome to DocVault", `
		<h2>Hello {{.FirstName}},</h2>
		<p>Your email address has been verified and your account is ready to use.</p>
		<p><a href="{{.URL}}">Open the portal</a></p>
	`, map[string]string{
		"FirstName": firstName,
		"URL":       s.config.AppURL,
	})
}
