// Package mail sends transactional email over SMTP. Delivery is best
// effort: callers log failures and carry on.
package mail

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// Sender is what the signup flow needs from the mailer.
type Sender interface {
	Send(to, subject, bodyText, bodyHTML string) error
}

// Config holds SMTP settings read from the environment.
type Config struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	FromEmail    string
	Enabled      bool
}

// LoadConfig reads email configuration from environment variables.
func LoadConfig() Config {
	cfg := Config{
		SMTPHost:     os.Getenv("SXC_SMTP_HOST"),
		SMTPPort:     os.Getenv("SXC_SMTP_PORT"),
		SMTPUser:     os.Getenv("SXC_SMTP_USER"),
		SMTPPassword: os.Getenv("SXC_SMTP_PASSWORD"),
		FromEmail:    os.Getenv("SXC_FROM_EMAIL"),
		Enabled:      os.Getenv("SXC_EMAIL_ENABLED") == "true",
	}
	if cfg.SMTPPort == "" {
		cfg.SMTPPort = "587"
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = cfg.SMTPUser
	}
	return cfg
}

// Service sends email via a single SMTP relay.
type Service struct {
	config Config
}

func NewService(cfg Config) *Service {
	return &Service{config: cfg}
}

// Send delivers a multipart/alternative message with plain-text and HTML
// bodies. When the mailer is disabled it only logs, which keeps local
// development working without a relay.
func (s *Service) Send(to, subject, bodyText, bodyHTML string) error {
	if !s.config.Enabled {
		log.Printf("email disabled: to=%s subject=%q", to, subject)
		return nil
	}
	if s.config.SMTPHost == "" || s.config.SMTPUser == "" || s.config.SMTPPassword == "" {
		return fmt.Errorf("smtp not configured")
	}

	const boundary = "sxc-alt-2f7c1"
	message := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: multipart/alternative; boundary=%q\r\n"+
			"\r\n"+
			"--%s\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n"+
			"--%s\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n"+
			"--%s--\r\n",
		s.config.FromEmail, to, subject, boundary,
		boundary, bodyText, boundary, bodyHTML, boundary,
	))

	addr := s.config.SMTPHost + ":" + s.config.SMTPPort
	smtpAuth := smtp.PlainAuth("", s.config.SMTPUser, s.config.SMTPPassword, s.config.SMTPHost)
	if err := smtp.SendMail(addr, smtpAuth, s.config.FromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
