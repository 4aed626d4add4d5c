// Package mail delivers signup OTPs over SMTP.
package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"cloudkeeper/core/account"
	"cloudkeeper/internal/errors"
)

// Config holds SMTP settings
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"-"`
	FromName string `json:"from_name"`
	Timeout  time.Duration
}

// Configured reports whether credentials are present
func (c Config) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// SMTPMailer sends OTPs through an SMTP relay, upgrading to TLS when offered
type SMTPMailer struct {
	cfg Config
	log *zap.Logger
}

// NewSMTPMailer creates a mailer
func NewSMTPMailer(cfg Config, log *zap.Logger) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SMTPMailer{cfg: cfg, log: log}
}

// SendOTP implements account.Mailer
func (m *SMTPMailer) SendOTP(ctx context.Context, to, otp string) error {
	if !m.cfg.Configured() {
		return errors.New(errors.TypeConfig, "email credentials are not configured")
	}

	msg, err := BuildOTPMessage(m.cfg.FromName, m.cfg.Username, to, otp)
	if err != nil {
		return errors.Wrap(errors.TypeConfig, "invalid OTP message addresses", err).WithContext("to", to)
	}

	client, err := gomail.NewClient(m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Username),
		gomail.WithPassword(m.cfg.Password),
		gomail.WithTimeout(m.cfg.Timeout),
	)
	if err != nil {
		return errors.Wrap(errors.TypeConfig, "invalid SMTP settings", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Delivery("failed to send OTP email", err).WithContext("to", to)
	}
	m.log.Info("OTP email sent", zap.String("to", to))
	return nil
}

// BuildOTPMessage renders the signup email with plain text and HTML alternatives
func BuildOTPMessage(fromName, from, to, otp string) (*gomail.Msg, error) {
	if fromName == "" {
		fromName = "CloudKeeper Support"
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(fromName, from); err != nil {
		return nil, err
	}
	if err := msg.To(to); err != nil {
		return nil, err
	}
	msg.Subject("Confirm your signup - Your OTP is inside")

	text := fmt.Sprintf("Hi,\r\n\r\nThank you for signing up for CloudKeeper!\r\n\r\n"+
		"Your One-Time Password (OTP) is: %s\r\n\r\n"+
		"Please enter this OTP on the verification page to complete your registration.\r\n"+
		"This OTP is valid for the next 10 minutes.\r\n\r\n"+
		"If you did not initiate this request, please ignore this email.\r\n\r\n"+
		"Best regards,\r\nThe CloudKeeper Team\r\n", otp)
	html := fmt.Sprintf(`<html><body><p>Hi,<br><br>Thank you for signing up for CloudKeeper!<br><br>`+
		`<b>Your One-Time Password (OTP) is:</b> <span style="font-size:18px;color:#2E86C1;">%s</span><br><br>`+
		`Please enter this OTP on the verification page to complete your registration.<br>`+
		`This OTP is valid for the next 10 minutes.<br><br>`+
		`If you did not initiate this request, please ignore this email.<br><br>`+
		`Best regards,<br>The CloudKeeper Team</p></body></html>`, otp)

	msg.SetBodyString(gomail.TypeTextPlain, text)
	msg.AddAlternativeString(gomail.TypeTextHTML, html)
	return msg, nil
}

// LogMailer writes OTPs to the log instead of sending them, for local use
type LogMailer struct {
	log *zap.Logger
}

// NewLogMailer creates a log-only mailer
func NewLogMailer(log *zap.Logger) *LogMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogMailer{log: log}
}

// SendOTP implements account.Mailer
func (m *LogMailer) SendOTP(_ context.Context, to, otp string) error {
	m.log.Warn("mail delivery disabled, OTP logged instead", zap.String("to", to), zap.String("otp", otp))
	return nil
}

var (
	_ account.Mailer = (*SMTPMailer)(nil)
	_ account.Mailer = (*LogMailer)(nil)
)
