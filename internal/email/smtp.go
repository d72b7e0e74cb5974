package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type smtpService struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPService(cfg SMTPConfig) Service {
	return &smtpService{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *smtpService) SendConfirmation(ctx context.Context, to, name, confirmURL string) error {
	body := fmt.Sprintf(`
		<html><body>
		<h2>Welcome, Dr. %s</h2>
		<p>Please confirm your email address to activate your account:</p>
		<p><a href=%q>Confirm my email</a></p>
		<p>The link expires in 24 hours.</p>
		</body></html>`, name, confirmURL)
	return s.send(ctx, to, "Please confirm your email", body)
}

func (s *smtpService) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	body := fmt.Sprintf(`
		<html><body>
		<h2>Password reset</h2>
		<p>Hello Dr. %s, a password reset was requested for your account:</p>
		<p><a href=%q>Reset my password</a></p>
		<p>The link expires in 24 hours. If you did not request this, ignore this email.</p>
		</body></html>`, name, resetURL)
	return s.send(ctx, to, "Password reset request", body)
}

func (s *smtpService) send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
