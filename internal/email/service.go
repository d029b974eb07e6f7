package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/vamsi-krishn/EHR-system/pkg/logger"
)

type Service interface {
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg SMTPConfig) (Service, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("smtp host and from address are required")
	}
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}, nil
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.message(to, subject, content)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func (s *smtpService) message(to, subject, content string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)
	return m
}

// logService writes mails to the log instead of sending them.
type logService struct {
	logger *logger.Logger
}

func NewLogService(log *logger.Logger) Service {
	return &logService{logger: log.With("email")}
}

func (s *logService) SendCustom(ctx context.Context, to, subject, content string) error {
	s.logger.Info("email suppressed", "to", to, "subject", subject)
	return nil
}
