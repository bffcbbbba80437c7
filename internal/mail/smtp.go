// Package mail delivers plaintext email over SMTP with STARTTLS.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	gomail "github.com/wneessen/go-mail"

	"budgetmaster/internal/log"
)

// ErrNotConfigured means no SMTP credentials were provided.
var ErrNotConfigured = errors.New("email credentials not configured")

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

// Diagnostics is the non-secret view of Config.
type Diagnostics struct {
	Host        string `json:"email_host"`
	Port        string `json:"email_port"`
	User        string `json:"email_user"`
	PasswordSet string `json:"email_password"`
}

// Describe never exposes the password, only whether one is set.
func (c Config) Describe() Diagnostics {
	d := Diagnostics{
		Host:        c.Host,
		Port:        strconv.Itoa(c.Port),
		User:        c.User,
		PasswordSet: "SET",
	}
	if d.User == "" {
		d.User = "NOT SET"
	}
	if c.Password == "" {
		d.PasswordSet = "NOT SET"
	}
	return d
}

// SMTPSender opens one authenticated STARTTLS session per message.
type SMTPSender struct {
	cfg    Config
	logger *log.Logger
}

func NewSMTPSender(cfg Config, logger *log.Logger) *SMTPSender {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPSender{cfg: cfg, logger: logger.WithComponent(log.ComponentMail)}
}

func (s *SMTPSender) Config() Config { return s.cfg }

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if s.cfg.User == "" || s.cfg.Password == "" {
		return ErrNotConfigured
	}

	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.User),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(s.cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	start := time.Now()
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}

	s.logger.InfoContext(ctx, "Email sent",
		log.FieldOperation, log.OpSend,
		log.FieldRecipient, to,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}
