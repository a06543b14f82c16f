package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig points at the relay used to send account mail.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier sends registration invites through a plain SMTP relay.
type SMTPNotifier struct {
	cfg SMTPConfig
}

func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	return &SMTPNotifier{cfg: cfg}, nil
}

func (n *SMTPNotifier) SendRegistrationInvite(ctx context.Context, invite RegistrationInvite) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body strings.Builder
	fmt.Fprintf(&body, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&body, "To: %s\r\n", invite.Email)
	fmt.Fprintf(&body, "Subject: You have been invited to join %s\r\n", invite.CompanyName)
	body.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&body, "You have been invited to join %s as %s.\r\n\r\n", invite.CompanyName, strings.ToLower(invite.RoleName))
	fmt.Fprintf(&body, "Use this token to complete your registration: %s\r\n", invite.Token)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{invite.Email}, []byte(body.String())); err != nil {
		return fmt.Errorf("send invite mail: %w", err)
	}
	return nil
}

var _ Notifier = (*SMTPNotifier)(nil)
