package email

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

const smtpTimeout = 15 * time.Second

// SMTPSender delivers task emails through one SMTP relay.
type SMTPSender struct {
	client    *gomail.Client
	fromName  string
	fromEmail string
}

func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(smtpTimeout),
	}
	if username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(username),
			gomail.WithPassword(password),
		)
	}
	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSender{client: client, fromName: fromName, fromEmail: fromEmail}, nil
}

func (s *SMTPSender) send(ctx context.Context, toEmail string, m message) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to %s: %w", toEmail, err)
	}
	msg.Subject(m.Subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(gomail.TypeTextPlain, m.Text)
	msg.AddAlternativeString(gomail.TypeTextHTML, m.HTML)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) SendTaskDueSoonEmail(ctx context.Context, toEmail, agentName, taskTitle string, endDate time.Time) error {
	m, err := dueSoonMessage(agentName, taskTitle, endDate)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, m)
}

func (s *SMTPSender) SendTaskAssignedEmail(ctx context.Context, toEmail, agentName, taskTitle string, startDate, endDate time.Time) error {
	m, err := assignedMessage(agentName, taskTitle, startDate, endDate)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, m)
}

var _ Sender = (*SMTPSender)(nil)
