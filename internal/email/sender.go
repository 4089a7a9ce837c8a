package email

import (
	"context"
	"time"

	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/logger"
)

// Sender delivers the transactional emails the automation sweeps raise.
type Sender interface {
	SendTaskDueSoonEmail(ctx context.Context, toEmail, agentName, taskTitle string, endDate time.Time) error
	SendTaskAssignedEmail(ctx context.Context, toEmail, agentName, taskTitle string, startDate, endDate time.Time) error
}

type NoopSender struct{}

func (NoopSender) SendTaskDueSoonEmail(ctx context.Context, toEmail, agentName, taskTitle string, endDate time.Time) error {
	return nil
}

func (NoopSender) SendTaskAssignedEmail(ctx context.Context, toEmail, agentName, taskTitle string, startDate, endDate time.Time) error {
	return nil
}

// NewSender returns an SMTP sender when SMTP is configured and a no-op
// sender otherwise. A relay that cannot be configured also degrades to the
// no-op sender, with the reason logged.
func NewSender(cfg config.SMTPConfig, log *logger.Logger) Sender {
	if cfg == nil || !cfg.IsSMTPEnabled() {
		return NoopSender{}
	}
	sender, err := NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetSMTPFromAddress(),
		cfg.GetSMTPFromName(),
	)
	if err != nil {
		if log != nil {
			log.Error("smtp disabled", "host", cfg.GetSMTPHost(), "error", err)
		}
		return NoopSender{}
	}
	return sender
}
