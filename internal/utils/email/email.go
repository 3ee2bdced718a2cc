package email

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finance-scheduler/internal/config"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendBudgetAlert sends a budget threshold alert to the configured
// alert mailbox.
func (s *Sender) SendBudgetAlert(profileID, categoryID int64, allocated, spent, thresholdPct decimal.Decimal) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.AlertEmail}
	e.Subject = fmt.Sprintf("Budget Threshold Alert: profile %d", profileID)

	percent := decimal.Zero
	if allocated.Sign() > 0 {
		percent = spent.Div(allocated).Mul(decimal.NewFromInt(100)).Round(1)
	}
	body := fmt.Sprintf(
		"Budget alert for profile %d, category %d.\n\n"+
			"Spent %s of %s allocated (%s%%), crossing the %s%% alert threshold.\n"+
			"\nBest regards,\nFinance Scheduler",
		profileID, categoryID, spent, allocated, percent, thresholdPct,
	)
	e.Text = []byte(body)

	// Send email
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", s.cfg.AlertEmail, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", s.cfg.AlertEmail, e.Subject)
	return nil
}
