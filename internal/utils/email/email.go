package email

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/avelin/cashflow-service/internal/config"
	"github.com/avelin/cashflow-service/internal/models"
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

// SendLowBalanceWarnings sends a digest of upcoming below-threshold days
func (s *Sender) SendLowBalanceWarnings(to, username string, warnings []models.Warning) error {
	if len(warnings) == 0 {
		return nil
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Low Balance Forecast Warning"

	body := fmt.Sprintf("Dear %s,\n\n", username)
	body += "Your balance forecast shows the following accounts dropping below your warning threshold:\n\n"
	for _, w := range warnings {
		body += fmt.Sprintf(
			"  %s: %s is forecast at %s (threshold %s)\n",
			w.Date.Format("2006-01-02"), w.AccountName, w.Balance.StringFixed(2), w.Threshold.StringFixed(2),
		)
	}
	body += "\nConsider moving funds or adjusting planned transactions.\n"
	body += "\nBest regards,\nCashflow Service"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
