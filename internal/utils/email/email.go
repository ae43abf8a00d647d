package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/curtWhite/finance-game-server/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
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

// SendPaymentReminder tells a player a liability payment is coming due.
func (s *Sender) SendPaymentReminder(to, username, liability string, dueDate time.Time, amount float64, isOverdue bool) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	if isOverdue {
		e.Subject = "Overdue Loan Payment Notification"
	} else {
		e.Subject = "Upcoming Loan Payment Reminder"
	}

	body := fmt.Sprintf(
		"Dear %s,\n\n", username,
	)
	if isOverdue {
		body += fmt.Sprintf(
			"Your payment of %.2f on %q was due on %s and is now overdue.\n"+
				"Late payments lower your credit score.\n"+
				"Please make the payment as soon as possible.\n",
			amount, liability, dueDate.Format("2006-01-02"),
		)
	} else {
		body += fmt.Sprintf(
			"This is a reminder that your payment of %.2f on %q is due on %s.\n"+
				"Please ensure sufficient funds are available in your account.\n",
			amount, liability, dueDate.Format("2006-01-02"),
		)
	}
	body += "\nBest regards,\nThe Game Bank"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	err := e.Send(addr, auth)
	if err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

// SendTransactionNotification sends a notification email for a deposit or
// withdrawal on the player's account.
func (s *Sender) SendTransactionNotification(to, username string, amount float64, transactionType string, balance float64) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("%s Notification", transactionType)

	body := fmt.Sprintf(
		"Dear %s,\n\n", username,
	)
	if transactionType == "Deposit" {
		body += fmt.Sprintf(
			"Your account has been credited with %.2f.\n"+
				"Transaction time: %s\n"+
				"Current balance: %.2f\n",
			amount, time.Now().Format("2006-01-02 15:04:05"), balance,
		)
	} else if transactionType == "Withdrawal" {
		body += fmt.Sprintf(
			"An amount of %.2f has been withdrawn from your account.\n"+
				"Transaction time: %s\n"+
				"Current balance: %.2f\n",
			amount, time.Now().Format("2006-01-02 15:04:05"), balance,
		)
	}
	body += "\nBest regards,\nThe Game Bank"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	err := e.Send(addr, auth)
	if err != nil {
		s.logger.Errorf("Failed to send %s notification to %s: %v", transactionType, to, err)
		return fmt.Errorf("failed to send %s notification: %w", transactionType, err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
