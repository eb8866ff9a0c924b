package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/rentscore/rent-service/internal/config"
	"github.com/rentscore/rent-service/internal/models"
)

// Sender delivers lease notifications over SMTP. It implements the service
// Notifier interface.
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

// PaymentRecorded confirms an accepted rent payment
func (s *Sender) PaymentRecorded(renter *models.User, payment *models.Payment) error {
	subject := "Rent Payment Received"
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your rent payment of %d has been recorded on %s.\n",
		renter.Username, payment.Amount, payment.PaidAt.Format("2006-01-02 15:04:05"),
	)
	if payment.OnTime {
		body += "The payment was made on time. Thank you!\n"
	} else {
		body += "The payment was made after the due date.\n"
	}
	return s.send(renter.Email, subject, body)
}

// NextDueDate announces the next due date after a payment
func (s *Sender) NextDueDate(renter *models.User, nextDue time.Time) error {
	subject := "Next Rent Due Date"
	var body string
	if nextDue.IsZero() {
		body = fmt.Sprintf(
			"Dear %s,\n\n"+
				"All scheduled rent payments for your lease are settled. No further payments are due.\n",
			renter.Username,
		)
	} else {
		body = fmt.Sprintf(
			"Dear %s,\n\n"+
				"Your next rent payment is due on %s.\n",
			renter.Username, nextDue.Format("2006-01-02"),
		)
	}
	return s.send(renter.Email, subject, body)
}

// PaymentOverdue notifies the renter that a payment window closed unpaid
func (s *Sender) PaymentOverdue(renter *models.User, slot models.PaymentSlot, amount int64, newScore int) error {
	subject := "Overdue Rent Payment Notification"
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your rent payment of %d was due on %s and was not received before the next due date.\n"+
			"Your rental score is now %d.\n"+
			"Please contact your landlord to settle the outstanding amount.\n",
		renter.Username, amount, slot.DueDate.Format("2006-01-02"), newScore,
	)
	return s.send(renter.Email, subject, body)
}

// UpcomingDue reminds the renter of an approaching due date
func (s *Sender) UpcomingDue(renter *models.User, slot models.PaymentSlot, amount int64) error {
	subject := "Upcoming Rent Payment Reminder"
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"This is a reminder that your rent payment of %d is due on %s.\n"+
			"Please ensure sufficient funds are available in your account.\n",
		renter.Username, amount, slot.DueDate.Format("2006-01-02"),
	)
	return s.send(renter.Email, subject, body)
}

func (s *Sender) send(to, subject, body string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body + "\nBest regards,\nRentScore")

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, subject)
	return nil
}
