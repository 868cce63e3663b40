package notification

import (
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/BollineniRohith123/nibog-platform/internal"
)

// MessageSender is satisfied by *gomail.Dialer; tests substitute a fake.
type MessageSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends transactional mail to parents. With Enabled false every send
// becomes a logged no-op, which is how dev environments run.
type Mailer struct {
	sender  MessageSender
	from    string
	enabled bool
	logger  *slog.Logger
}

func NewMailer(cfg internal.EmailConfig, logger *slog.Logger) *Mailer {
	return &Mailer{
		sender:  gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:    cfg.From,
		enabled: cfg.Enabled,
		logger:  logger,
	}
}

// NewMailerWithSender is used by tests to inject a fake sender.
func NewMailerWithSender(sender MessageSender, from string, logger *slog.Logger) *Mailer {
	return &Mailer{
		sender:  sender,
		from:    from,
		enabled: true,
		logger:  logger,
	}
}

func (m *Mailer) SendPaymentConfirmation(to, parentName string, registrationID, amountPaise int64) error {
	subject := "Your NIBOG registration is confirmed"
	body := fmt.Sprintf(
		"Hi %s,\n\nWe received your payment of Rs %.2f and registration #%d is confirmed.\nSee you at the event!\n\nNIBOG Team",
		parentName, float64(amountPaise)/100, registrationID)

	return m.send(to, subject, body)
}

func (m *Mailer) SendPaymentFailed(to, parentName string, registrationID int64) error {
	subject := "Your NIBOG payment did not go through"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour payment for registration #%d was not successful. No money was taken.\nPlease try again from the registration page.\n\nNIBOG Team",
		parentName, registrationID)

	return m.send(to, subject, body)
}

func (m *Mailer) SendRefundNotice(to, parentName string, registrationID, amountPaise int64) error {
	subject := "Your NIBOG payment was refunded"
	body := fmt.Sprintf(
		"Hi %s,\n\nRs %.2f for registration #%d has been refunded. It should reach your account in 5-7 business days.\n\nNIBOG Team",
		parentName, float64(amountPaise)/100, registrationID)

	return m.send(to, subject, body)
}

func (m *Mailer) send(to, subject, body string) error {
	if !m.enabled {
		m.logger.Info("email sending disabled, skipping", "to", to, "subject", subject)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.sender.DialAndSend(msg); err != nil {
		m.logger.Error("failed to send email", "to", to, "subject", subject, "error", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("email sent", "to", to, "subject", subject)
	return nil
}
