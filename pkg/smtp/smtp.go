package smtp

import (
	"fmt"
	smtpPkg "net/smtp"
	"os"
	"time"
)

type ItfSmtp interface {
	SendCallbackNotification(tenantEmail, customerName, customerPhone string, scheduledAt time.Time) error
}

type smtp struct {
	auth smtpPkg.Auth
	mail string
}

func New() ItfSmtp {
	mail := os.Getenv("SMTP_MAIL")
	password := os.Getenv("SMTP_PASSWORD")
	auth := smtpPkg.PlainAuth("", mail, password, "smtp.gmail.com")

	return &smtp{auth: auth, mail: mail}
}

func (s *smtp) SendCallbackNotification(tenantEmail, customerName, customerPhone string, scheduledAt time.Time) error {
	to := []string{tenantEmail}

	message := []byte(fmt.Sprintf(
		"To: %s\r\nSubject: Callback scheduled\r\n\r\nA callback with %s (%s) has been scheduled for %s.",
		tenantEmail, customerName, customerPhone, scheduledAt.Format("Mon, 02 Jan 2006 15:04")))

	if err := smtpPkg.SendMail("smtp.gmail.com:587", s.auth, s.mail, to, message); err != nil {
		return err
	}

	return nil
}
