package utils

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// Mailer kirim plain-text email lewat SMTP. Tanpa SMTP host yang
// terkonfigurasi, Send jadi no-op supaya environment dev tetap jalan.
type Mailer struct {
	config EmailConfig
	log    *zap.Logger
}

func NewMailer(config EmailConfig, log *zap.Logger) *Mailer {
	return &Mailer{
		config: config,
		log:    log.With(zap.String("component", "mailer")),
	}
}

func (m *Mailer) Send(to, subject, message string) error {
	if m.config.Host == "" || to == "" {
		m.log.Debug("Skipping email send", zap.String("to", to))
		return nil
	}

	from := m.config.From
	if from == "" {
		from = m.config.User
	}

	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", from, to, subject, message)

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	auth := smtp.PlainAuth("", m.config.User, m.config.Password, m.config.Host)

	if err := smtp.SendMail(addr, auth, from, []string{to}, []byte(body)); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}

	return nil
}
