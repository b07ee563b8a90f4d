package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
)

// Relay sends compliance emails over SMTP. When no host is configured the
// relay is disabled and emails only land in the database.
type Relay struct {
	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
}

func NewRelay(smtpHost, smtpPort, smtpUsername, smtpPassword, fromEmail string) *Relay {
	return &Relay{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUsername: smtpUsername,
		smtpPassword: smtpPassword,
		fromEmail:    fromEmail,
	}
}

// Enabled reports whether the relay has an SMTP host to talk to.
func (r *Relay) Enabled() bool {
	return r.smtpHost != ""
}

// Send delivers one email to the recipient with the given CC list.
func (r *Relay) Send(to string, cc []string, subject, body string) error {
	if !r.Enabled() {
		return fmt.Errorf("smtp relay is not configured")
	}

	message := r.buildMessage(to, cc, subject, body)
	recipients := append([]string{to}, cc...)

	return r.send(recipients, message)
}

func (r *Relay) buildMessage(to string, cc []string, subject, body string) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", r.fromEmail),
		fmt.Sprintf("To: %s", to),
	}
	if len(cc) > 0 {
		headers = append(headers, fmt.Sprintf("Cc: %s", strings.Join(cc, ", ")))
	}
	headers = append(headers,
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	)

	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body)
}

func (r *Relay) send(recipients []string, message []byte) error {
	addr := fmt.Sprintf("%s:%s", r.smtpHost, r.smtpPort)

	conn, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	tlsConfig := &tls.Config{
		ServerName: r.smtpHost,
	}
	if err = conn.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	auth := smtp.PlainAuth("", r.smtpUsername, r.smtpPassword, r.smtpHost)
	if err = conn.Auth(auth); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	if err = conn.Mail(r.fromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	for _, rcpt := range recipients {
		if err = conn.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := conn.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}

	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}

	return conn.Quit()
}
