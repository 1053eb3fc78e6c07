package mailer

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	dialTimeout = 10 * time.Second
	sendTimeout = 30 * time.Second
)

// SMTP sends mail through a plain SMTP relay.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func NewFromEnv() *SMTP {
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}

	from := os.Getenv("FROM_EMAIL")
	if from == "" {
		from = "no-reply@localhost"
		logrus.Warnf("FROM_EMAIL not set, using default sender: %s", from)
	}

	return &SMTP{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASS"),
		From:     from,
	}
}

// Send delivers one message. An HTML body is optional; when present the
// message is sent as text/html. The whole exchange runs under a deadline
// so a stuck relay cannot block a request.
func (m *SMTP) Send(to, subject, text, html string) error {
	contentType := "text/plain"
	body := text
	if html != "" {
		contentType = "text/html"
		body = html
	}

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", m.From, to, subject) +
			"MIME-Version: 1.0\r\n" +
			fmt.Sprintf("Content-Type: %s; charset=UTF-8\r\n\r\n", contentType) +
			body,
	)

	addr := fmt.Sprintf("%s:%s", m.Host, m.Port)

	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(sendTimeout)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	client, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.Host}); err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
	}

	if m.Username != "" && m.Password != "" {
		auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
	}

	if err := client.Mail(m.From); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logrus.WithField("to", to).Info("email sent")
	return client.Quit()
}

func (m *SMTP) SendOTP(to, code string) error {
	subject := "Your OTP Code"
	text := fmt.Sprintf("Your OTP code is: %s. It will expire in 5 minutes.", code)
	html := fmt.Sprintf("<p>Your OTP code is: <strong>%s</strong>. It will expire in 5 minutes.</p>", code)
	return m.Send(to, subject, text, html)
}

func (m *SMTP) SendNotification(to, subject, message string) error {
	html := fmt.Sprintf("<p>%s</p>", message)
	return m.Send(to, subject, message, html)
}
