package mailer

import (
	"errors"
	"io"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

type Attachment struct {
	Filename string
	Content  []byte
}

type Message struct {
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers outbound mail. Implementations are fire-and-forget from the
// caller's point of view: delivery failures are logged and swallowed, and the
// caller guards against duplicate sends itself.
type Mailer interface {
	Send(msg Message) error
}

type smtpMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewFromEnv builds an SMTP mailer from SMTP_HOST/SMTP_PORT/SMTP_USERNAME/
// SMTP_PASSWORD/SMTP_FROM. With no host configured it returns a no-op mailer
// so local setups work without a mail server.
func NewFromEnv() Mailer {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return &noopMailer{}
	}
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = os.Getenv("SMTP_USERNAME")
	}
	return &smtpMailer{
		host:     host,
		port:     port,
		username: os.Getenv("SMTP_USERNAME"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     from,
	}
}

func (m *smtpMailer) Send(msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("no recipients")
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	for _, a := range msg.Attachments {
		content := a.Content
		gm.Attach(a.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}

	d := gomail.NewDialer(m.host, m.port, m.username, m.password)
	return d.DialAndSend(gm)
}

type noopMailer struct{}

func (*noopMailer) Send(Message) error { return nil }
