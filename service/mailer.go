package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	mail "github.com/go-mail/mail/v2"
	"github.com/kevinaaaquil/ontimenews/backend/models"
)

// messageSender is the part of *mail.Dialer the mailer needs.
type messageSender interface {
	DialAndSend(m ...*mail.Message) error
}

// Mailer emails authors when an admin declines their article.
type Mailer struct {
	sender messageSender
	from   string
}

func NewMailer(host string, port int, user, pass, from string) (*Mailer, error) {
	if host == "" || from == "" {
		return nil, errors.New("SMTP_HOST and SMTP_FROM are required")
	}
	d := mail.NewDialer(host, port, user, pass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.Timeout = 15 * time.Second
	return &Mailer{sender: d, from: from}, nil
}

func (m *Mailer) NotifyDeclined(ctx context.Context, article *models.Article) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if article.Email == "" {
		return errors.New("article has no author email")
	}
	return m.sender.DialAndSend(declineMessage(m.from, article))
}

func declineMessage(from string, article *models.Article) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", article.Email)
	msg.SetHeader("Subject", fmt.Sprintf("Your article %q was declined", article.Title))
	greeting := "Hello"
	if article.DisplayName != "" {
		greeting = "Hello " + article.DisplayName
	}
	msg.SetBody("text/plain", fmt.Sprintf(
		"%s,\n\nYour article %q was not approved for publication.\n\nReason: %s\n\n-- OnTime News",
		greeting, article.Title, article.Decline,
	))
	return msg
}
