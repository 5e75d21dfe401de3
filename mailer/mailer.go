// Package mailer implements identity.Mailer over SMTP.
package mailer

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/wneessen/go-mail"

	"github.com/goliatone/go-identity"
)

// Config holds SMTP connection options
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers messages through an SMTP relay
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// New creates an SMTP backed mailer
func New(cfg Config) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, goerrors.New("smtp host is required", goerrors.CategoryBadInput)
	}

	if cfg.From == "" {
		return nil, goerrors.New("smtp from address is required", goerrors.CategoryBadInput)
	}

	opts := []mail.Option{
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	}

	if cfg.Port != 0 {
		opts = append(opts, mail.WithPort(cfg.Port))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to create smtp client")
	}

	return &SMTPMailer{client: client, from: cfg.From}, nil
}

// Send delivers the composed message
func (m *SMTPMailer) Send(ctx context.Context, msg identity.Message) error {
	out := mail.NewMsg()

	if err := out.From(m.from); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid from address")
	}

	if err := out.To(msg.To); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid recipient address")
	}

	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextHTML, msg.HTML)

	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp delivery failed")
	}

	return nil
}
