// Package mailer sends the two notification emails the service issues:
// a new planner account's credentials, and an async schedule run's
// completion. It's a thin wrapper around go-mail, grounded on the same
// client/template pattern the service's mail worker uses.
package mailer

import (
	"context"
	"encoding/json"
	"html/template"

	"github.com/wneessen/go-mail"

	"github.com/taskalign/scheduler-core/internal/config"
	"github.com/taskalign/scheduler-core/internal/domain"
)

type Mailer struct {
	client *mail.Client
	from   string
}

func New(cfg *config.Config) (*Mailer, error) {
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		return nil, err
	}

	return &Mailer{client: client, from: cfg.Email.SMTP.Username}, nil
}

func (m *Mailer) Close() error {
	return m.client.Close()
}

func (m *Mailer) DialWithContext(ctx context.Context) error {
	return m.client.DialWithContext(ctx)
}

// Send dispatches msg by rendering the html/template that matches its
// Type field.
func (m *Mailer) Send(msg domain.MailMessage) error {
	var templatePath, subject string
	var data any
	switch msg.Type {
	case "planner_account":
		templatePath = "./templates/planner_account_email.html"
		subject = "TaskAlign - Your new account"
		data = &domain.PlannerAccountMailData{}
	case "run_completed":
		templatePath = "./templates/run_completed_email.html"
		subject = "TaskAlign - Schedule run finished"
		data = &domain.RunCompletedMailData{}
	default:
		return errUnsupportedMailType(msg.Type)
	}

	// msg.Data may already be the concrete type (in-process send) or a
	// map[string]interface{} (round-tripped through the mail queue as
	// JSON): re-marshaling through the target struct normalizes both so
	// the templates can always use the struct's Go field names.
	raw, err := json.Marshal(msg.Data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return err
	}

	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return err
	}

	email := mail.NewMsg()
	if err := email.From(m.from); err != nil {
		return err
	}
	if err := email.To(msg.To); err != nil {
		return err
	}
	if err := email.SetBodyHTMLTemplate(tmpl, data); err != nil {
		return err
	}
	email.Subject(subject)

	return m.client.DialAndSend(email)
}

type errUnsupportedMailType string

func (e errUnsupportedMailType) Error() string {
	return "mailer: unsupported mail type " + string(e)
}
