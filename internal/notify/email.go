package notify

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/wneessen/go-mail"
)

type Email struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, email Email) error
}

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"money": func(a *Alert, field string) string {
		if field == "balance" {
			return a.CurrentBalance.StringFixed(2)
		}
		return a.Amount.StringFixed(2)
	},
}).Parse(`
{{define "debit_alert"}}Dear {{.Name}},

Your account has been debited.

Amount:          {{.Currency}} {{money . "amount"}}
Recipient:       {{.Counterparty}}
Transaction ID:  {{.TransactionID}}
Date:            {{.Timestamp.Format "2006-01-02 15:04:05 MST"}}
Current balance: {{.Currency}} {{money . "balance"}}

If you did not authorize this transaction, contact customer care immediately.
{{end}}
{{define "credit_alert"}}Dear {{.Name}},

Your account has been credited.

Amount:          {{.Currency}} {{money . "amount"}}
Sender:          {{.Counterparty}}
Transaction ID:  {{.TransactionID}}
Date:            {{.Timestamp.Format "2006-01-02 15:04:05 MST"}}
Current balance: {{.Currency}} {{money . "balance"}}
{{end}}
{{define "auth_code"}}Dear {{.Name}},

Your transfer authorization code is {{.Code}}.

It can be used once and expires at {{.ExpiresAt.Format "15:04 MST"}}. Never share this code.
{{end}}`))

func Render(msg Message) (Email, error) {
	var (
		to, subject string
		data        any
	)

	switch msg.Kind {
	case KindDebitAlert, KindCreditAlert:
		if msg.Alert == nil {
			return Email{}, fmt.Errorf("Render: %s without alert", msg.Kind)
		}
		to, data = msg.Alert.Email, msg.Alert
		subject = "Debit Alert: " + msg.Alert.Currency + " " + msg.Alert.Amount.StringFixed(2)
		if msg.Kind == KindCreditAlert {
			subject = "Credit Alert: " + msg.Alert.Currency + " " + msg.Alert.Amount.StringFixed(2)
		}
	case KindAuthCode:
		if msg.AuthCode == nil {
			return Email{}, fmt.Errorf("Render: %s without code", msg.Kind)
		}
		to, data = msg.AuthCode.Email, msg.AuthCode
		subject = "Your transfer authorization code"
	default:
		return Email{}, fmt.Errorf("Render: unknown kind %q", msg.Kind)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(msg.Kind), data); err != nil {
		return Email{}, fmt.Errorf("Render: %w", err)
	}

	return Email{To: to, Subject: subject, Body: strings.TrimSpace(buf.String())}, nil
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPMailer struct {
	from string
	send func(ctx context.Context, msg *mail.Msg) error
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewSMTPMailer: %w", err)
	}
	send := func(ctx context.Context, msg *mail.Msg) error {
		return client.DialAndSendWithContext(ctx, msg)
	}
	return &SMTPMailer{from: cfg.From, send: send}, nil
}

// Send builds the message and delivers it within ctx's deadline. Addresses
// are parsed and headers encoded by go-mail, so a malformed recipient fails
// before anything reaches the server.
func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	msg, err := m.build(email)
	if err != nil {
		return fmt.Errorf("Send: %w", err)
	}
	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("Send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) build(email Email) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("from %q: %w", m.from, err)
	}
	if err := msg.To(email.To); err != nil {
		return nil, fmt.Errorf("to %q: %w", email.To, err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextPlain, email.Body)
	return msg, nil
}
