package notify

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindDebitAlert  Kind = "debit_alert"
	KindCreditAlert Kind = "credit_alert"
	KindAuthCode    Kind = "auth_code"
)

// Alert describes one balance movement. Counterparty is the recipient for a
// debit and the sender for a credit.
type Alert struct {
	Email          string          `json:"email"`
	Name           string          `json:"name"`
	Counterparty   string          `json:"counterparty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	TransactionID  string          `json:"transaction_id"`
	Timestamp      time.Time       `json:"timestamp"`
}

type AuthCode struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Message is the queue envelope consumed by the alert worker.
type Message struct {
	Kind     Kind      `json:"kind"`
	Alert    *Alert    `json:"alert,omitempty"`
	AuthCode *AuthCode `json:"auth_code,omitempty"`
}

type Dispatcher interface {
	SendDebitAlert(ctx context.Context, alert Alert) error
	SendCreditAlert(ctx context.Context, alert Alert) error
	SendAuthCode(ctx context.Context, code AuthCode) error
}

type publisher interface {
	publish(ctx context.Context, msg Message) error
}

// dispatch adapts a publisher to the Dispatcher methods.
type dispatch struct {
	p publisher
}

func (d dispatch) SendDebitAlert(ctx context.Context, alert Alert) error {
	return d.p.publish(ctx, Message{Kind: KindDebitAlert, Alert: &alert})
}

func (d dispatch) SendCreditAlert(ctx context.Context, alert Alert) error {
	return d.p.publish(ctx, Message{Kind: KindCreditAlert, Alert: &alert})
}

func (d dispatch) SendAuthCode(ctx context.Context, code AuthCode) error {
	return d.p.publish(ctx, Message{Kind: KindAuthCode, AuthCode: &code})
}
