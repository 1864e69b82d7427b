package gate

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
)

type State string

const (
	StateAwaitingPin      State = "AWAITING_PIN"
	StateAwaitingFeeAck   State = "AWAITING_FEE_ACK"
	StateAwaitingAuthCode State = "AWAITING_AUTH_CODE"
	StateAuthorized       State = "AUTHORIZED"
	StateRejected         State = "REJECTED"
)

var transitions = map[State][]State{
	StateAwaitingPin:      {StateAwaitingFeeAck},
	StateAwaitingFeeAck:   {StateAwaitingAuthCode, StateAuthorized},
	StateAwaitingAuthCode: {StateAuthorized},
}

// Attempt tracks one transfer authorization. Any non-terminal state may move
// to REJECTED; AUTHORIZED and REJECTED are final.
type Attempt struct {
	UserID  uuid.UUID
	FeeKind domain.FeeKind
	Fee     decimal.Decimal
	state   State
	reason  error
}

func newAttempt(userID uuid.UUID, kind domain.FeeKind) *Attempt {
	return &Attempt{UserID: userID, FeeKind: kind, Fee: decimal.Zero, state: StateAwaitingPin}
}

func (a *Attempt) State() State { return a.state }

// Reason is the error that rejected the attempt, if any.
func (a *Attempt) Reason() error { return a.reason }

func (a *Attempt) advance(to State) error {
	for _, next := range transitions[a.state] {
		if next == to {
			a.state = to
			return nil
		}
	}
	return fmt.Errorf("advance: illegal transition %s -> %s", a.state, to)
}

func (a *Attempt) reject(err error) error {
	if a.state == StateAuthorized || a.state == StateRejected {
		return fmt.Errorf("reject: attempt already %s", a.state)
	}
	a.state = StateRejected
	a.reason = err
	return err
}
