package transfer

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/service/gate"
)

type mockAuthorizer struct {
	mock.Mock
}

func (m *mockAuthorizer) Authorize(ctx context.Context, userID uuid.UUID, kind domain.FeeKind, creds gate.Credentials) (*gate.Authorization, error) {
	args := m.Called(ctx, userID, kind, creds)
	if a, ok := args.Get(0).(*gate.Authorization); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

// stubAccounts serves only the reads made before the transaction opens.
type stubAccounts struct {
	accountRepo
	primary *domain.Account
}

func (s *stubAccounts) GetPrimaryActive(_ context.Context, _ uuid.UUID) (*domain.Account, error) {
	if s.primary == nil {
		return nil, domain.ErrNotFound
	}
	return s.primary, nil
}

type noTx struct{}

func (noTx) BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error) {
	panic("transaction must not open")
}

func (noTx) Commit(*sql.Tx) error { return nil }

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		valid bool
	}{
		{
			name:  "internal by username",
			req:   Request{Kind: domain.TransferKindInternal, Recipient: Recipient{Identifier: "grace"}},
			valid: true,
		},
		{
			name: "internal without identifier",
			req:  Request{Kind: domain.TransferKindInternal, Recipient: Recipient{Name: "Grace"}},
		},
		{
			name: "external local",
			req: Request{Kind: domain.TransferKindExternalLocal, Recipient: Recipient{
				Name: "Jane Roe", AccountNumber: "0011223344", Bank: "First Federal",
			}},
			valid: true,
		},
		{
			name: "external missing bank",
			req: Request{Kind: domain.TransferKindExternalLocal, Recipient: Recipient{
				Name: "Jane Roe", AccountNumber: "0011223344",
			}},
		},
		{
			name: "international needs country",
			req: Request{Kind: domain.TransferKindExternalInternational, Recipient: Recipient{
				Name: "Jane Roe", AccountNumber: "DE89370400440532013000", Bank: "Deutsche Bank",
			}},
		},
		{
			name: "international",
			req: Request{Kind: domain.TransferKindExternalInternational, Recipient: Recipient{
				Name: "Jane Roe", AccountNumber: "DE89370400440532013000", Bank: "Deutsche Bank", Country: "DE", RoutingCode: "COBADEFF",
			}},
			valid: true,
		},
		{
			name: "unknown kind",
			req:  Request{Kind: "crypto", Recipient: Recipient{Identifier: "grace"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidRequest)
			}
		})
	}
}

func TestSubmitTransfer_RejectsBeforeMutation(t *testing.T) {
	actor := uuid.New()
	internal := Request{
		Kind:        domain.TransferKindInternal,
		Recipient:   Recipient{Identifier: "grace"},
		Amount:      decimal.RequireFromString("40"),
		Credentials: gate.Credentials{Pin: "1234"},
	}
	external := Request{
		Kind:        domain.TransferKindExternalLocal,
		Recipient:   Recipient{Name: "Jane", AccountNumber: "0011223344", Bank: "First Federal"},
		Amount:      decimal.RequireFromString("40"),
		Credentials: gate.Credentials{Pin: "1234", FeeAcknowledged: true},
	}
	withAmount := func(r Request, amount string) Request {
		r.Amount = decimal.RequireFromString(amount)
		return r
	}

	tests := []struct {
		name      string
		req       Request
		authErr   error
		fee       string
		primary   *domain.Account
		skipsGate bool
		wantErr   error
	}{
		{
			name:      "zero amount",
			req:       withAmount(internal, "0"),
			skipsGate: true,
			wantErr:   domain.ErrInvalidAmount,
		},
		{
			name:      "negative amount",
			req:       withAmount(internal, "-1"),
			skipsGate: true,
			wantErr:   domain.ErrInvalidAmount,
		},
		{
			name:      "three decimals",
			req:       withAmount(internal, "1.005"),
			skipsGate: true,
			wantErr:   domain.ErrInvalidAmount,
		},
		{
			name:    "gate rejects",
			req:     internal,
			authErr: domain.ErrIncorrectPin,
			wantErr: domain.ErrIncorrectPin,
		},
		{
			name:    "no active account",
			req:     internal,
			fee:     "0",
			wantErr: domain.ErrNoActiveAccount,
		},
		{
			name:    "fee tips external over balance",
			req:     external,
			fee:     "25",
			primary: &domain.Account{ID: uuid.New(), Balance: decimal.RequireFromString("50"), Status: domain.AccountStatusActive},
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name:    "internal over balance",
			req:     withAmount(internal, "100.01"),
			fee:     "0",
			primary: &domain.Account{ID: uuid.New(), Balance: decimal.RequireFromString("100"), Status: domain.AccountStatusActive},
			wantErr: domain.ErrInsufficientFunds,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			auth := &mockAuthorizer{}
			if !tc.skipsGate {
				var authz *gate.Authorization
				if tc.authErr == nil {
					authz = &gate.Authorization{Fee: decimal.RequireFromString(tc.fee)}
				}
				auth.On("Authorize", mock.Anything, actor, tc.req.Kind.FeeKind(), tc.req.Credentials).Return(authz, tc.authErr)
			}

			svc := NewService(noTx{}, &stubAccounts{primary: tc.primary}, nil, nil, nil, auth, nil, nil)
			_, err := svc.SubmitTransfer(context.Background(), actor, tc.req)

			require.ErrorIs(t, err, tc.wantErr)
			auth.AssertExpectations(t)
			if tc.skipsGate {
				auth.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
