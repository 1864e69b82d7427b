package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/service"
)

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) List(ctx context.Context) ([]domain.Transfer, error) {
	args := m.Called(ctx)
	ts, _ := args.Get(0).([]domain.Transfer)
	return ts, args.Error(1)
}

func (m *mockQueue) Approve(ctx context.Context, transferID, reviewerID uuid.UUID) (*domain.Transfer, error) {
	args := m.Called(ctx, transferID, reviewerID)
	t, _ := args.Get(0).(*domain.Transfer)
	return t, args.Error(1)
}

func (m *mockQueue) Reject(ctx context.Context, transferID, reviewerID uuid.UUID, reason string) (*domain.Transfer, error) {
	args := m.Called(ctx, transferID, reviewerID, reason)
	t, _ := args.Get(0).(*domain.Transfer)
	return t, args.Error(1)
}

type mockAdmin struct {
	mock.Mock
}

func (m *mockAdmin) AdjustBalance(ctx context.Context, adminID uuid.UUID, req service.AdjustBalanceRequest) (*service.Adjustment, error) {
	args := m.Called(ctx, adminID, req)
	a, _ := args.Get(0).(*service.Adjustment)
	return a, args.Error(1)
}

func (m *mockAdmin) SetFees(ctx context.Context, adminID, userID uuid.UUID, bank, crypto *decimal.Decimal) error {
	return m.Called(ctx, adminID, userID, bank, crypto).Error(0)
}

func (m *mockAdmin) SetFlags(ctx context.Context, adminID, userID uuid.UUID, authCodeRequired, businessAccountRequired *bool) error {
	return m.Called(ctx, adminID, userID, authCodeRequired, businessAccountRequired).Error(0)
}

func (m *mockAdmin) SetUserStatus(ctx context.Context, adminID, userID uuid.UUID, status domain.UserStatus) error {
	return m.Called(ctx, adminID, userID, status).Error(0)
}

func (m *mockAdmin) CorrectEntry(ctx context.Context, adminID, entryID uuid.UUID, req service.CorrectEntryRequest) (*domain.TransactionEntry, error) {
	args := m.Called(ctx, adminID, entryID, req)
	e, _ := args.Get(0).(*domain.TransactionEntry)
	return e, args.Error(1)
}

func (m *mockAdmin) ListAuditLogs(ctx context.Context, limit int) ([]domain.AdminLog, error) {
	args := m.Called(ctx, limit)
	ls, _ := args.Get(0).([]domain.AdminLog)
	return ls, args.Error(1)
}

func TestAdminHandler_Reject(t *testing.T) {
	adminID := uuid.New()
	transferID := uuid.New()
	reason := "beneficiary details invalid"

	tests := []struct {
		name       string
		body       string
		setup      func(q *mockQueue)
		wantStatus int
		wantCode   string
	}{
		{
			name: "rejected",
			body: `{"reason":"beneficiary details invalid"}`,
			setup: func(q *mockQueue) {
				q.On("Reject", mock.Anything, transferID, adminID, reason).Return(&domain.Transfer{
					ID: transferID, Status: domain.TransferStatusFailed, RejectionReason: &reason,
				}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "blank reason",
			body: `{"reason":"  "}`,
			setup: func(q *mockQueue) {
				q.On("Reject", mock.Anything, transferID, adminID, "  ").
					Return(nil, fmt.Errorf("Reject: %w", domain.ErrReasonRequired))
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "REJECTION_REASON_REQUIRED",
		},
		{
			name: "already decided",
			body: `{"reason":"beneficiary details invalid"}`,
			setup: func(q *mockQueue) {
				q.On("Reject", mock.Anything, transferID, adminID, reason).
					Return(nil, fmt.Errorf("Reject: %w", domain.ErrTransferNotPending))
			},
			wantStatus: http.StatusConflict,
			wantCode:   "TRANSFER_NOT_PENDING",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := &mockQueue{}
			tc.setup(q)
			h := NewAdminHandler(q, &mockAdmin{})

			req := authedRequest(http.MethodPost, "/api/v1/admin/transfers/"+transferID.String()+"/reject", tc.body, adminID)
			req.SetPathValue("id", transferID.String())
			rr := httptest.NewRecorder()
			h.Reject(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			resp := decodeResponse(t, rr)
			if tc.wantCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
			} else {
				assert.Equal(t, "failed", resp.Data.(map[string]any)["status"])
			}
			q.AssertExpectations(t)
		})
	}
}

func TestAdminHandler_AdjustBalance(t *testing.T) {
	adminID := uuid.New()
	userID := uuid.New()

	t.Run("credits", func(t *testing.T) {
		a := &mockAdmin{}
		a.On("AdjustBalance", mock.Anything, adminID, service.AdjustBalanceRequest{
			UserID: userID, Direction: domain.EntryTypeCredit, Amount: decimal.RequireFromString("250.5"),
		}).Return(&service.Adjustment{
			Account:    &domain.Account{UserID: userID, Balance: decimal.RequireFromString("250.5")},
			Entry:      &domain.TransactionEntry{Type: domain.EntryTypeCredit, Amount: decimal.RequireFromString("250.5")},
			NewBalance: decimal.RequireFromString("250.5"),
		}, nil).Once()

		h := NewAdminHandler(&mockQueue{}, a)
		body := fmt.Sprintf(`{"user_id":"%s","direction":"credit","amount":"250.5"}`, userID)
		rr := httptest.NewRecorder()
		h.AdjustBalance(rr, authedRequest(http.MethodPost, "/api/v1/admin/accounts/adjust", body, adminID))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "250.50", decodeResponse(t, rr).Data.(map[string]any)["new_balance"])
		a.AssertExpectations(t)
	})

	t.Run("rejects unknown direction", func(t *testing.T) {
		h := NewAdminHandler(&mockQueue{}, &mockAdmin{})
		body := fmt.Sprintf(`{"user_id":"%s","direction":"sideways","amount":"1"}`, userID)
		rr := httptest.NewRecorder()
		h.AdjustBalance(rr, authedRequest(http.MethodPost, "/api/v1/admin/accounts/adjust", body, adminID))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "VALIDATION_FAILED", decodeResponse(t, rr).Error.Code)
	})
}

func TestAdminHandler_SetStatus(t *testing.T) {
	adminID := uuid.New()
	userID := uuid.New()

	a := &mockAdmin{}
	a.On("SetUserStatus", mock.Anything, adminID, userID, domain.UserStatusBlocked).Return(nil).Once()
	h := NewAdminHandler(&mockQueue{}, a)

	req := authedRequest(http.MethodPut, "/api/v1/admin/users/"+userID.String()+"/status", `{"status":"blocked"}`, adminID)
	req.SetPathValue("id", userID.String())
	rr := httptest.NewRecorder()
	h.SetStatus(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = authedRequest(http.MethodPut, "/api/v1/admin/users/"+userID.String()+"/status", `{"status":"frozen"}`, adminID)
	req.SetPathValue("id", userID.String())
	rr = httptest.NewRecorder()
	h.SetStatus(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	a.AssertExpectations(t)
}
