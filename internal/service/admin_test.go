package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/repository"
	"github.com/josh-kwaku/heritage-ledger/internal/testutil"
)

func TestAdminService_AdjustBalance_OpensAccountOnFirstCredit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupServices(t, db, true)
	ctx := context.Background()

	admin := testutil.SeedAdmin(t, db, "admin@test.com")
	user := testutil.SeedTestUser(t, db, "new@test.com", "Newcomer", "newcomer")

	adj, err := svc.admin.AdjustBalance(ctx, admin.ID, AdjustBalanceRequest{
		UserID:    user.ID,
		Direction: domain.EntryTypeCredit,
		Amount:    dec("250.75"),
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, adj.Account.UserID)
	assert.Len(t, adj.Account.AccountNumber, 10)
	assert.True(t, dec("250.75").Equal(adj.NewBalance))
	assert.Equal(t, "Account credit", adj.Entry.Description)
	assert.Regexp(t, `^ADM`, adj.Entry.ReferenceNumber)

	assert.True(t, dec("250.75").Equal(testutil.GetAccountBalance(t, db, adj.Account.ID)))
	assert.Equal(t, 1, testutil.CountEntries(t, db, adj.Account.ID))
	assert.Equal(t, 1, countAuditLogs(t, db, string(domain.AdminActionBalanceAdd)))
	require.Len(t, svc.alerts.credits, 1)

	again, err := svc.admin.AdjustBalance(ctx, admin.ID, AdjustBalanceRequest{
		UserID:    user.ID,
		Direction: domain.EntryTypeCredit,
		Amount:    dec("10"),
	})
	require.NoError(t, err)
	assert.Equal(t, adj.Account.ID, again.Account.ID, "second credit reuses the account")
}

func TestAdminService_AdjustBalance_Debit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupServices(t, db, true)
	ctx := context.Background()

	admin := testutil.SeedAdmin(t, db, "admin@test.com")
	user := testutil.SeedTestUser(t, db, "u@test.com", "User", "user_db")
	noAcct := testutil.SeedTestUser(t, db, "none@test.com", "None", "user_none")
	acct := testutil.SeedTestAccount(t, db, user.ID, "100")

	tests := []struct {
		name    string
		req     AdjustBalanceRequest
		wantErr error
	}{
		{
			name:    "insufficient funds",
			req:     AdjustBalanceRequest{UserID: user.ID, Direction: domain.EntryTypeDebit, Amount: dec("100.01")},
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name:    "no account",
			req:     AdjustBalanceRequest{UserID: noAcct.ID, Direction: domain.EntryTypeDebit, Amount: dec("1")},
			wantErr: domain.ErrNoActiveAccount,
		},
		{
			name:    "bad direction",
			req:     AdjustBalanceRequest{UserID: user.ID, Direction: domain.EntryTypeTransfer, Amount: dec("1")},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "sub-cent amount",
			req:     AdjustBalanceRequest{UserID: user.ID, Direction: domain.EntryTypeDebit, Amount: dec("0.001")},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "unknown user",
			req:     AdjustBalanceRequest{UserID: uuid.New(), Direction: domain.EntryTypeCredit, Amount: dec("1")},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "exact balance",
			req:  AdjustBalanceRequest{UserID: user.ID, Direction: domain.EntryTypeDebit, Amount: dec("100"), Description: "Chargeback"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adj, err := svc.admin.AdjustBalance(ctx, admin.ID, tc.req)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, adj.NewBalance.IsZero())
			assert.Equal(t, "Chargeback", adj.Entry.Description)
		})
	}

	assert.True(t, dec("0").Equal(testutil.GetAccountBalance(t, db, acct.ID)))
	assert.Equal(t, 1, testutil.CountEntries(t, db, acct.ID), "failed adjustments leave no entries")
}

func TestAdminService_Settings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupServices(t, db, true)
	ctx := context.Background()
	users := repository.NewUserRepository(db)

	admin := testutil.SeedAdmin(t, db, "admin@test.com")
	user := testutil.SeedTestUser(t, db, "u@test.com", "User", "user_set")

	bank := dec("12.50")
	require.NoError(t, svc.admin.SetFees(ctx, admin.ID, user.ID, &bank, nil))

	on, off := true, false
	require.NoError(t, svc.admin.SetFlags(ctx, admin.ID, user.ID, &on, &on))
	require.NoError(t, svc.admin.SetFlags(ctx, admin.ID, user.ID, nil, &off))
	require.NoError(t, svc.admin.SetUserStatus(ctx, admin.ID, user.ID, domain.UserStatusBlocked))

	profile, err := users.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.BankTransferFee)
	assert.True(t, bank.Equal(*profile.BankTransferFee))
	assert.Nil(t, profile.CryptoTransferFee)
	assert.True(t, profile.AuthCodeRequired)
	assert.False(t, profile.BusinessAccountRequired)
	assert.Equal(t, domain.UserStatusBlocked, profile.Status)

	negative := dec("-1")
	require.ErrorIs(t, svc.admin.SetFees(ctx, admin.ID, user.ID, &negative, nil), domain.ErrInvalidAmount)
	require.ErrorIs(t, svc.admin.SetFlags(ctx, admin.ID, user.ID, nil, nil), domain.ErrInvalidRequest)
	require.ErrorIs(t, svc.admin.SetUserStatus(ctx, admin.ID, user.ID, "frozen"), domain.ErrInvalidRequest)
	require.ErrorIs(t, svc.admin.SetUserStatus(ctx, admin.ID, uuid.New(), domain.UserStatusActive), domain.ErrNotFound)

	logs, err := svc.admin.ListAuditLogs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 4)
}

func TestAdminService_CorrectEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupServices(t, db, true)
	ctx := context.Background()

	admin := testutil.SeedAdmin(t, db, "admin@test.com")
	user := testutil.SeedTestUser(t, db, "u@test.com", "User", "user_ce")
	acct := testutil.SeedTestAccount(t, db, user.ID, "500")
	tr := testutil.SeedPendingTransfer(t, db, user.ID, acct.ID, "100", "25")

	entries, err := repository.NewTransactionRepository(db).ListForAccount(ctx, acct.ID, 1, domain.SortDesc)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	original := entries[0]

	desc, recipient := "Transfer to Jane A. Roe", "Jane A. Roe"
	corrected, err := svc.admin.CorrectEntry(ctx, admin.ID, original.ID, CorrectEntryRequest{
		Description: &desc,
		Recipient:   &recipient,
	})
	require.NoError(t, err)
	assert.Equal(t, original.ID, corrected.ID)
	assert.Equal(t, desc, corrected.Description)
	assert.True(t, original.Amount.Equal(corrected.Amount))
	assert.Equal(t, original.ReferenceNumber, corrected.ReferenceNumber)
	assert.Equal(t, domain.EntryStatusPending, testutil.EntryStatusForTransfer(t, db, tr.ID))

	var raw []byte
	require.NoError(t, db.QueryRow(
		`SELECT details FROM admin_logs WHERE action = $1`, domain.AdminActionTransactionCorrect,
	).Scan(&raw))
	var details struct {
		Before map[string]any `json:"before"`
		After  map[string]any `json:"after"`
	}
	require.NoError(t, json.Unmarshal(raw, &details))
	assert.Equal(t, "Transfer to Jane Roe", details.Before["description"])
	assert.Equal(t, desc, details.After["description"])

	blank := " "
	_, err = svc.admin.CorrectEntry(ctx, admin.ID, original.ID, CorrectEntryRequest{Description: &blank})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	_, err = svc.admin.CorrectEntry(ctx, admin.ID, uuid.New(), CorrectEntryRequest{Description: &desc})
	require.ErrorIs(t, err, domain.ErrNotFound)
}
