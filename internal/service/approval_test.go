package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/repository"
	"github.com/josh-kwaku/heritage-ledger/internal/testutil"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestApprovalQueue_ListNewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupServices(t, db, true)

	user := testutil.SeedTestUser(t, db, "u@test.com", "User", "user_list")
	acct := testutil.SeedTestAccount(t, db, user.ID, "1000")
	first := testutil.SeedPendingTransfer(t, db, user.ID, acct.ID, "10", "25")
	second := testutil.SeedPendingTransfer(t, db, user.ID, acct.ID, "20", "25")

	pending, err := svc.approval.List(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, second.ID, pending[0].ID)
	assert.Equal(t, first.ID, pending[1].ID)
}

func TestApprovalQueue_Approve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupServices(t, db, true)
	ctx := context.Background()

	admin := testutil.SeedAdmin(t, db, "admin@test.com")
	user := testutil.SeedTestUser(t, db, "u@test.com", "User", "user_ap")
	acct := testutil.SeedTestAccount(t, db, user.ID, "500")
	tr := testutil.SeedPendingTransfer(t, db, user.ID, acct.ID, "100", "25")

	approved, err := svc.approval.Approve(ctx, tr.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusCompleted, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, admin.ID, *approved.ApprovedBy)

	stored, err := repository.NewTransferRepository(db).GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusCompleted, stored.Status)
	assert.NotNil(t, stored.DecidedAt)

	assert.Equal(t, domain.EntryStatusCompleted, testutil.EntryStatusForTransfer(t, db, tr.ID))
	assert.True(t, dec("375").Equal(testutil.GetAccountBalance(t, db, acct.ID)), "approval moves no money")
	assert.Equal(t, 1, countAuditLogs(t, db, string(domain.AdminActionTransferApprove)))

	_, err = svc.approval.Approve(ctx, tr.ID, admin.ID)
	require.ErrorIs(t, err, domain.ErrTransferNotPending)
	_, err = svc.approval.Reject(ctx, tr.ID, admin.ID, "late")
	require.ErrorIs(t, err, domain.ErrTransferNotPending)
}

func TestApprovalQueue_Reject(t *testing.T) {
	tests := []struct {
		name        string
		refundFee   bool
		wantBalance string
		wantRefund  string
	}{
		{name: "refunds amount and fee", refundFee: true, wantBalance: "500", wantRefund: "125"},
		{name: "keeps fee when policy off", refundFee: false, wantBalance: "475", wantRefund: "100"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			svc := setupServices(t, db, tc.refundFee)
			ctx := context.Background()

			admin := testutil.SeedAdmin(t, db, "admin@test.com")
			user := testutil.SeedTestUser(t, db, "u@test.com", "User", "user_rj")
			acct := testutil.SeedTestAccount(t, db, user.ID, "500")
			tr := testutil.SeedPendingTransfer(t, db, user.ID, acct.ID, "100", "25")

			rejected, err := svc.approval.Reject(ctx, tr.ID, admin.ID, "  beneficiary details mismatch ")
			require.NoError(t, err)
			assert.Equal(t, domain.TransferStatusFailed, rejected.Status)
			require.NotNil(t, rejected.RejectionReason)
			assert.Equal(t, "beneficiary details mismatch", *rejected.RejectionReason)

			assert.True(t, dec(tc.wantBalance).Equal(testutil.GetAccountBalance(t, db, acct.ID)))
			assert.Equal(t, domain.EntryStatusFailed, testutil.EntryStatusForTransfer(t, db, tr.ID))

			entries, err := repository.NewTransactionRepository(db).ListForAccount(ctx, acct.ID, 10, domain.SortDesc)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			refund := entries[0]
			assert.Equal(t, domain.EntryTypeCredit, refund.Type)
			assert.Equal(t, domain.EntryStatusCompleted, refund.Status)
			assert.True(t, dec(tc.wantRefund).Equal(refund.Amount))
			assert.Regexp(t, `^REF\d{13}[A-Z0-9]{6}$`, refund.ReferenceNumber)

			require.Len(t, svc.alerts.credits, 1)
			assert.Equal(t, "u@test.com", svc.alerts.credits[0].Email)
			assert.Equal(t, 1, countAuditLogs(t, db, string(domain.AdminActionTransferReject)))
		})
	}
}

func TestApprovalQueue_RejectRequiresReason(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupServices(t, db, true)

	admin := testutil.SeedAdmin(t, db, "admin@test.com")
	user := testutil.SeedTestUser(t, db, "u@test.com", "User", "user_rr")
	acct := testutil.SeedTestAccount(t, db, user.ID, "500")
	tr := testutil.SeedPendingTransfer(t, db, user.ID, acct.ID, "100", "25")

	_, err := svc.approval.Reject(context.Background(), tr.ID, admin.ID, "   ")
	require.ErrorIs(t, err, domain.ErrReasonRequired)
	assert.Equal(t, domain.EntryStatusPending, testutil.EntryStatusForTransfer(t, db, tr.ID))
}

func TestApprovalQueue_UnknownTransfer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupServices(t, db, true)
	admin := testutil.SeedAdmin(t, db, "admin@test.com")

	_, err := svc.approval.Approve(context.Background(), uuid.New(), admin.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApprovalQueue_ConcurrentDecisions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupServices(t, db, true)
	ctx := context.Background()

	admin := testutil.SeedAdmin(t, db, "admin@test.com")
	user := testutil.SeedTestUser(t, db, "u@test.com", "User", "user_cc")
	acct := testutil.SeedTestAccount(t, db, user.ID, "500")
	tr := testutil.SeedPendingTransfer(t, db, user.ID, acct.ID, "100", "25")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.approval.Approve(ctx, tr.ID, admin.ID)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = svc.approval.Reject(ctx, tr.ID, admin.ID, "duplicate")
	}()
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, domain.ErrTransferNotPending):
			losses++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)
}
