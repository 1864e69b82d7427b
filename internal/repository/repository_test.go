package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/repository"
	"github.com/josh-kwaku/heritage-ledger/internal/testutil"
)

func TestAccountRepository_GuardedDebit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	store := repository.NewDB(db)
	accounts := repository.NewAccountRepository(db)

	user := testutil.SeedTestUser(t, db, "debit@test.com", "Debit", "debit")
	acct := testutil.SeedTestAccount(t, db, user.ID, "50.00")

	tests := []struct {
		name        string
		amount      string
		wantErr     error
		wantBalance string
	}{
		{name: "covered", amount: "20.25", wantBalance: "29.75"},
		{name: "exact", amount: "29.75", wantBalance: "0"},
		{name: "overdraw", amount: "0.01", wantErr: domain.ErrInsufficientFunds, wantBalance: "0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tx, err := store.BeginTx(ctx, nil)
			require.NoError(t, err)
			defer tx.Rollback()

			_, err = accounts.GetForUpdate(ctx, tx, acct.ID)
			require.NoError(t, err)

			_, err = accounts.Debit(ctx, tx, acct.ID, decimal.RequireFromString(tc.amount))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
				require.NoError(t, store.Commit(tx))
			}

			got := testutil.GetAccountBalance(t, db, acct.ID)
			assert.True(t, decimal.RequireFromString(tc.wantBalance).Equal(got), "balance %s", got)
		})
	}
}

func TestAccountRepository_PrimaryActiveAndConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	accounts := repository.NewAccountRepository(db)

	user := testutil.SeedTestUser(t, db, "primary@test.com", "Primary", "primary")
	small := testutil.SeedTestAccount(t, db, user.ID, "10")
	big := testutil.SeedTestAccount(t, db, user.ID, "900")

	got, err := accounts.GetPrimaryActive(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, big.ID, got.ID)

	testutil.SetAccountStatus(t, db, big.ID, domain.AccountStatusBlocked)
	got, err = accounts.GetPrimaryActive(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, small.ID, got.ID, "blocked accounts never fund transfers")

	err = accounts.Create(ctx, &domain.Account{
		ID: uuid.New(), UserID: user.ID, AccountType: domain.AccountTypeChecking,
		AccountNumber: small.AccountNumber, Currency: domain.CurrencyUSD,
		Status: domain.AccountStatusActive, CreatedAt: time.Now().UTC(),
	})
	require.ErrorIs(t, err, domain.ErrAccountNumberConflict)

	_, err = accounts.GetByAccountNumber(ctx, "0000000000")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransferRepository_DecideOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	store := repository.NewDB(db)
	transfers := repository.NewTransferRepository(db)
	entries := repository.NewTransactionRepository(db)

	admin := testutil.SeedAdmin(t, db, "admin@test.com")
	user := testutil.SeedTestUser(t, db, "decide@test.com", "Decide", "decide")
	acct := testutil.SeedTestAccount(t, db, user.ID, "100")
	tr := testutil.SeedPendingTransfer(t, db, user.ID, acct.ID, "40", "25")

	tx, err := store.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, transfers.Decide(ctx, tx, tr.ID, domain.TransferStatusCompleted, admin.ID, nil, time.Now().UTC()))
	n, err := entries.SettleTransferEntries(ctx, tx, tr.ID, domain.EntryStatusCompleted)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	require.NoError(t, store.Commit(tx))

	tx, err = store.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()
	reason := "too late"
	err = transfers.Decide(ctx, tx, tr.ID, domain.TransferStatusFailed, admin.ID, &reason, time.Now().UTC())
	require.ErrorIs(t, err, domain.ErrTransferNotPending)

	n, err = entries.SettleTransferEntries(ctx, tx, tr.ID, domain.EntryStatusFailed)
	require.NoError(t, err)
	assert.Zero(t, n, "settled entries are immutable")

	got, err := transfers.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusCompleted, got.Status)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, admin.ID, *got.ApprovedBy)
}

func TestTransactionRepository_ListForAccountOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	store := repository.NewDB(db)
	entries := repository.NewTransactionRepository(db)

	user := testutil.SeedTestUser(t, db, "history@test.com", "History", "history")
	acct := testutil.SeedTestAccount(t, db, user.ID, "0")

	base := time.Now().UTC().Add(-time.Hour)
	tx, err := store.BeginTx(ctx, nil)
	require.NoError(t, err)
	for i := range 3 {
		_, err := entries.Append(ctx, tx, &domain.TransactionEntry{
			AccountID:       acct.ID,
			Type:            domain.EntryTypeCredit,
			Amount:          decimal.NewFromInt(int64(i + 1)),
			Currency:        domain.CurrencyUSD,
			Description:     "Account credit",
			Status:          domain.EntryStatusCompleted,
			ReferenceNumber: "ADM" + uuid.NewString()[:8],
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	require.NoError(t, store.Commit(tx))

	desc, err := entries.ListForAccount(ctx, acct.ID, 2, domain.SortDesc)
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.True(t, decimal.NewFromInt(3).Equal(desc[0].Amount))

	asc, err := entries.ListForAccount(ctx, acct.ID, 10, domain.SortAsc)
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.True(t, decimal.NewFromInt(1).Equal(asc[0].Amount))
}

func TestIdempotencyRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	records := repository.NewIdempotencyRepository(db)

	user := testutil.SeedTestUser(t, db, "idem@test.com", "Idem", "idem")
	now := time.Now().UTC()

	live := &repository.IdempotencyRecord{
		Key: "live", UserID: user.ID, RequestHash: "h1", StatusCode: 201,
		ResponseBody: []byte(`{"success":true}`), CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	stale := &repository.IdempotencyRecord{
		Key: "stale", UserID: user.ID, RequestHash: "h2", StatusCode: 201,
		ResponseBody: []byte(`{}`), CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}
	require.NoError(t, records.Save(ctx, live))
	require.NoError(t, records.Save(ctx, stale))

	got, err := records.Lookup(ctx, "live", user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "h1", got.RequestHash)
	assert.JSONEq(t, `{"success":true}`, string(got.ResponseBody))

	got, err = records.Lookup(ctx, "stale", user.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "expired records are invisible")

	got, err = records.Lookup(ctx, "live", uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got, "keys are scoped per user")

	purged, err := records.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)
}
