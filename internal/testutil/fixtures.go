package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
)

const TestPassword = "password123"

func SeedTestUser(t *testing.T, db *sql.DB, email, name, username string) *domain.User {
	t.Helper()
	return seedUser(t, db, email, name, username, domain.RoleUser)
}

func SeedAdmin(t *testing.T, db *sql.DB, email string) *domain.User {
	t.Helper()
	return seedUser(t, db, email, "Admin", "", domain.RoleAdmin)
}

func seedUser(t *testing.T, db *sql.DB, email, name, username string, role domain.Role) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var uname *string
	if username != "" {
		uname = &username
	}

	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		Username:     uname,
		PasswordHash: string(hash),
		Role:         role,
		Status:       domain.UserStatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	// Seeded users skip the authorization code unless a test opts in.
	_, err = db.Exec(
		`INSERT INTO users (id, email, name, username, password_hash, role, status, auth_code_required, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)`,
		u.ID, u.Email, u.Name, u.Username, u.PasswordHash, u.Role, u.Status, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func SetPin(t *testing.T, db *sql.DB, userID uuid.UUID, pin string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	if _, err := db.Exec(`UPDATE users SET pin_hash = $1 WHERE id = $2`, string(hash), userID); err != nil {
		t.Fatalf("set pin for %s: %v", userID, err)
	}
}

func SetUserStatus(t *testing.T, db *sql.DB, userID uuid.UUID, status domain.UserStatus) {
	t.Helper()
	if _, err := db.Exec(`UPDATE users SET status = $1 WHERE id = $2`, status, userID); err != nil {
		t.Fatalf("set status for %s: %v", userID, err)
	}
}

func SetBankFee(t *testing.T, db *sql.DB, userID uuid.UUID, fee string) {
	t.Helper()
	if _, err := db.Exec(`UPDATE users SET bank_transfer_fee = $1 WHERE id = $2`, fee, userID); err != nil {
		t.Fatalf("set bank fee for %s: %v", userID, err)
	}
}

func SetFlags(t *testing.T, db *sql.DB, userID uuid.UUID, authCodeRequired, businessAccountRequired bool) {
	t.Helper()
	_, err := db.Exec(
		`UPDATE users SET auth_code_required = $1, business_account_required = $2 WHERE id = $3`,
		authCodeRequired, businessAccountRequired, userID,
	)
	if err != nil {
		t.Fatalf("set flags for %s: %v", userID, err)
	}
}

func SeedTestAccount(t *testing.T, db *sql.DB, userID uuid.UUID, balance string) *domain.Account {
	t.Helper()

	a := &domain.Account{
		ID:            uuid.New(),
		UserID:        userID,
		AccountType:   domain.AccountTypeChecking,
		AccountNumber: uuid.NewString()[:8] + "00",
		Balance:       decimal.RequireFromString(balance),
		Currency:      domain.CurrencyUSD,
		Status:        domain.AccountStatusActive,
		CreatedAt:     time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO accounts (id, user_id, account_type, account_number, balance, currency, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.UserID, a.AccountType, a.AccountNumber, a.Balance, a.Currency, a.Status, a.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed account for %s: %v", userID, err)
	}
	return a
}

func SetAccountStatus(t *testing.T, db *sql.DB, accountID uuid.UUID, status domain.AccountStatus) {
	t.Helper()
	if _, err := db.Exec(`UPDATE accounts SET status = $1 WHERE id = $2`, status, accountID); err != nil {
		t.Fatalf("set account status %s: %v", accountID, err)
	}
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	if err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance); err != nil {
		t.Fatalf("get account balance %s: %v", accountID, err)
	}
	return balance
}

func CountEntries(t *testing.T, db *sql.DB, accountID uuid.UUID) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&count); err != nil {
		t.Fatalf("count entries for %s: %v", accountID, err)
	}
	return count
}

func CountTransfers(t *testing.T, db *sql.DB, userID uuid.UUID) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM transfers WHERE user_id = $1`, userID).Scan(&count); err != nil {
		t.Fatalf("count transfers for %s: %v", userID, err)
	}
	return count
}

// SeedPendingTransfer records an external transfer awaiting review the way a
// submission leaves it: total debited, transfer and entry pending.
func SeedPendingTransfer(t *testing.T, db *sql.DB, userID, accountID uuid.UUID, amount, fee string) *domain.Transfer {
	t.Helper()

	now := time.Now().UTC()
	tr := &domain.Transfer{
		ID:                     uuid.New(),
		UserID:                 userID,
		SourceAccountID:        accountID,
		RecipientName:          "Jane Roe",
		RecipientAccountNumber: "0011223344",
		RecipientBank:          "First Federal",
		Amount:                 decimal.RequireFromString(amount),
		Fee:                    decimal.RequireFromString(fee),
		Currency:               domain.CurrencyUSD,
		TransferType:           domain.TransferTypeLocal,
		ReferenceNumber:        "HER" + uuid.NewString()[:12],
		Status:                 domain.TransferStatusPending,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE accounts SET balance = balance - $1 WHERE id = $2`, tr.Total(), accountID); err != nil {
		t.Fatalf("debit %s: %v", accountID, err)
	}
	_, err = tx.Exec(
		`INSERT INTO transfers (id, user_id, source_account_id, recipient_name, recipient_account_number,
			recipient_bank, amount, fee, currency, transfer_type, reference_number, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		tr.ID, tr.UserID, tr.SourceAccountID, tr.RecipientName, tr.RecipientAccountNumber,
		tr.RecipientBank, tr.Amount, tr.Fee, tr.Currency, tr.TransferType, tr.ReferenceNumber, tr.Status,
		tr.CreatedAt, tr.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed transfer: %v", err)
	}
	_, err = tx.Exec(
		`INSERT INTO transactions (id, account_id, transfer_id, transaction_type, amount, currency,
			description, recipient, status, reference_number, created_at)
		 VALUES ($1, $2, $3, 'transfer', $4, $5, $6, $7, 'pending', $8, $9)`,
		uuid.New(), accountID, tr.ID, tr.Amount, tr.Currency,
		"Transfer to "+tr.RecipientName, tr.RecipientName, tr.ReferenceNumber, now,
	)
	if err != nil {
		t.Fatalf("seed transfer entry: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return tr
}

func EntryStatusForTransfer(t *testing.T, db *sql.DB, transferID uuid.UUID) domain.EntryStatus {
	t.Helper()

	var status domain.EntryStatus
	err := db.QueryRow(
		`SELECT status FROM transactions WHERE transfer_id = $1 AND transaction_type = 'transfer'`, transferID,
	).Scan(&status)
	if err != nil {
		t.Fatalf("entry status for %s: %v", transferID, err)
	}
	return status
}
