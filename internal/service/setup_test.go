package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/josh-kwaku/heritage-ledger/internal/notify"
	"github.com/josh-kwaku/heritage-ledger/internal/refgen"
	"github.com/josh-kwaku/heritage-ledger/internal/repository"
)

type recordingAlerts struct {
	mu      sync.Mutex
	debits  []notify.Alert
	credits []notify.Alert
}

func (r *recordingAlerts) SendDebitAlert(_ context.Context, a notify.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debits = append(r.debits, a)
	return nil
}

func (r *recordingAlerts) SendCreditAlert(_ context.Context, a notify.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.credits = append(r.credits, a)
	return nil
}

type services struct {
	accounts *AccountService
	approval *ApprovalQueue
	admin    *AdminService
	alerts   *recordingAlerts
}

func setupServices(t *testing.T, db *sql.DB, refundFee bool) *services {
	t.Helper()

	store := repository.NewDB(db)
	accountRepo := repository.NewAccountRepository(db)
	entryRepo := repository.NewTransactionRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAdminLogRepository(db)
	refs := refgen.New()
	alerts := &recordingAlerts{}

	accounts := NewAccountService(store, accountRepo, entryRepo, refs)
	return &services{
		accounts: accounts,
		approval: NewApprovalQueue(store, repository.NewTransferRepository(db), accountRepo, entryRepo,
			userRepo, auditRepo, refs, alerts, refundFee),
		admin:  NewAdminService(store, accountRepo, accounts, entryRepo, userRepo, auditRepo, refs, alerts),
		alerts: alerts,
	}
}

func countAuditLogs(t *testing.T, db *sql.DB, action string) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM admin_logs WHERE action = $1`, action).Scan(&n); err != nil {
		t.Fatalf("count audit logs: %v", err)
	}
	return n
}
