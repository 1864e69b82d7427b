package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/logging"
	"github.com/josh-kwaku/heritage-ledger/internal/refgen"
)

// ApprovalQueue settles external transfers held for review. Funds were
// debited at submission, so approval moves no money and rejection refunds.
type ApprovalQueue struct {
	db        txRunner
	transfers transferRepository
	accounts  accountRepository
	entries   entryRepository
	users     userRepository
	audit     adminLogRepository
	refs      referenceSource
	alerts    alertSender
	refundFee bool
}

func NewApprovalQueue(
	db txRunner,
	transfers transferRepository,
	accounts accountRepository,
	entries entryRepository,
	users userRepository,
	audit adminLogRepository,
	refs referenceSource,
	alerts alertSender,
	refundFee bool,
) *ApprovalQueue {
	return &ApprovalQueue{
		db:        db,
		transfers: transfers,
		accounts:  accounts,
		entries:   entries,
		users:     users,
		audit:     audit,
		refs:      refs,
		alerts:    alerts,
		refundFee: refundFee,
	}
}

func (q *ApprovalQueue) List(ctx context.Context) ([]domain.Transfer, error) {
	pending, err := q.transfers.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return pending, nil
}

func (q *ApprovalQueue) Approve(ctx context.Context, transferID, reviewerID uuid.UUID) (*domain.Transfer, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}
	defer tx.Rollback()

	t, err := q.transfers.GetForUpdate(ctx, tx, transferID)
	if err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}
	if t.Status != domain.TransferStatusPending {
		return nil, fmt.Errorf("Approve: %w", domain.ErrTransferNotPending)
	}

	now := time.Now().UTC()
	if err := q.transfers.Decide(ctx, tx, t.ID, domain.TransferStatusCompleted, reviewerID, nil, now); err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}
	if _, err := q.entries.SettleTransferEntries(ctx, tx, t.ID, domain.EntryStatusCompleted); err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}

	err = writeAuditLog(ctx, tx, q.audit, reviewerID, domain.AdminActionTransferApprove, &t.UserID, &t.ID, map[string]any{
		"reference_number": t.ReferenceNumber,
		"amount":           t.Amount,
		"fee":              t.Fee,
	})
	if err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}

	if err := q.db.Commit(tx); err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}

	t.Status = domain.TransferStatusCompleted
	t.ApprovedBy = &reviewerID
	t.DecidedAt = &now
	t.UpdatedAt = now

	logging.FromContext(ctx).Info("transfer approved",
		"transfer_id", t.ID,
		"reference_number", t.ReferenceNumber,
		"reviewer_id", reviewerID,
	)
	return t, nil
}

func (q *ApprovalQueue) Reject(ctx context.Context, transferID, reviewerID uuid.UUID, reason string) (*domain.Transfer, error) {
	log := logging.FromContext(ctx)

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("Reject: %w", domain.ErrReasonRequired)
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}
	defer tx.Rollback()

	t, err := q.transfers.GetForUpdate(ctx, tx, transferID)
	if err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}
	if t.Status != domain.TransferStatusPending {
		return nil, fmt.Errorf("Reject: %w", domain.ErrTransferNotPending)
	}

	now := time.Now().UTC()
	if err := q.transfers.Decide(ctx, tx, t.ID, domain.TransferStatusFailed, reviewerID, &reason, now); err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}
	if _, err := q.entries.SettleTransferEntries(ctx, tx, t.ID, domain.EntryStatusFailed); err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}

	locked, err := lockAccountsInOrder(ctx, tx, q.accounts, t.SourceAccountID)
	if err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}

	refund := t.Amount
	if q.refundFee {
		refund = t.Total()
	}

	ref, err := nextReference(q.refs, refgen.PrefixRefund)
	if err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}

	applied, err := applyEntries(ctx, tx, q.accounts, q.entries, ref, []reversalEntry{{
		account:     locked[t.SourceAccountID],
		entryType:   domain.EntryTypeCredit,
		amount:      refund,
		description: "Refund: transfer to " + t.RecipientName + " declined",
		recipient:   &t.RecipientName,
		transferID:  &t.ID,
	}}, now)
	if err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}

	err = writeAuditLog(ctx, tx, q.audit, reviewerID, domain.AdminActionTransferReject, &t.UserID, &t.ID, map[string]any{
		"reference_number": t.ReferenceNumber,
		"reason":           reason,
		"refunded":         refund,
		"refund_reference": ref,
	})
	if err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}

	if err := q.db.Commit(tx); err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}

	t.Status = domain.TransferStatusFailed
	t.ApprovedBy = &reviewerID
	t.RejectionReason = &reason
	t.DecidedAt = &now
	t.UpdatedAt = now

	log.Info("transfer rejected and refunded",
		"transfer_id", t.ID,
		"reference_number", t.ReferenceNumber,
		"reviewer_id", reviewerID,
		"refunded", refund,
	)

	q.notifyRefund(ctx, t, applied[0])
	return t, nil
}

func (q *ApprovalQueue) notifyRefund(ctx context.Context, t *domain.Transfer, applied appliedEntry) {
	log := logging.FromContext(ctx)

	owner, err := q.users.GetByID(ctx, t.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn("refund alert skipped", "transfer_id", t.ID, "error", err)
		}
		return
	}
	if err := q.alerts.SendCreditAlert(ctx, alertFor(owner, "Heritage Bank refund", applied)); err != nil {
		log.Warn("refund alert failed", "transfer_id", t.ID, "error", err)
	}
}
