package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/logging"
	"github.com/josh-kwaku/heritage-ledger/internal/notify"
	"github.com/josh-kwaku/heritage-ledger/internal/refgen"
)

type resolvedRecipient struct {
	user    *domain.User
	account *domain.Account
}

// SubmitTransfer authorizes and executes a transfer for actor. Internal
// transfers settle immediately; external ones are debited and held pending
// review.
func (s *Service) SubmitTransfer(ctx context.Context, actor uuid.UUID, req Request) (*Receipt, error) {
	if err := domain.ValidateAmount(req.Amount); err != nil {
		return nil, fmt.Errorf("SubmitTransfer: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("SubmitTransfer: %w", err)
	}

	authz, err := s.gate.Authorize(ctx, actor, req.Kind.FeeKind(), req.Credentials)
	if err != nil {
		return nil, fmt.Errorf("SubmitTransfer: %w", err)
	}

	funding, err := s.accounts.GetPrimaryActive(ctx, actor)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("SubmitTransfer: %w", domain.ErrNoActiveAccount)
		}
		return nil, fmt.Errorf("SubmitTransfer: %w", err)
	}

	fee := decimal.Zero
	if req.Kind.IsExternal() {
		fee = authz.Fee
	}
	total := req.Amount.Add(fee)
	if funding.Balance.LessThan(total) {
		return nil, fmt.Errorf("SubmitTransfer: %w", domain.ErrInsufficientFunds)
	}

	sender, err := s.users.GetByID(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("SubmitTransfer: %w", err)
	}

	if req.Kind == domain.TransferKindInternal {
		recipient, err := s.resolveRecipient(ctx, actor, req.Recipient.Identifier)
		if err != nil {
			return nil, fmt.Errorf("SubmitTransfer: %w", err)
		}
		receipt, err := s.executeInternal(ctx, sender, funding.ID, recipient, req.Amount)
		if err != nil {
			return nil, fmt.Errorf("SubmitTransfer: %w", err)
		}
		return receipt, nil
	}

	receipt, err := s.executeExternal(ctx, sender, funding.ID, req, fee)
	if err != nil {
		return nil, fmt.Errorf("SubmitTransfer: %w", err)
	}
	return receipt, nil
}

// resolveRecipient looks the identifier up as a username first, then as an
// account number.
func (s *Service) resolveRecipient(ctx context.Context, actor uuid.UUID, identifier string) (*resolvedRecipient, error) {
	identifier = strings.TrimSpace(identifier)

	user, err := s.users.GetByUsername(ctx, identifier)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("resolveRecipient: %w", err)
	}

	var direct *domain.Account
	if user == nil {
		direct, err = s.accounts.GetByAccountNumber(ctx, identifier)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("resolveRecipient: %w", domain.ErrRecipientNotFound)
			}
			return nil, fmt.Errorf("resolveRecipient: %w", err)
		}
		user, err = s.users.GetByID(ctx, direct.UserID)
		if err != nil {
			return nil, fmt.Errorf("resolveRecipient: %w", err)
		}
	}

	if user.ID == actor {
		return nil, fmt.Errorf("resolveRecipient: %w", domain.ErrSelfTransfer)
	}

	if direct != nil && direct.IsActive() {
		return &resolvedRecipient{user: user, account: direct}, nil
	}

	acct, err := s.accounts.GetPrimaryActive(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("resolveRecipient: %w", domain.ErrRecipientNoAccount)
		}
		return nil, fmt.Errorf("resolveRecipient: %w", err)
	}
	return &resolvedRecipient{user: user, account: acct}, nil
}

func (s *Service) executeInternal(
	ctx context.Context,
	sender *domain.User,
	fundingID uuid.UUID,
	recipient *resolvedRecipient,
	amount decimal.Decimal,
) (*Receipt, error) {
	ref, err := s.refs.Next(refgen.PrefixInternal)
	if err != nil {
		return nil, fmt.Errorf("executeInternal: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("executeInternal: %w", err)
	}
	defer tx.Rollback()

	locked, err := lockAccountsInOrder(ctx, tx, s.accounts, fundingID, recipient.account.ID)
	if err != nil {
		return nil, fmt.Errorf("executeInternal: %w", err)
	}
	if !locked[fundingID].IsActive() {
		return nil, fmt.Errorf("executeInternal: %w", domain.ErrNoActiveAccount)
	}
	if !locked[recipient.account.ID].IsActive() {
		return nil, fmt.Errorf("executeInternal: %w", domain.ErrRecipientNoAccount)
	}

	senderBalance, err := s.accounts.Debit(ctx, tx, fundingID, amount)
	if err != nil {
		return nil, fmt.Errorf("executeInternal: debit: %w", err)
	}
	recipientBalance, err := s.accounts.Credit(ctx, tx, recipient.account.ID, amount)
	if err != nil {
		return nil, fmt.Errorf("executeInternal: credit: %w", err)
	}

	now := time.Now().UTC()
	senderName, recipientName := sender.DisplayName(), recipient.user.DisplayName()
	currency := locked[fundingID].Currency

	debit := &domain.TransactionEntry{
		AccountID:       fundingID,
		Type:            domain.EntryTypeDebit,
		Amount:          amount,
		Currency:        currency,
		Description:     "Transfer to " + recipientName,
		Recipient:       &recipientName,
		Status:          domain.EntryStatusCompleted,
		ReferenceNumber: ref,
		CreatedAt:       now,
	}
	if _, err := s.entries.Append(ctx, tx, debit); err != nil {
		return nil, fmt.Errorf("executeInternal: debit entry: %w", err)
	}

	credit := &domain.TransactionEntry{
		AccountID:       recipient.account.ID,
		Type:            domain.EntryTypeCredit,
		Amount:          amount,
		Currency:        currency,
		Description:     "Transfer from " + senderName,
		Recipient:       &senderName,
		Status:          domain.EntryStatusCompleted,
		ReferenceNumber: ref,
		CreatedAt:       now,
	}
	if _, err := s.entries.Append(ctx, tx, credit); err != nil {
		return nil, fmt.Errorf("executeInternal: credit entry: %w", err)
	}

	if err := s.db.Commit(tx); err != nil {
		return nil, fmt.Errorf("executeInternal: %w", err)
	}

	logging.FromContext(ctx).Info("internal transfer completed",
		"reference_number", ref,
		"sender_account", fundingID,
		"recipient_account", recipient.account.ID,
		"amount", amount,
	)

	s.sendAlert(ctx, s.alerts.SendDebitAlert, sender, recipientName, debit, senderBalance)
	s.sendAlert(ctx, s.alerts.SendCreditAlert, recipient.user, senderName, credit, recipientBalance)

	return &Receipt{
		Reference:  ref,
		Amount:     amount,
		Fee:        decimal.Zero,
		Total:      amount,
		NewBalance: senderBalance,
		Currency:   currency,
		Status:     domain.TransferStatusCompleted,
		Timestamp:  now,
	}, nil
}

func (s *Service) executeExternal(
	ctx context.Context,
	sender *domain.User,
	fundingID uuid.UUID,
	req Request,
	fee decimal.Decimal,
) (*Receipt, error) {
	ref, err := s.refs.Next(refgen.PrefixExternal)
	if err != nil {
		return nil, fmt.Errorf("executeExternal: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("executeExternal: %w", err)
	}
	defer tx.Rollback()

	locked, err := lockAccountsInOrder(ctx, tx, s.accounts, fundingID)
	if err != nil {
		return nil, fmt.Errorf("executeExternal: %w", err)
	}
	funding := locked[fundingID]
	if !funding.IsActive() {
		return nil, fmt.Errorf("executeExternal: %w", domain.ErrNoActiveAccount)
	}

	total := req.Amount.Add(fee)
	balance, err := s.accounts.Debit(ctx, tx, fundingID, total)
	if err != nil {
		return nil, fmt.Errorf("executeExternal: debit: %w", err)
	}

	now := time.Now().UTC()
	rc := req.Recipient
	t := &domain.Transfer{
		ID:                     uuid.New(),
		UserID:                 sender.ID,
		SourceAccountID:        fundingID,
		RecipientName:          strings.TrimSpace(rc.Name),
		RecipientAccountNumber: strings.TrimSpace(rc.AccountNumber),
		RecipientBank:          strings.TrimSpace(rc.Bank),
		RecipientCountry:       optional(rc.Country),
		RoutingCode:            optional(rc.RoutingCode),
		Amount:                 req.Amount,
		Fee:                    fee,
		Currency:               funding.Currency,
		TransferType:           req.Kind.TransferType(),
		ReferenceNumber:        ref,
		Status:                 domain.TransferStatusPending,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := s.transfers.Create(ctx, tx, t); err != nil {
		return nil, fmt.Errorf("executeExternal: %w", err)
	}

	entry := &domain.TransactionEntry{
		AccountID:       fundingID,
		TransferID:      &t.ID,
		Type:            domain.EntryTypeTransfer,
		Amount:          req.Amount,
		Currency:        funding.Currency,
		Description:     fmt.Sprintf("Transfer to %s (Fee: $%s)", t.RecipientName, fee.StringFixed(2)),
		Recipient:       &t.RecipientName,
		Status:          domain.EntryStatusPending,
		ReferenceNumber: ref,
		CreatedAt:       now,
	}
	if _, err := s.entries.Append(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("executeExternal: entry: %w", err)
	}

	if err := s.db.Commit(tx); err != nil {
		return nil, fmt.Errorf("executeExternal: %w", err)
	}

	logging.FromContext(ctx).Info("external transfer submitted for review",
		"transfer_id", t.ID,
		"reference_number", ref,
		"transfer_type", t.TransferType,
		"amount", req.Amount,
		"fee", fee,
	)

	debited := *entry
	debited.Amount = total
	s.sendAlert(ctx, s.alerts.SendDebitAlert, sender, t.RecipientName, &debited, balance)

	return &Receipt{
		Reference:  ref,
		Amount:     req.Amount,
		Fee:        fee,
		Total:      total,
		NewBalance: balance,
		Currency:   funding.Currency,
		Status:     domain.TransferStatusPending,
		Timestamp:  now,
		TransferID: &t.ID,
	}, nil
}

func (s *Service) sendAlert(
	ctx context.Context,
	send func(context.Context, notify.Alert) error,
	to *domain.User,
	counterparty string,
	entry *domain.TransactionEntry,
	balance decimal.Decimal,
) {
	err := send(ctx, notify.Alert{
		Email:          to.Email,
		Name:           to.DisplayName(),
		Counterparty:   counterparty,
		Amount:         entry.Amount,
		Currency:       string(entry.Currency),
		CurrentBalance: balance,
		TransactionID:  entry.ReferenceNumber,
		Timestamp:      entry.CreatedAt,
	})
	if err != nil {
		logging.FromContext(ctx).Warn("transfer alert failed",
			"reference_number", entry.ReferenceNumber,
			"user_id", to.ID,
			"error", err,
		)
	}
}
