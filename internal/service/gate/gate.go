package gate

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/logging"
	"github.com/josh-kwaku/heritage-ledger/internal/notify"
)

const (
	pinLength      = 4
	authCodeLength = 6
)

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.AuthorizationProfile, error)
	SetPinHash(ctx context.Context, userID uuid.UUID, hash string) error
}

type codeStore interface {
	Save(ctx context.Context, userID uuid.UUID, digest string) error
	Consume(ctx context.Context, userID uuid.UUID) (string, bool, error)
	TTL() time.Duration
}

type codeNotifier interface {
	SendAuthCode(ctx context.Context, code notify.AuthCode) error
}

type digitSource interface {
	Digits(n int) (string, error)
}

// FeeDefaults apply when a user has no per-user fee configured.
type FeeDefaults struct {
	Bank   decimal.Decimal
	Crypto decimal.Decimal
}

type Credentials struct {
	Pin             string
	FeeAcknowledged bool
	AuthCode        string
}

type Authorization struct {
	Fee          decimal.Decimal
	AuthCodeUsed bool
}

type Quote struct {
	Fee              decimal.Decimal
	AuthCodeRequired bool
	PinConfigured    bool
}

type Gate struct {
	users    userRepo
	codes    codeStore
	notifier codeNotifier
	digits   digitSource
	defaults FeeDefaults
	pinCost  int
	now      func() time.Time
}

func New(users userRepo, codes codeStore, notifier codeNotifier, digits digitSource, defaults FeeDefaults) *Gate {
	return &Gate{
		users:    users,
		codes:    codes,
		notifier: notifier,
		digits:   digits,
		defaults: defaults,
		pinCost:  bcrypt.DefaultCost,
		now:      time.Now,
	}
}

func (g *Gate) SetupPin(ctx context.Context, userID uuid.UUID, pin, confirm string) error {
	if !validPin(pin) {
		return fmt.Errorf("SetupPin: %w", domain.ErrInvalidPin)
	}
	if pin != confirm {
		return fmt.Errorf("SetupPin: %w", domain.ErrPinMismatch)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), g.pinCost)
	if err != nil {
		return fmt.Errorf("SetupPin: hash: %w", err)
	}
	if err := g.users.SetPinHash(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("SetupPin: %w", err)
	}

	logging.FromContext(ctx).Info("transfer pin configured", "user_id", userID)
	return nil
}

func (g *Gate) VerifyPin(ctx context.Context, userID uuid.UUID, pin string) error {
	profile, err := g.users.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("VerifyPin: %w", err)
	}
	if err := checkPin(profile, pin); err != nil {
		return fmt.Errorf("VerifyPin: %w", err)
	}
	return nil
}

func (g *Gate) QuoteFee(ctx context.Context, userID uuid.UUID, kind domain.FeeKind) (decimal.Decimal, error) {
	q, err := g.Quote(ctx, userID, kind)
	if err != nil {
		return decimal.Zero, fmt.Errorf("QuoteFee: %w", err)
	}
	return q.Fee, nil
}

// Quote reports what a transfer of the given fee kind will cost the user and
// which credentials it will ask for.
func (g *Gate) Quote(ctx context.Context, userID uuid.UUID, kind domain.FeeKind) (*Quote, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("Quote: fee kind %q: %w", kind, domain.ErrInvalidRequest)
	}
	profile, err := g.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Quote: %w", err)
	}
	return &Quote{
		Fee:              g.feeFor(profile, kind),
		AuthCodeRequired: profile.AuthCodeRequired,
		PinConfigured:    profile.PinHash != nil,
	}, nil
}

// IssueAuthCode replaces any outstanding code for the user and delivers the
// new one out of band. Only the digest is stored.
func (g *Gate) IssueAuthCode(ctx context.Context, userID uuid.UUID) (time.Time, error) {
	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return time.Time{}, fmt.Errorf("IssueAuthCode: %w", err)
	}

	code, err := g.digits.Digits(authCodeLength)
	if err != nil {
		return time.Time{}, fmt.Errorf("IssueAuthCode: %w", err)
	}

	if err := g.codes.Save(ctx, userID, digest(code)); err != nil {
		return time.Time{}, fmt.Errorf("IssueAuthCode: %w", err)
	}

	expiresAt := g.now().Add(g.codes.TTL()).UTC()
	err = g.notifier.SendAuthCode(ctx, notify.AuthCode{
		Email:     user.Email,
		Name:      user.DisplayName(),
		Code:      code,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("IssueAuthCode: deliver: %w", err)
	}

	logging.FromContext(ctx).Info("authorization code issued", "user_id", userID, "expires_at", expiresAt)
	return expiresAt, nil
}

// VerifyAuthCode consumes the outstanding code whether or not it matches. An
// empty submission is rejected without touching the stored code.
func (g *Gate) VerifyAuthCode(ctx context.Context, userID uuid.UUID, code string) error {
	if code == "" {
		return fmt.Errorf("VerifyAuthCode: %w", domain.ErrInvalidAuthCode)
	}
	stored, found, err := g.codes.Consume(ctx, userID)
	if err != nil {
		return fmt.Errorf("VerifyAuthCode: %w", err)
	}
	if !found {
		return fmt.Errorf("VerifyAuthCode: %w", domain.ErrInvalidAuthCode)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(digest(code))) != 1 {
		return fmt.Errorf("VerifyAuthCode: %w", domain.ErrInvalidAuthCode)
	}
	return nil
}

func (g *Gate) CheckBusinessUpgradeHold(ctx context.Context, userID uuid.UUID) error {
	profile, err := g.users.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("CheckBusinessUpgradeHold: %w", err)
	}
	if err := checkHold(profile); err != nil {
		return fmt.Errorf("CheckBusinessUpgradeHold: %w", err)
	}
	return nil
}

// Authorize walks one attempt through hold check, PIN, fee acknowledgement
// and, when the profile requires it, the one-time code. The profile is read
// once and the same checks back CheckBusinessUpgradeHold and VerifyPin.
//
// A code accepted here is spent even if the transfer later fails on funds or
// recipient lookup; the caller has to request a new one.
func (g *Gate) Authorize(ctx context.Context, userID uuid.UUID, kind domain.FeeKind, creds Credentials) (*Authorization, error) {
	log := logging.FromContext(ctx)

	profile, err := g.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Authorize: %w", err)
	}

	a := newAttempt(userID, kind)
	a.Fee = g.feeFor(profile, kind)

	if err := checkHold(profile); err != nil {
		return nil, g.rejected(ctx, a, err)
	}

	if err := checkPin(profile, creds.Pin); err != nil {
		return nil, g.rejected(ctx, a, err)
	}
	if err := a.advance(StateAwaitingFeeAck); err != nil {
		return nil, fmt.Errorf("Authorize: %w", err)
	}

	if a.Fee.IsPositive() && !creds.FeeAcknowledged {
		return nil, g.rejected(ctx, a, domain.ErrFeeNotAcknowledged)
	}

	if profile.AuthCodeRequired {
		if err := a.advance(StateAwaitingAuthCode); err != nil {
			return nil, fmt.Errorf("Authorize: %w", err)
		}
		if err := g.VerifyAuthCode(ctx, userID, creds.AuthCode); err != nil {
			if errors.Is(err, domain.ErrInvalidAuthCode) {
				return nil, g.rejected(ctx, a, domain.ErrInvalidAuthCode)
			}
			return nil, fmt.Errorf("Authorize: %w", err)
		}
	}

	if err := a.advance(StateAuthorized); err != nil {
		return nil, fmt.Errorf("Authorize: %w", err)
	}

	log.Debug("transfer authorized", "user_id", userID, "fee_kind", kind, "fee", a.Fee)
	return &Authorization{Fee: a.Fee, AuthCodeUsed: profile.AuthCodeRequired}, nil
}

func (g *Gate) rejected(ctx context.Context, a *Attempt, reason error) error {
	from := a.State()
	if err := a.reject(reason); err != nil && !errors.Is(err, reason) {
		return fmt.Errorf("Authorize: %w", err)
	}
	logging.FromContext(ctx).Info("transfer authorization rejected",
		"user_id", a.UserID,
		"state", from,
		"reason", reason,
	)
	return fmt.Errorf("Authorize: %w", reason)
}

func (g *Gate) feeFor(profile *domain.AuthorizationProfile, kind domain.FeeKind) decimal.Decimal {
	switch kind {
	case domain.FeeKindBank:
		if profile.BankTransferFee != nil {
			return *profile.BankTransferFee
		}
		return g.defaults.Bank
	case domain.FeeKindCrypto:
		if profile.CryptoTransferFee != nil {
			return *profile.CryptoTransferFee
		}
		return g.defaults.Crypto
	default:
		return decimal.Zero
	}
}

// checkPin verifies in the order: configured, matches, account not suspended.
func checkHold(profile *domain.AuthorizationProfile) error {
	if profile.BusinessAccountRequired {
		return domain.ErrAccountOnHold
	}
	return nil
}

func checkPin(profile *domain.AuthorizationProfile, pin string) error {
	if profile.PinHash == nil || *profile.PinHash == "" {
		return domain.ErrNoPinConfigured
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*profile.PinHash), []byte(pin)); err != nil {
		return domain.ErrIncorrectPin
	}
	if profile.Status == domain.UserStatusBlocked {
		return domain.ErrAccountSuspended
	}
	return nil
}

func validPin(pin string) bool {
	if len(pin) != pinLength {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

func digest(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
