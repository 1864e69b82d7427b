package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

func (s UserStatus) IsValid() bool {
	return s == UserStatusActive || s == UserStatusBlocked
}

type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	Username     *string
	PasswordHash string
	Role         Role
	Status       UserStatus
	CreatedAt    time.Time
}

func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return "User"
}

// AuthorizationProfile is the subset of a user's profile consulted before a
// transfer may execute.
type AuthorizationProfile struct {
	UserID                  uuid.UUID
	PinHash                 *string
	BankTransferFee         *decimal.Decimal
	CryptoTransferFee       *decimal.Decimal
	AuthCodeRequired        bool
	BusinessAccountRequired bool
	Status                  UserStatus
}
