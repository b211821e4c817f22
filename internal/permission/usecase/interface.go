// Package usecase implements the permission decision logic: given a wallet
// operation and its originator, decide whether it proceeds silently, prompts
// the user, or fails. It coordinates the token store, the validity cache and
// the request coordinator behind a single interface the wallet proxy calls.
package usecase

import (
	"context"

	"github.com/allisson/walletguard/permissions"
	"github.com/allisson/walletguard/wallet"
)

// TokenStore reads permission tokens and spending history out of the admin
// baskets.
type TokenStore interface {
	FindToken(ctx context.Context, req permissions.Request) (*permissions.Token, error)
	ListTokens(ctx context.Context, typ permissions.Type, originator string) ([]*permissions.Token, error)
	SpentInMonth(ctx context.Context, originator, month string) (int64, error)
}

// TokenLifecycle creates, renews and revokes tokens.
type TokenLifecycle interface {
	Revoke(ctx context.Context, tok *permissions.Token) error
}

// Coordinator blocks a caller until its permission request is decided.
type Coordinator interface {
	Await(ctx context.Context, req permissions.Request) error
}

// Cache is the permission validity cache.
type Cache interface {
	Valid(fingerprint string) bool
	Put(fingerprint string, expiry int64)
	Invalidate(fingerprint string)
}

// ProtocolParams is one protocol permission check.
type ProtocolParams struct {
	Originator   string
	Privileged   bool
	ProtocolID   wallet.ProtocolID
	Counterparty string
	Reason       string
	Usage        permissions.ProtocolUsage

	// Seek allows prompting the user when no valid token exists. When
	// false, missing or expired tokens fail immediately.
	Seek bool
}

// BasketParams is one basket access check.
type BasketParams struct {
	Originator string
	Basket     string
	Reason     string
	Usage      permissions.BasketUsage
	Seek       bool
}

// CertificateParams is one certificate disclosure check.
type CertificateParams struct {
	Originator string
	Privileged bool
	Verifier   string
	CertType   string
	Fields     []string
	Reason     string
	Usage      permissions.CertificateUsage
	Seek       bool
}

// SpendingParams is one net-spend authorization check.
type SpendingParams struct {
	Originator string
	Satoshis   int64
	LineItems  []permissions.LineItem
	Reason     string
	Seek       bool
}

// LabelParams is one action label usage check.
type LabelParams struct {
	Originator string
	Label      string
	Usage      permissions.LabelUsage
	Seek       bool
}

// PermissionUseCase decides permission checks and answers permission
// queries. Ensure methods return nil when the operation may proceed; they
// block while a user decision is pending.
type PermissionUseCase interface {
	EnsureProtocol(ctx context.Context, params ProtocolParams) error
	EnsureBasket(ctx context.Context, params BasketParams) error
	EnsureCertificate(ctx context.Context, params CertificateParams) error
	EnsureSpending(ctx context.Context, params SpendingParams) error
	EnsureLabel(ctx context.Context, params LabelParams) error

	// List returns the active tokens of one type, optionally filtered by
	// originator.
	List(ctx context.Context, typ permissions.Type, originator string) ([]*permissions.Token, error)

	// SpentThisMonth tallies what an originator has already spent in the
	// current UTC calendar month.
	SpentThisMonth(ctx context.Context, originator string) (int64, error)

	// Revoke removes a token and invalidates its cached grant.
	Revoke(ctx context.Context, tok *permissions.Token) error
}
