package usecase

import (
	"context"

	"github.com/allisson/walletguard/internal/errors"
	"github.com/allisson/walletguard/internal/permission/service"
	"github.com/allisson/walletguard/permissions"
)

// List returns the tokens of one type, filtered by originator when non-empty.
// Expired tokens are included; callers can inspect Expiry themselves.
func (u *permissionUseCase) List(ctx context.Context, typ permissions.Type, originator string) ([]*permissions.Token, error) {
	return u.store.ListTokens(ctx, typ, originator)
}

// SpentThisMonth tallies the originator's net spend in the current UTC
// calendar month.
func (u *permissionUseCase) SpentThisMonth(ctx context.Context, originator string) (int64, error) {
	return u.store.SpentInMonth(ctx, originator, service.MonthTag(u.now()))
}

// Revoke consumes the token on chain and drops its cached grant so the next
// check prompts again.
func (u *permissionUseCase) Revoke(ctx context.Context, tok *permissions.Token) error {
	if err := u.lifecycle.Revoke(ctx, tok); err != nil {
		return errors.Wrap(err, "revoke permission")
	}
	u.cache.Invalidate(permissions.Fingerprint(tok.Request()))
	return nil
}
