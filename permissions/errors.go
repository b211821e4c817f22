package permissions

import (
	apperrors "github.com/allisson/walletguard/internal/errors"
)

// Permission flow errors.
var (
	// ErrPermissionDenied indicates the user or operator explicitly refused
	// the request. The coordinator entry is removed, so a later retry may
	// prompt again.
	ErrPermissionDenied = apperrors.Wrap(apperrors.ErrForbidden, "permission denied")

	// ErrPermissionExpired indicates an expired token was found and the
	// caller disallowed prompting for renewal.
	ErrPermissionExpired = apperrors.Wrap(apperrors.ErrForbidden, "permission expired and no user consent allowed")

	// ErrPermissionNotFound indicates no token was found and the caller
	// disallowed prompting.
	ErrPermissionNotFound = apperrors.Wrap(apperrors.ErrNotFound, "no permission token found and no user consent allowed")

	// ErrRequestNotFound indicates a grant or deny referenced an unknown or
	// already-resolved request ID.
	ErrRequestNotFound = apperrors.Wrap(apperrors.ErrNotFound, "permission request not found")

	// ErrAdminOnly indicates access to an admin-reserved protocol, basket or
	// label namespace. There is no prompt path for these.
	ErrAdminOnly = apperrors.Wrap(apperrors.ErrForbidden, "admin-only resource")

	// ErrGroupedSubsetViolation indicates a grouped grant attempted to
	// exceed its originating request.
	ErrGroupedSubsetViolation = apperrors.Wrap(apperrors.ErrInvalidInput, "granted permissions are not a subset of the original request")

	// ErrSpendingLimitExceeded indicates the requested spend would push the
	// originator past its authorized monthly amount and the caller
	// disallowed prompting for a raise.
	ErrSpendingLimitExceeded = apperrors.Wrap(apperrors.ErrForbidden, "monthly spending limit exceeded")

	// ErrSignAndProcessReserved indicates a non-admin originator explicitly
	// requested immediate transaction finalization.
	ErrSignAndProcessReserved = apperrors.Wrap(apperrors.ErrForbidden, "only the admin originator can request immediate finalization")
)
