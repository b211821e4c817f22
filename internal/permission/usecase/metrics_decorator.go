package usecase

import (
	"context"
	"time"

	"github.com/allisson/walletguard/internal/metrics"
	"github.com/allisson/walletguard/permissions"
)

// permissionUseCaseWithMetrics decorates PermissionUseCase with metrics
// instrumentation.
type permissionUseCaseWithMetrics struct {
	next    PermissionUseCase
	metrics metrics.BusinessMetrics
}

// NewPermissionUseCaseWithMetrics wraps a PermissionUseCase with operation
// and duration recording.
func NewPermissionUseCaseWithMetrics(useCase PermissionUseCase, m metrics.BusinessMetrics) PermissionUseCase {
	return &permissionUseCaseWithMetrics{next: useCase, metrics: m}
}

func (p *permissionUseCaseWithMetrics) record(ctx context.Context, domain, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordOperation(ctx, domain, operation, status)
	p.metrics.RecordDuration(ctx, domain, operation, time.Since(start), status)
}

func (p *permissionUseCaseWithMetrics) EnsureProtocol(ctx context.Context, params ProtocolParams) error {
	start := time.Now()
	err := p.next.EnsureProtocol(ctx, params)
	p.record(ctx, "protocol", "ensure", start, err)
	return err
}

func (p *permissionUseCaseWithMetrics) EnsureBasket(ctx context.Context, params BasketParams) error {
	start := time.Now()
	err := p.next.EnsureBasket(ctx, params)
	p.record(ctx, "basket", "ensure", start, err)
	return err
}

func (p *permissionUseCaseWithMetrics) EnsureCertificate(ctx context.Context, params CertificateParams) error {
	start := time.Now()
	err := p.next.EnsureCertificate(ctx, params)
	p.record(ctx, "certificate", "ensure", start, err)
	return err
}

func (p *permissionUseCaseWithMetrics) EnsureSpending(ctx context.Context, params SpendingParams) error {
	start := time.Now()
	err := p.next.EnsureSpending(ctx, params)
	p.record(ctx, "spending", "ensure", start, err)
	return err
}

func (p *permissionUseCaseWithMetrics) EnsureLabel(ctx context.Context, params LabelParams) error {
	start := time.Now()
	err := p.next.EnsureLabel(ctx, params)
	p.record(ctx, "label", "ensure", start, err)
	return err
}

func (p *permissionUseCaseWithMetrics) List(ctx context.Context, typ permissions.Type, originator string) ([]*permissions.Token, error) {
	start := time.Now()
	tokens, err := p.next.List(ctx, typ, originator)
	p.record(ctx, string(typ), "list", start, err)
	return tokens, err
}

func (p *permissionUseCaseWithMetrics) SpentThisMonth(ctx context.Context, originator string) (int64, error) {
	start := time.Now()
	total, err := p.next.SpentThisMonth(ctx, originator)
	p.record(ctx, "spending", "spent_this_month", start, err)
	return total, err
}

func (p *permissionUseCaseWithMetrics) Revoke(ctx context.Context, tok *permissions.Token) error {
	start := time.Now()
	err := p.next.Revoke(ctx, tok)
	p.record(ctx, string(tok.Type), "revoke", start, err)
	return err
}
