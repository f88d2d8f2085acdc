package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// AuditRepository persists the authentication audit trail.
type AuditRepository interface {
	InsertAuthEvent(ctx context.Context, event *domain.AuthEvent) error
}

// AuditService processes a single dequeued audit event.
type AuditService interface {
	Process(ctx context.Context, event domain.AuthEvent) error
}
