package travel

import (
	"context"

	"github.com/google/uuid"
	"github.com/toms/backend/internal/domain/shared"
)

// TravelOrderRepository defines persistence operations for travel orders.
// Implementations must load and save the whole aggregate (steps and
// attachments included) and enforce optimistic locking on Save.
type TravelOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*TravelOrder, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*TravelOrder, error)
	FindByRequester(ctx context.Context, requesterID uuid.UUID, filter shared.Filter) ([]TravelOrder, error)
	// FindPendingForDirector returns orders whose current step is bound to
	// the given director.
	FindPendingForDirector(ctx context.Context, directorID uuid.UUID, filter shared.Filter) ([]TravelOrder, error)
	// FindHistoryForDirector returns orders the director has acted on,
	// optionally narrowed to one status.
	FindHistoryForDirector(ctx context.Context, directorID uuid.UUID, status *OrderStatus, filter shared.Filter) ([]TravelOrder, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]TravelOrder, error)
	Save(ctx context.Context, order *TravelOrder) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	CountByStatus(ctx context.Context) (map[OrderStatus]int64, error)
	GenerateOrderNumber(ctx context.Context) (string, error)
}

// AttachmentRepository defines persistence operations for attachments that
// are accessed outside their owning order (downloads).
type AttachmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
