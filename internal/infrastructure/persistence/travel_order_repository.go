package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/toms/backend/internal/domain/shared"
	"github.com/toms/backend/internal/domain/travel"
	"gorm.io/gorm"
)

// GormTravelOrderRepository implements TravelOrderRepository using GORM
type GormTravelOrderRepository struct {
	db *gorm.DB
}

// NewGormTravelOrderRepository creates a new GormTravelOrderRepository
func NewGormTravelOrderRepository(db *gorm.DB) *GormTravelOrderRepository {
	return &GormTravelOrderRepository{db: db}
}

// FindByID finds a travel order by its ID, loading the full aggregate
func (r *GormTravelOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*travel.TravelOrder, error) {
	var order travel.TravelOrder
	if err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		Preload("Attachments").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber finds a travel order by its order number
func (r *GormTravelOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*travel.TravelOrder, error) {
	var order travel.TravelOrder
	if err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		Preload("Attachments").
		Where("order_number = ?", orderNumber).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByRequester finds travel orders created by a requester
func (r *GormTravelOrderRepository) FindByRequester(ctx context.Context, requesterID uuid.UUID, filter shared.Filter) ([]travel.TravelOrder, error) {
	var orders []travel.TravelOrder
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&travel.TravelOrder{}).
			Preload("Steps", func(db *gorm.DB) *gorm.DB {
				return db.Order("step_order ASC")
			}).
			Preload("Attachments").
			Where("requester_id = ?", requesterID),
		filter,
	)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindPendingForDirector finds orders whose current approval step is
// assigned to the given director and still awaits a decision. The current
// step is the first step while the order is pending and the second step
// once it is recommended.
func (r *GormTravelOrderRepository) FindPendingForDirector(ctx context.Context, directorID uuid.UUID, filter shared.Filter) ([]travel.TravelOrder, error) {
	var orders []travel.TravelOrder
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&travel.TravelOrder{}).
			Preload("Steps", func(db *gorm.DB) *gorm.DB {
				return db.Order("step_order ASC")
			}).
			Preload("Attachments").
			Joins("JOIN approval_steps ON approval_steps.travel_order_id = travel_orders.id").
			Where("approval_steps.director_id = ? AND approval_steps.status = ?", directorID, travel.StepStatusPending).
			Where("(travel_orders.status = ? AND approval_steps.step_order = 1) OR (travel_orders.status = ? AND approval_steps.step_order = 2)",
				travel.OrderStatusPending, travel.OrderStatusRecommended),
		filter,
	)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindHistoryForDirector finds orders the director has already acted on,
// optionally narrowed to one order status.
func (r *GormTravelOrderRepository) FindHistoryForDirector(ctx context.Context, directorID uuid.UUID, status *travel.OrderStatus, filter shared.Filter) ([]travel.TravelOrder, error) {
	var orders []travel.TravelOrder
	query := r.db.WithContext(ctx).Model(&travel.TravelOrder{}).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		Preload("Attachments").
		Joins("JOIN approval_steps ON approval_steps.travel_order_id = travel_orders.id").
		Where("approval_steps.director_id = ? AND approval_steps.acted_at IS NOT NULL", directorID)

	if status != nil {
		query = query.Where("travel_orders.status = ?", *status)
	}

	if err := r.applyFilter(query, filter).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindAll finds all travel orders with filtering
func (r *GormTravelOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]travel.TravelOrder, error) {
	var orders []travel.TravelOrder
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&travel.TravelOrder{}).
			Preload("Steps", func(db *gorm.DB) *gorm.DB {
				return db.Order("step_order ASC")
			}).
			Preload("Attachments"),
		filter,
	)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Save creates or updates a travel order together with its steps and
// attachments. Attachments staged for removal are deleted here, so an
// abandoned edit never loses a file.
func (r *GormTravelOrderRepository) Save(ctx context.Context, order *travel.TravelOrder) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(order).Error; err != nil {
			return err
		}

		// Steps: delete removed ones, then save the current set
		currentStepIDs := make([]uuid.UUID, len(order.Steps))
		for i, step := range order.Steps {
			currentStepIDs[i] = step.ID
		}
		if len(currentStepIDs) > 0 {
			if err := tx.Where("travel_order_id = ? AND id NOT IN ?", order.ID, currentStepIDs).
				Delete(&travel.ApprovalStep{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("travel_order_id = ?", order.ID).
				Delete(&travel.ApprovalStep{}).Error; err != nil {
				return err
			}
		}
		for i := range order.Steps {
			order.Steps[i].TravelOrderID = order.ID
			if err := tx.Save(&order.Steps[i]).Error; err != nil {
				return err
			}
		}

		// Attachments: rows staged for removal and rows no longer in the
		// aggregate are deleted, the rest saved
		keptIDs := make([]uuid.UUID, 0, len(order.Attachments))
		for _, att := range order.Attachments {
			if !att.StagedForRemoval {
				keptIDs = append(keptIDs, att.ID)
			}
		}
		if len(keptIDs) > 0 {
			if err := tx.Where("travel_order_id = ? AND id NOT IN ?", order.ID, keptIDs).
				Delete(&travel.Attachment{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("travel_order_id = ?", order.ID).
				Delete(&travel.Attachment{}).Error; err != nil {
				return err
			}
		}
		for i := range order.Attachments {
			if order.Attachments[i].StagedForRemoval {
				continue
			}
			order.Attachments[i].TravelOrderID = order.ID
			if err := tx.Save(&order.Attachments[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	// Drop the removed attachments from the in-memory aggregate now that
	// the deletion committed
	kept := order.Attachments[:0]
	for _, att := range order.Attachments {
		if !att.StagedForRemoval {
			kept = append(kept, att)
		}
	}
	order.Attachments = kept

	return nil
}

// Delete deletes a travel order with its steps and attachments
func (r *GormTravelOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("travel_order_id = ?", id).Delete(&travel.ApprovalStep{}).Error; err != nil {
			return err
		}
		if err := tx.Where("travel_order_id = ?", id).Delete(&travel.Attachment{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&travel.TravelOrder{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts travel orders with optional filters
func (r *GormTravelOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&travel.TravelOrder{}),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts travel orders grouped by status
func (r *GormTravelOrderRepository) CountByStatus(ctx context.Context) (map[travel.OrderStatus]int64, error) {
	var rows []struct {
		Status travel.OrderStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&travel.TravelOrder{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[travel.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// existsByOrderNumber checks if an order number is already taken
func (r *GormTravelOrderRepository) existsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&travel.TravelOrder{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateOrderNumber generates a unique order number.
// Format: TO-YYYY-NNNNN (e.g., TO-2026-00001)
func (r *GormTravelOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("TO-%d-", year)

	// Get the highest order number for this year
	var lastOrder travel.TravelOrder
	err := r.db.WithContext(ctx).
		Model(&travel.TravelOrder{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		First(&lastOrder).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastOrder.OrderNumber != "" {
		parts := strings.Split(lastOrder.OrderNumber, "-")
		if len(parts) == 3 {
			var num int64
			_, parseErr := fmt.Sscanf(parts[2], "%d", &num)
			if parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	orderNumber := fmt.Sprintf("%s%05d", prefix, nextNum)

	// Verify uniqueness
	exists, err := r.existsByOrderNumber(ctx, orderNumber)
	if err != nil {
		return "", err
	}
	if exists {
		for i := 0; i < 100; i++ {
			nextNum++
			orderNumber = fmt.Sprintf("%s%05d", prefix, nextNum)
			exists, err = r.existsByOrderNumber(ctx, orderNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return orderNumber, nil
}

// applyFilter applies filter options to the query
func (r *GormTravelOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderBy := ValidateSortField(filter.OrderBy, TravelOrderSortFields, "created_at")
		query = query.Order("travel_orders." + orderBy + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("travel_orders.created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormTravelOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where(
			"travel_orders.order_number ILIKE ? OR travel_orders.destination ILIKE ? OR travel_orders.travel_purpose ILIKE ? OR travel_orders.requester_name ILIKE ?",
			searchPattern, searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("travel_orders.status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("travel_orders.status IN ?", statuses)
			}
		case "requester_id":
			query = query.Where("travel_orders.requester_id = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("travel_orders.start_date >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("travel_orders.end_date <= ?", t)
			}
		case "min_amount":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("travel_orders.per_diem_expenses >= ?", d)
			}
		case "max_amount":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("travel_orders.per_diem_expenses <= ?", d)
			}
		}
	}

	return query
}

// Ensure GormTravelOrderRepository implements TravelOrderRepository
var _ travel.TravelOrderRepository = (*GormTravelOrderRepository)(nil)

// GormAttachmentRepository implements AttachmentRepository using GORM
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewGormAttachmentRepository creates a new GormAttachmentRepository
func NewGormAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// FindByID finds an attachment by its ID
func (r *GormAttachmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*travel.Attachment, error) {
	var attachment travel.Attachment
	if err := r.db.WithContext(ctx).
		First(&attachment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &attachment, nil
}

// Delete deletes an attachment row
func (r *GormAttachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&travel.Attachment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormAttachmentRepository implements AttachmentRepository
var _ travel.AttachmentRepository = (*GormAttachmentRepository)(nil)
