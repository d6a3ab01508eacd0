package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backoffice/internal/domain/receiving"
	"github.com/retailops/backoffice/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order with its lines by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*receiving.Order, error) {
	var order receiving.Order
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate loads an order and its lines under a row lock.
// Concurrent receipt batches against the same order serialize on this lock
// for the duration of the enclosing transaction.
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*receiving.Order, error) {
	var order receiving.Order
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	// Lines are loaded separately: FOR UPDATE cannot be combined with the
	// preload join, and the parent row lock already covers the aggregate.
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Order("created_at ASC").
		Find(&order.Lines).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber finds an order by its business key
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*receiving.Order, error) {
	var order receiving.Order
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("order_number = ?", orderNumber).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByState lists orders in a given state
func (r *GormOrderRepository) FindByState(ctx context.Context, state receiving.OrderState, filter shared.Filter) ([]receiving.Order, error) {
	var orders []receiving.Order
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&receiving.Order{}).Where("state = ?", state),
		filter,
	)
	if err := query.Preload("Lines").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindAll lists orders with filtering and pagination
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]receiving.Order, error) {
	var orders []receiving.Order
	query := r.applyFilter(r.db.WithContext(ctx).Model(&receiving.Order{}), filter)
	if err := query.Preload("Lines").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&receiving.Order{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an order together with its lines. Updates use
// optimistic locking on the aggregate version; a version mismatch means
// another submission won the race and the caller should retry.
func (r *GormOrderRepository) Save(ctx context.Context, order *receiving.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing receiving.Order
		err := tx.Select("version").First(&existing, "id = ?", order.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.create(tx, order)
		}
		if err != nil {
			return err
		}

		currentVersion := existing.Version
		if currentVersion != order.Version {
			return shared.ErrConcurrentModification
		}

		order.Version++
		order.UpdatedAt = time.Now()

		result := tx.Model(&receiving.Order{}).
			Where("id = ? AND version = ?", order.ID, currentVersion).
			Updates(map[string]interface{}{
				"state":         order.State,
				"remark":        order.Remark,
				"shipped_at":    order.ShippedAt,
				"closed_at":     order.ClosedAt,
				"cancelled_at":  order.CancelledAt,
				"cancel_reason": order.CancelReason,
				"version":       order.Version,
				"updated_at":    order.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrentModification
		}

		return r.saveLines(tx, order)
	})
}

// create inserts a new order with its lines
func (r *GormOrderRepository) create(tx *gorm.DB, order *receiving.Order) error {
	if err := tx.Omit("Lines").Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
		if err := tx.Create(&order.Lines[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// saveLines reconciles the persisted lines with the aggregate's current set.
// Lines removed from the aggregate are deleted, the rest upserted.
func (r *GormOrderRepository) saveLines(tx *gorm.DB, order *receiving.Order) error {
	currentLineIDs := make([]uuid.UUID, len(order.Lines))
	for i, line := range order.Lines {
		currentLineIDs[i] = line.ID
	}

	if len(currentLineIDs) > 0 {
		if err := tx.Where("order_id = ? AND id NOT IN ?", order.ID, currentLineIDs).
			Delete(&receiving.LineItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("order_id = ?", order.ID).
			Delete(&receiving.LineItem{}).Error; err != nil {
			return err
		}
	}

	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
		if err := tx.Save(&order.Lines[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Whitelist sort fields to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order(sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("order_number ILIKE ?", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "state":
			query = query.Where("state = ?", value)
		case "source_location_id":
			query = query.Where("source_location_id = ?", value)
		case "destination_location_id":
			query = query.Where("destination_location_id = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at <= ?", t)
			}
		}
	}
	return query
}

// Ensure GormOrderRepository implements OrderRepository
var _ receiving.OrderRepository = (*GormOrderRepository)(nil)
