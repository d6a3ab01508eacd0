package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backoffice/internal/domain/audit"
	"github.com/retailops/backoffice/internal/domain/shared"
	"gorm.io/gorm"
)

// GormEventRepository implements the audit EventRepository using GORM.
// The trail is append-only; there is deliberately no update or delete path.
type GormEventRepository struct {
	db *gorm.DB
}

// NewGormEventRepository creates a new GormEventRepository
func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// Append persists a new audit event
func (r *GormEventRepository) Append(ctx context.Context, event *audit.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// AppendAll persists a batch of audit events in order
func (r *GormEventRepository) AppendAll(ctx context.Context, events []*audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(events).Error
}

// FindByOrder lists events for an order in chronological order
func (r *GormEventRepository) FindByOrder(ctx context.Context, orderID uuid.UUID, filter shared.Filter) ([]audit.Event, error) {
	var events []audit.Event
	query := r.db.WithContext(ctx).Model(&audit.Event{}).
		Where("order_id = ?", orderID)

	if action, ok := filter.Filters["action"]; ok {
		query = query.Where("action = ?", action)
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// CountByOrder counts events recorded for an order
func (r *GormEventRepository) CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&audit.Event{}).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormEventRepository implements EventRepository
var _ audit.EventRepository = (*GormEventRepository)(nil)
