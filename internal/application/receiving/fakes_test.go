package receiving

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/retailops/backoffice/internal/domain/audit"
	"github.com/retailops/backoffice/internal/domain/inventory"
	"github.com/retailops/backoffice/internal/domain/receiving"
	"github.com/retailops/backoffice/internal/domain/shared"
)

// In-memory repository fakes with copy-on-read/write-on-save semantics so
// the fake transaction scope can restore state on rollback.

type fakeOrderRepo struct {
	orders map[uuid.UUID]receiving.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]receiving.Order)}
}

func cloneOrder(order receiving.Order) receiving.Order {
	lines := make([]receiving.LineItem, len(order.Lines))
	copy(lines, order.Lines)
	order.Lines = lines
	return order
}

func (r *fakeOrderRepo) put(order *receiving.Order) {
	r.orders[order.ID] = cloneOrder(*order)
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*receiving.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := cloneOrder(order)
	return &clone, nil
}

func (r *fakeOrderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*receiving.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeOrderRepo) FindByOrderNumber(_ context.Context, orderNumber string) (*receiving.Order, error) {
	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			clone := cloneOrder(order)
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOrderRepo) FindAll(_ context.Context, filter shared.Filter) ([]receiving.Order, error) {
	result := make([]receiving.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if state, ok := filter.Filters["state"].(string); ok && order.State.String() != state {
			continue
		}
		if search, ok := filter.Filters["search"].(string); ok &&
			!strings.Contains(order.OrderNumber, search) {
			continue
		}
		result = append(result, cloneOrder(order))
	}
	return result, nil
}

func (r *fakeOrderRepo) FindByState(ctx context.Context, state receiving.OrderState, filter shared.Filter) ([]receiving.Order, error) {
	filter.Filters["state"] = state.String()
	return r.FindAll(ctx, filter)
}

func (r *fakeOrderRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	orders, err := r.FindAll(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(orders)), nil
}

func (r *fakeOrderRepo) Save(_ context.Context, order *receiving.Order) error {
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

type fakeStockLevelRepo struct {
	levels map[string]inventory.StockLevel
}

func newFakeStockLevelRepo() *fakeStockLevelRepo {
	return &fakeStockLevelRepo{levels: make(map[string]inventory.StockLevel)}
}

func stockKey(productID, locationID uuid.UUID) string {
	return productID.String() + "/" + locationID.String()
}

func (r *fakeStockLevelRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockLevel, error) {
	for _, level := range r.levels {
		if level.ID == id {
			clone := level
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeStockLevelRepo) FindByProductAndLocation(_ context.Context, productID, locationID uuid.UUID) (*inventory.StockLevel, error) {
	level, ok := r.levels[stockKey(productID, locationID)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := level
	return &clone, nil
}

func (r *fakeStockLevelRepo) GetOrCreate(ctx context.Context, productID, locationID uuid.UUID) (*inventory.StockLevel, error) {
	if level, err := r.FindByProductAndLocation(ctx, productID, locationID); err == nil {
		return level, nil
	}
	level, err := inventory.NewStockLevel(productID, locationID)
	if err != nil {
		return nil, err
	}
	r.levels[stockKey(productID, locationID)] = *level
	clone := *level
	return &clone, nil
}

func (r *fakeStockLevelRepo) FindByLocation(_ context.Context, locationID uuid.UUID, _ shared.Filter) ([]inventory.StockLevel, error) {
	result := make([]inventory.StockLevel, 0)
	for _, level := range r.levels {
		if level.LocationID == locationID {
			result = append(result, level)
		}
	}
	return result, nil
}

func (r *fakeStockLevelRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.StockLevel, error) {
	result := make([]inventory.StockLevel, 0, len(r.levels))
	for _, level := range r.levels {
		result = append(result, level)
	}
	return result, nil
}

func (r *fakeStockLevelRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.levels)), nil
}

func (r *fakeStockLevelRepo) Save(_ context.Context, level *inventory.StockLevel) error {
	r.levels[stockKey(level.ProductID, level.LocationID)] = *level
	return nil
}

type fakeStockMovementRepo struct {
	movements []inventory.StockMovement
}

func newFakeStockMovementRepo() *fakeStockMovementRepo {
	return &fakeStockMovementRepo{movements: make([]inventory.StockMovement, 0)}
}

func (r *fakeStockMovementRepo) Save(_ context.Context, movement *inventory.StockMovement) error {
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *fakeStockMovementRepo) FindBySource(_ context.Context, sourceType inventory.SourceType, sourceID string) ([]inventory.StockMovement, error) {
	result := make([]inventory.StockMovement, 0)
	for _, movement := range r.movements {
		if movement.SourceType == sourceType && movement.SourceID == sourceID {
			result = append(result, movement)
		}
	}
	return result, nil
}

func (r *fakeStockMovementRepo) FindByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]inventory.StockMovement, error) {
	result := make([]inventory.StockMovement, 0)
	for _, movement := range r.movements {
		if movement.ProductID == productID {
			result = append(result, movement)
		}
	}
	return result, nil
}

type fakeAuditRepo struct {
	events    []audit.Event
	appendErr error
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{events: make([]audit.Event, 0)}
}

func (r *fakeAuditRepo) Append(_ context.Context, event *audit.Event) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeAuditRepo) AppendAll(ctx context.Context, events []*audit.Event) error {
	for _, event := range events {
		if err := r.Append(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeAuditRepo) FindByOrder(_ context.Context, orderID uuid.UUID, _ shared.Filter) ([]audit.Event, error) {
	result := make([]audit.Event, 0)
	for _, event := range r.events {
		if event.OrderID == orderID {
			result = append(result, event)
		}
	}
	return result, nil
}

func (r *fakeAuditRepo) CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	events, err := r.FindByOrder(ctx, orderID, shared.DefaultFilter())
	if err != nil {
		return 0, err
	}
	return int64(len(events)), nil
}

func (r *fakeAuditRepo) lastByAction(orderID uuid.UUID, action audit.Action) *audit.Event {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].OrderID == orderID && r.events[i].Action == action {
			return &r.events[i]
		}
	}
	return nil
}

func (r *fakeAuditRepo) actions(orderID uuid.UUID) []audit.Action {
	result := make([]audit.Action, 0)
	for _, event := range r.events {
		if event.OrderID == orderID {
			result = append(result, event.Action)
		}
	}
	return result
}

// fakeTransactionScope snapshots every store before running the function
// and restores the snapshots when it fails, mimicking a rollback.
type fakeTransactionScope struct {
	orderRepo         *fakeOrderRepo
	stockLevelRepo    *fakeStockLevelRepo
	stockMovementRepo *fakeStockMovementRepo
	auditRepo         *fakeAuditRepo
}

func newFakeScope() *fakeTransactionScope {
	return &fakeTransactionScope{
		orderRepo:         newFakeOrderRepo(),
		stockLevelRepo:    newFakeStockLevelRepo(),
		stockMovementRepo: newFakeStockMovementRepo(),
		auditRepo:         newFakeAuditRepo(),
	}
}

func (s *fakeTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	orders := make(map[uuid.UUID]receiving.Order, len(s.orderRepo.orders))
	for id, order := range s.orderRepo.orders {
		orders[id] = cloneOrder(order)
	}
	levels := make(map[string]inventory.StockLevel, len(s.stockLevelRepo.levels))
	for key, level := range s.stockLevelRepo.levels {
		levels[key] = level
	}
	movements := make([]inventory.StockMovement, len(s.stockMovementRepo.movements))
	copy(movements, s.stockMovementRepo.movements)
	events := make([]audit.Event, len(s.auditRepo.events))
	copy(events, s.auditRepo.events)

	if err := fn(s); err != nil {
		s.orderRepo.orders = orders
		s.stockLevelRepo.levels = levels
		s.stockMovementRepo.movements = movements
		s.auditRepo.events = events
		return err
	}
	return nil
}

func (s *fakeTransactionScope) OrderRepo() receiving.OrderRepository                  { return s.orderRepo }
func (s *fakeTransactionScope) StockLevelRepo() inventory.StockLevelRepository       { return s.stockLevelRepo }
func (s *fakeTransactionScope) StockMovementRepo() inventory.StockMovementRepository { return s.stockMovementRepo }
func (s *fakeTransactionScope) AuditRepo() audit.EventRepository                     { return s.auditRepo }

var _ TransactionScope = (*fakeTransactionScope)(nil)
var _ TransactionalRepositories = (*fakeTransactionScope)(nil)

// recordingPublisher captures published domain events
type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) typesPublished() []string {
	types := make([]string, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.EventType())
	}
	return types
}
