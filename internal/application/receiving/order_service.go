package receiving

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailops/backoffice/internal/domain/audit"
	"github.com/retailops/backoffice/internal/domain/receiving"
	"github.com/retailops/backoffice/internal/domain/shared"
)

// OrderService handles order lifecycle operations outside of receipt
// application: creation, shipping, cancellation and the administrative
// revert. Lifecycle changes write their audit record in the same
// transaction as the state change.
type OrderService struct {
	scope          TransactionScope
	orderRepo      receiving.OrderRepository
	auditRepo      audit.EventRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(scope TransactionScope, orderRepo receiving.OrderRepository, auditRepo audit.EventRepository, logger *zap.Logger) *OrderService {
	return &OrderService{
		scope:     scope,
		orderRepo: orderRepo,
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new order in DRAFT state with its planned lines
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	existing, err := s.orderRepo.FindByOrderNumber(ctx, req.OrderNumber)
	if err != nil && !shared.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.ErrAlreadyExists.WithDetail("order_number", req.OrderNumber)
	}

	order, err := receiving.NewOrder(req.OrderNumber, req.SourceLocationID, req.DestinationLocationID, req.AllowUnexpected)
	if err != nil {
		return nil, err
	}

	for _, line := range req.Lines {
		if _, err := order.AddLine(line.ProductID, line.PlannedQty); err != nil {
			return nil, err
		}
	}

	if req.Remark != "" {
		order.SetRemark(req.Remark)
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("line_count", len(order.Lines)))

	response := ToOrderResponse(order)
	return &response, nil
}

// Ship marks the order as shipped (DRAFT -> SENT)
func (s *OrderService) Ship(ctx context.Context, orderID uuid.UUID, actorID string) (*OrderResponse, error) {
	order, err := s.transition(ctx, orderID, actorID, audit.ActionOrderShipped, func(order *receiving.Order) error {
		return order.Ship()
	})
	if err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// Cancel cancels the order. Only possible before receiving starts.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, actorID string, req CancelOrderRequest) (*OrderResponse, error) {
	order, err := s.transition(ctx, orderID, actorID, audit.ActionOrderCancelled, func(order *receiving.Order) error {
		return order.Cancel(req.Reason)
	})
	if err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// RevertToDraft performs the administrative SENT -> DRAFT revert
func (s *OrderService) RevertToDraft(ctx context.Context, orderID uuid.UUID, actorID string) (*OrderResponse, error) {
	order, err := s.transition(ctx, orderID, actorID, audit.ActionOrderReverted, func(order *receiving.Order) error {
		return order.RevertToDraft()
	})
	if err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// transition loads the order under lock, applies the mutation, and writes
// the audit record and the order in one transaction.
func (s *OrderService) transition(ctx context.Context, orderID uuid.UUID, actorID string, action audit.Action, mutate func(*receiving.Order) error) (*receiving.Order, error) {
	if actorID == "" {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Actor ID cannot be empty")
	}

	var order *receiving.Order
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		order, txErr = repos.OrderRepo().FindByIDForUpdate(ctx, orderID)
		if txErr != nil {
			return txErr
		}

		fromState := order.State
		if txErr = mutate(order); txErr != nil {
			return txErr
		}

		event, evErr := audit.NewEvent(order.ID, action, actorID, map[string]any{
			"from_state": fromState.String(),
			"to_state":   order.State.String(),
		})
		if evErr != nil {
			return evErr
		}
		if txErr = repos.AuditRepo().Append(ctx, event); txErr != nil {
			return txErr
		}

		return repos.OrderRepo().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)

	s.logger.Info("order transitioned",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("action", action.String()),
		zap.String("state", order.State.String()))

	return order, nil
}

// GetByID retrieves an order by ID
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// List retrieves orders matching the filter
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	repoFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		repoFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		repoFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		repoFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		repoFilter.OrderDir = filter.OrderDir
	}
	if filter.Search != "" {
		repoFilter.Filters["search"] = filter.Search
	}
	if filter.State != "" {
		state := receiving.OrderState(filter.State)
		if !state.IsValid() {
			return nil, shared.ErrValidation.WithDetail("state", filter.State)
		}
		repoFilter.Filters["state"] = state.String()
	}
	if filter.DestinationID != nil {
		repoFilter.Filters["destination_location_id"] = filter.DestinationID.String()
	}

	orders, err := s.orderRepo.FindAll(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.Count(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	items := make([]OrderResponse, 0, len(orders))
	for idx := range orders {
		items = append(items, ToOrderResponse(&orders[idx]))
	}

	result := shared.NewPaginated(items, total, repoFilter.Page, repoFilter.PageSize)
	return &result, nil
}

// GetAuditTrail retrieves the audit trail of an order in chronological order
func (s *OrderService) GetAuditTrail(ctx context.Context, orderID uuid.UUID, filter shared.Filter) ([]AuditEventResponse, error) {
	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		return nil, err
	}

	events, err := s.auditRepo.FindByOrder(ctx, orderID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]AuditEventResponse, 0, len(events))
	for idx := range events {
		event := &events[idx]
		payload, decodeErr := event.DecodePayload()
		if decodeErr != nil {
			return nil, decodeErr
		}
		responses = append(responses, AuditEventResponse{
			ID:        event.ID,
			OrderID:   event.OrderID,
			Action:    event.Action.String(),
			ActorID:   event.ActorID,
			ProductID: event.ProductID,
			Payload:   payload,
			CreatedAt: event.CreatedAt,
		})
	}
	return responses, nil
}

func (s *OrderService) publishEvents(ctx context.Context, order *receiving.Order) {
	if s.eventPublisher == nil {
		order.ClearDomainEvents()
		return
	}
	if err := s.eventPublisher.Publish(ctx, order.GetDomainEvents()...); err != nil {
		s.logger.Error("failed to publish domain events",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}
	order.ClearDomainEvents()
}
