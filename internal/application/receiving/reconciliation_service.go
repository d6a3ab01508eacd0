package receiving

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retailops/backoffice/internal/domain/audit"
	"github.com/retailops/backoffice/internal/domain/receiving"
	"github.com/retailops/backoffice/internal/domain/shared"
)

// ReconciliationService applies receipt batches to orders. It is the only
// writer of receiving state: every submission runs under a row lock on the
// order so concurrent batches serialize, and the order, stock credit,
// movement journal and audit trail commit in one transaction.
type ReconciliationService struct {
	scope          TransactionScope
	merger         *receiving.LineMerger
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(scope TransactionScope, logger *zap.Logger) *ReconciliationService {
	return &ReconciliationService{
		scope:  scope,
		merger: receiving.NewLineMerger(),
		logger: logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ReconciliationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ApplyReceipt merges, validates and applies one receipt batch to an order.
//
// The batch is merged to one effective line per product before anything is
// loaded. Validation failures reject the whole batch and touch nothing.
// Over-delivery and permitted unexpected products are recorded in the audit
// trail and surfaced as warnings, never as errors. The order closes when no
// in-scope line is left pending, or when the submitter forces completion
// with at least one counted line; closing credits each line's uncredited
// quantity to on-hand stock at the destination.
func (s *ReconciliationService) ApplyReceipt(ctx context.Context, orderID uuid.UUID, req ApplyReceiptRequest) (*ApplyReceiptResponse, error) {
	batch := req.ToBatch(orderID)

	set, err := s.merger.Merge(batch)
	if err != nil {
		s.logger.Warn("receipt batch rejected by merger",
			zap.String("order_id", orderID.String()),
			zap.String("actor_id", batch.ActorID),
			zap.Error(err))
		return nil, err
	}

	var (
		order    *receiving.Order
		outcome  receiving.ReceiptOutcome
		warnings []ReceiptWarning
	)

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		order, txErr = repos.OrderRepo().FindByIDForUpdate(ctx, orderID)
		if txErr != nil {
			return txErr
		}

		if !order.State.CanReceive() {
			return shared.ErrInvalidState.WithDetail("state", order.State.String())
		}
		fromState := order.State
		if txErr = order.BeginReceiving(); txErr != nil {
			return txErr
		}
		openState := order.State

		auditEvents := make([]*audit.Event, 0, len(set.Lines)+2)
		warnings = warnings[:0]

		for _, eff := range set.Lines {
			app, applyErr := order.ApplyEffectiveLine(eff)
			if applyErr != nil {
				return applyErr
			}

			if app.Created {
				event, evErr := audit.NewEvent(order.ID, audit.ActionUnexpectedProduct, batch.ActorID, map[string]any{
					"counted_qty": eff.Qty.String(),
					"planned_qty": app.Line.PlannedQty.String(),
				})
				if evErr != nil {
					return evErr
				}
				auditEvents = append(auditEvents, event.WithProduct(eff.ProductID))
				warnings = append(warnings, ReceiptWarning{
					Code:      WarningUnexpectedProduct,
					ProductID: eff.ProductID,
					Message:   "Product was not on the order and has been added",
				})
			}

			if app.OverDelivered {
				event, evErr := audit.NewEvent(order.ID, audit.ActionOverDelivery, batch.ActorID, map[string]any{
					"planned_qty":  app.Line.PlannedQty.String(),
					"received_qty": app.Line.ReceivedQty.String(),
					"previous_qty": app.PreviousQty.String(),
				})
				if evErr != nil {
					return evErr
				}
				auditEvents = append(auditEvents, event.WithProduct(eff.ProductID))
				warnings = append(warnings, ReceiptWarning{
					Code:      WarningOverDelivery,
					ProductID: eff.ProductID,
					Message: fmt.Sprintf("Received %s against a plan of %s",
						app.Line.ReceivedQty, app.Line.PlannedQty),
				})
			}
		}

		outcome, txErr = order.ResolveOutcome(batch.ForceComplete)
		if txErr != nil {
			return txErr
		}

		applied, evErr := audit.NewEvent(order.ID, audit.ActionReceiptApplied, batch.ActorID, map[string]any{
			"reference":      batch.Reference,
			"line_count":     len(set.Lines),
			"force_complete": batch.ForceComplete,
			"outcome":        outcome.String(),
			"pending_count":  order.PendingCount(),
			"from_state":     fromState.String(),
			"to_state":       openState.String(),
		})
		if evErr != nil {
			return evErr
		}
		auditEvents = append(auditEvents, applied)

		switch {
		case outcome.IsClosing():
			if txErr = s.creditStock(ctx, repos, order); txErr != nil {
				return txErr
			}
			closed, closeErr := audit.NewEvent(order.ID, audit.ActionOrderClosed, batch.ActorID, map[string]any{
				"outcome":        outcome.String(),
				"pending_count":  order.PendingCount(),
				"force_complete": batch.ForceComplete,
				"from_state":     openState.String(),
				"to_state":       order.State.String(),
			})
			if closeErr != nil {
				return closeErr
			}
			auditEvents = append(auditEvents, closed)
		case len(set.Lines) > 0:
			progress, progressErr := audit.NewEvent(order.ID, audit.ActionPartialProgress, batch.ActorID, map[string]any{
				"pending_count": order.PendingCount(),
				"confidence":    order.Confidence().String(),
			})
			if progressErr != nil {
				return progressErr
			}
			auditEvents = append(auditEvents, progress)
		}

		// An unrecordable audit trail aborts the whole submission
		if txErr = repos.AuditRepo().AppendAll(ctx, auditEvents); txErr != nil {
			return txErr
		}

		return repos.OrderRepo().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	order.AddDomainEvent(receiving.NewOrderReceiptAppliedEvent(order, outcome, order.PendingCount(), batch.ActorID))
	s.publishEvents(ctx, order)

	s.logger.Info("receipt batch applied",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("actor_id", batch.ActorID),
		zap.String("outcome", outcome.String()),
		zap.Int("pending_count", order.PendingCount()),
		zap.Int("warnings", len(warnings)))

	return &ApplyReceiptResponse{
		Order:        ToOrderResponse(order),
		Outcome:      outcome.String(),
		PendingCount: order.PendingCount(),
		Confidence:   order.Confidence(),
		Warnings:     warnings,
	}, nil
}

// creditStock moves each line's uncredited quantity into on-hand stock at
// the destination, writing one journal movement per credited line. Lines
// with nothing receivable are skipped.
func (s *ReconciliationService) creditStock(ctx context.Context, repos TransactionalRepositories, order *receiving.Order) error {
	for idx := range order.Lines {
		line := &order.Lines[idx]
		sellable := line.UncreditedQty()
		damaged := line.DamagedQty

		if sellable.LessThanOrEqual(decimal.Zero) && damaged.LessThanOrEqual(decimal.Zero) {
			continue
		}

		level, err := repos.StockLevelRepo().GetOrCreate(ctx, line.ProductID, order.DestinationLocationID)
		if err != nil {
			return err
		}

		movement, err := level.Credit(sellable, damaged, order.OrderNumber)
		if err != nil {
			return err
		}
		movement.WithReference(order.ID.String())

		if err := repos.StockLevelRepo().Save(ctx, level); err != nil {
			return err
		}
		if err := repos.StockMovementRepo().Save(ctx, movement); err != nil {
			return err
		}

		line.MarkCredited()
	}
	return nil
}

func (s *ReconciliationService) publishEvents(ctx context.Context, order *receiving.Order) {
	if s.eventPublisher == nil {
		order.ClearDomainEvents()
		return
	}
	if err := s.eventPublisher.Publish(ctx, order.GetDomainEvents()...); err != nil {
		// Notification delivery is best effort; the committed state stands
		s.logger.Error("failed to publish domain events",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}
	order.ClearDomainEvents()
}
