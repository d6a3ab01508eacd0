package receiving

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailops/backoffice/internal/domain/inventory"
	"github.com/retailops/backoffice/internal/domain/shared"
)

// StockService exposes the stock projection: reads of on-hand levels and
// manual corrections. Receipt credits never come through here; they are
// owned by the reconciliation engine.
type StockService struct {
	scope     TransactionScope
	levelRepo inventory.StockLevelRepository
	logger    *zap.Logger
}

// NewStockService creates a new StockService
func NewStockService(scope TransactionScope, levelRepo inventory.StockLevelRepository, logger *zap.Logger) *StockService {
	return &StockService{
		scope:     scope,
		levelRepo: levelRepo,
		logger:    logger,
	}
}

// GetLevel retrieves the stock level for one product at one location
func (s *StockService) GetLevel(ctx context.Context, productID, locationID uuid.UUID) (*StockLevelResponse, error) {
	level, err := s.levelRepo.FindByProductAndLocation(ctx, productID, locationID)
	if err != nil {
		return nil, err
	}
	response := toStockLevelResponse(level)
	return &response, nil
}

// ListByLocation retrieves all stock levels at a location
func (s *StockService) ListByLocation(ctx context.Context, locationID uuid.UUID, filter shared.Filter) ([]StockLevelResponse, error) {
	levels, err := s.levelRepo.FindByLocation(ctx, locationID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]StockLevelResponse, 0, len(levels))
	for idx := range levels {
		responses = append(responses, toStockLevelResponse(&levels[idx]))
	}
	return responses, nil
}

// Adjust applies a signed manual correction and journals the movement
func (s *StockService) Adjust(ctx context.Context, req AdjustStockRequest) (*StockLevelResponse, error) {
	var level *inventory.StockLevel

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		level, txErr = repos.StockLevelRepo().GetOrCreate(ctx, req.ProductID, req.LocationID)
		if txErr != nil {
			return txErr
		}

		movement, txErr := level.Adjust(req.Delta, req.Reference, req.Reason)
		if txErr != nil {
			return txErr
		}

		if txErr = repos.StockLevelRepo().Save(ctx, level); txErr != nil {
			return txErr
		}
		return repos.StockMovementRepo().Save(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock adjusted",
		zap.String("product_id", req.ProductID.String()),
		zap.String("location_id", req.LocationID.String()),
		zap.String("delta", req.Delta.String()),
		zap.String("reason", req.Reason))

	response := toStockLevelResponse(level)
	return &response, nil
}

func toStockLevelResponse(level *inventory.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ProductID:  level.ProductID,
		LocationID: level.LocationID,
		OnHandQty:  level.OnHandQty,
		DamagedQty: level.DamagedQty,
		UpdatedAt:  level.UpdatedAt,
	}
}
