package interfaces

import (
	"context"

	"construction_estimator/internal/domain/entities"
)

// IEstimateRepository is the snapshot store for estimates.
//
// Contract:
//   - Create assigns a fresh monotonic id and persists the estimate with its items atomically.
//   - Replace swaps the whole snapshot of an existing id and appends a change record in
//     the same transaction. An unknown id yields a zero-value Estimate and writes nothing.
//   - GetByID yields a zero-value Estimate when the id does not exist.
//   - Replace and GetByID on the same id are serialized; distinct ids do not contend.

type IEstimateRepository interface {
	Create(ctx context.Context, e entities.Estimate) (entities.Estimate, error)
	Replace(ctx context.Context, id int64, e entities.Estimate, input string) (entities.Estimate, error)
	GetByID(ctx context.Context, id int64) (entities.Estimate, error)
	ListRecent(ctx context.Context, limit int) ([]entities.Estimate, error)
	ListChanges(ctx context.Context, estimateID int64) ([]entities.EstimateChange, error)
}
