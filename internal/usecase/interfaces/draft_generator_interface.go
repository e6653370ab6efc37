package interfaces

import (
	"context"
	"errors"

	"construction_estimator/internal/domain/entities"
)

// ErrCollaboratorUnavailable signals that no draft generator is configured or reachable.
var ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

// IDraftGenerator abstracts the AI service that drafts and revises estimates.
//
// Any error returned here is treated by the use case as "unavailable" and converted
// into the documented fallback behavior.
type IDraftGenerator interface {
	GenerateDraft(ctx context.Context, docs []entities.ExtractedDocument) (entities.Draft, error)
	ReviseDraft(ctx context.Context, current entities.Estimate, input string) (entities.Draft, error)
}
