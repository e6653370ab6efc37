package interfaces

import (
	"context"

	"construction_estimator/internal/domain/entities"
)

// IDocumentExtractor splits an uploaded file into plain text and binary attachments.
// Malformed input yields an empty result, never an error.
type IDocumentExtractor interface {
	Extract(ctx context.Context, name string, data []byte) entities.ExtractedDocument
}
