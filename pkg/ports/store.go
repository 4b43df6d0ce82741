package ports

import (
	"context"

	"github.com/aretw0/povrewrite/pkg/domain"
)

// DocumentStore defines the interface for loading and persisting character documents.
type DocumentStore interface {
	// Load retrieves a document by ID.
	// Returns domain.ErrDocumentNotFound if the document does not exist.
	Load(ctx context.Context, id string) (*domain.Document, error)

	// Save persists a document under the given ID, replacing any previous version.
	Save(ctx context.Context, id string, doc *domain.Document) error

	// Delete removes a document.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of every stored document.
	List(ctx context.Context) ([]string, error)
}
