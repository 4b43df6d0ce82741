package ports

import (
	"context"

	"github.com/aretw0/povrewrite/pkg/domain"
)

// Confirmer decides whether a previewed rewrite is committed.
type Confirmer interface {
	Confirm(ctx context.Context, preview *domain.Preview) (bool, error)
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(ctx context.Context, preview *domain.Preview) (bool, error)

// Confirm calls f.
func (f ConfirmerFunc) Confirm(ctx context.Context, preview *domain.Preview) (bool, error) {
	return f(ctx, preview)
}
