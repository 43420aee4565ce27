package ports

import (
	"context"

	"github.com/aretw0/cardflow/pkg/domain"
)

// FlowStore persists flow documents: ordered lists of card definitions
// keyed by a flow id.
type FlowStore interface {
	// Save replaces the stored document of flowID with defs, keeping their order.
	Save(ctx context.Context, flowID string, defs []domain.Definition) error

	// Load retrieves the document of flowID.
	// Returns domain.ErrFlowNotFound if the flow does not exist.
	Load(ctx context.Context, flowID string) ([]domain.Definition, error)

	// Delete removes the document of flowID. Deleting a missing flow is not an error.
	Delete(ctx context.Context, flowID string) error

	// List returns the ids of every stored flow.
	List(ctx context.Context) ([]string, error)
}
