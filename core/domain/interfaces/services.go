package interfaces

import (
	"context"

	"github.com/hyperterse/querycheck/core/domain/search"
)

// ValidationService defines the interface for query validation
type ValidationService interface {
	// Validate checks a query and reports findings. The error is reserved for
	// collaborator failures; problems with the query itself are findings.
	Validate(ctx context.Context, req search.ValidationRequest) (search.ValidationResponse, error)
}
