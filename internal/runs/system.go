package runs

import (
	"context"

	"github.com/google/uuid"

	"github.com/refinelab/refinery/pkg/pagination"
)

// System defines the public contract for run domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Run], error)

	Find(ctx context.Context, id uuid.UUID) (*Run, error)

	// Execute creates a running record, runs the execution workflow, and
	// settles the record to completed or failed. The returned run is always
	// terminal; workflow failures are recorded on the run rather than
	// surfaced as an error.
	Execute(ctx context.Context, cmd ExecuteCommand) (*Run, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
