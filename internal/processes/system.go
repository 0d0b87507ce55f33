package processes

import (
	"context"

	"github.com/google/uuid"

	"github.com/refinelab/refinery/pkg/pagination"
)

// System defines the public contract for process domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Process], error)

	Find(ctx context.Context, id uuid.UUID) (*Process, error)

	// Create runs the rule generation workflow and persists the process with
	// the generated rules. Training files enrich the generation prompt but
	// are not required; generation runs either way.
	Create(ctx context.Context, cmd CreateCommand) (*Process, error)

	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Process, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// SaveRules replaces the process rule set with a manual edit.
	SaveRules(ctx context.Context, id uuid.UUID, cmd SaveRulesCommand) (*Process, error)

	// Improve runs the rule improvement workflow with user feedback and
	// persists the revised rule set.
	Improve(ctx context.Context, id uuid.UUID, cmd ImproveCommand) (*Process, error)
}
