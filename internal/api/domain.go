package api

import (
	"github.com/refinelab/refinery/internal/processes"
	"github.com/refinelab/refinery/internal/prompts"
	"github.com/refinelab/refinery/internal/runs"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Processes processes.System
	Runs      runs.System
	Prompts   prompts.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	promptsSystem := prompts.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	processesSystem := processes.New(
		runtime.Database.Connection(),
		runtime.Agent,
		runtime.Logger,
		runtime.Pagination,
		runtime.Storage,
		promptsSystem,
	)

	runsSystem := runs.New(
		runtime.Database.Connection(),
		runtime.Agent,
		runtime.Logger,
		runtime.Pagination,
		runtime.Storage,
		processesSystem,
		promptsSystem,
	)

	return &Domain{
		Processes: processesSystem,
		Runs:      runsSystem,
		Prompts:   promptsSystem,
	}
}
