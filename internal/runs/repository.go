package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/refinelab/refinery/internal/processes"
	"github.com/refinelab/refinery/internal/prompts"
	"github.com/refinelab/refinery/internal/workflow"
	"github.com/refinelab/refinery/pkg/pagination"
	"github.com/refinelab/refinery/pkg/query"
	"github.com/refinelab/refinery/pkg/repository"
	"github.com/refinelab/refinery/pkg/storage"
)

const runColumns = `id, process_id, input_file_name, input_file_key,
		output_file_key, output_content, status, error_message,
		execution_seconds, created_at, updated_at`

type repo struct {
	db         *sql.DB
	rt         *workflow.Runtime
	processes  processes.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a run repository implementing the System interface.
// It internally constructs the workflow runtime from the provided dependencies.
func New(
	db *sql.DB,
	agent gaconfig.AgentConfig,
	logger *slog.Logger,
	pagination pagination.Config,
	store storage.System,
	procs processes.System,
	ps prompts.System,
) System {
	return NewWithRuntime(db, workflow.NewRuntime(agent, store, ps, logger), procs, logger, pagination)
}

// NewWithRuntime creates a run repository with an explicit workflow runtime,
// allowing callers to substitute the invoker and fetcher.
func NewWithRuntime(
	db *sql.DB,
	rt *workflow.Runtime,
	procs processes.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		rt:         rt,
		processes:  procs,
		logger:     logger.With("system", "runs"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Run], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "InputFileName")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRun)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}

func (r *repo) Execute(ctx context.Context, cmd ExecuteCommand) (*Run, error) {
	if strings.TrimSpace(cmd.InputFileName) == "" || strings.TrimSpace(cmd.InputFileKey) == "" {
		return nil, ErrMissingInput
	}

	proc, err := r.processes.Find(ctx, cmd.ProcessID)
	if err != nil {
		if errors.Is(err, processes.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProcessNotFound, cmd.ProcessID)
		}
		return nil, fmt.Errorf("find process %s: %w", cmd.ProcessID, err)
	}

	if proc.Rules == "" {
		return nil, fmt.Errorf("%w: %s", ErrProcessNotReady, proc.Name)
	}

	run, err := r.createRunning(ctx, cmd)
	if err != nil {
		return nil, err
	}

	outputKey := fmt.Sprintf("outputs/%s/processed_%s", run.ID, cmd.InputFileName)

	start := time.Now()
	result, werr := workflow.Execute(ctx, r.rt, workflow.ExecuteRequest{
		ProcessName:  proc.Name,
		Rules:        proc.Rules,
		InputFormat:  string(proc.InputFileType),
		OutputFormat: string(proc.OutputFileType),
		InputSource:  cmd.InputFileKey,
		OutputKey:    outputKey,
		OnProgress:   r.progressLogger(ctx, run.ID),
	})
	elapsed := time.Since(start).Seconds()

	if werr != nil {
		r.logger.Error("run failed",
			"id", run.ID,
			"process", proc.Name,
			"error", werr,
		)
		return r.settleFailed(ctx, run.ID, werr.Error())
	}

	settled, err := r.settleCompleted(ctx, run.ID, outputKey, result.Output, elapsed)
	if err != nil {
		return nil, err
	}

	r.logger.Info("run completed",
		"id", settled.ID,
		"process", proc.Name,
		"output_key", outputKey,
		"execution_seconds", elapsed,
	)
	return settled, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM process_runs WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("run deleted", "id", id)
	return nil
}

// createRunning writes the first phase of a run record so the execution is
// visible before the workflow starts.
func (r *repo) createRunning(ctx context.Context, cmd ExecuteCommand) (*Run, error) {
	q := `
		INSERT INTO process_runs(process_id, input_file_name, input_file_key, status)
		VALUES ($1, $2, $3, 'running')
		RETURNING ` + runColumns

	args := []any{cmd.ProcessID, cmd.InputFileName, cmd.InputFileKey}

	run, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Run, error) {
		return repository.QueryOne(ctx, tx, q, args, scanRun)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("run started",
		"id", run.ID,
		"process_id", cmd.ProcessID,
		"input_file", cmd.InputFileName,
	)
	return &run, nil
}

// settleCompleted moves a running record to completed. The status guard means
// a record that already settled is never rewritten.
func (r *repo) settleCompleted(
	ctx context.Context,
	id uuid.UUID,
	outputKey, output string,
	seconds float64,
) (*Run, error) {
	q := `
		UPDATE process_runs
		SET output_file_key = $1, output_content = $2, status = 'completed',
			execution_seconds = $3, updated_at = NOW()
		WHERE id = $4 AND status = 'running'
		RETURNING ` + runColumns

	args := []any{outputKey, output, seconds, id}

	run, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Run, error) {
		return repository.QueryOne(ctx, tx, q, args, scanRun)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}

// settleFailed moves a running record to failed, recording the workflow
// error. Execution time stays NULL; it is a completion field. The run itself
// is returned without error; the failure lives on the record.
func (r *repo) settleFailed(
	ctx context.Context,
	id uuid.UUID,
	message string,
) (*Run, error) {
	q := `
		UPDATE process_runs
		SET status = 'failed', error_message = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'running'
		RETURNING ` + runColumns

	args := []any{message, id}

	run, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Run, error) {
		return repository.QueryOne(ctx, tx, q, args, scanRun)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}

func (r *repo) progressLogger(ctx context.Context, id uuid.UUID) workflow.ProgressFunc {
	return func(stage string, percent int) {
		r.logger.InfoContext(ctx, "workflow progress",
			"run_id", id,
			"stage", stage,
			"percent", percent,
		)
	}
}
