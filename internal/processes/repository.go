package processes

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/refinelab/refinery/internal/prompts"
	"github.com/refinelab/refinery/internal/workflow"
	"github.com/refinelab/refinery/pkg/pagination"
	"github.com/refinelab/refinery/pkg/query"
	"github.com/refinelab/refinery/pkg/repository"
	"github.com/refinelab/refinery/pkg/storage"
)

const processColumns = `id, name, description, input_file_type, output_file_type,
		training_files, example_input_key, example_output_key, rules,
		status, created_at, updated_at`

type repo struct {
	db         *sql.DB
	rt         *workflow.Runtime
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a process repository implementing the System interface.
// It internally constructs the workflow runtime from the provided dependencies.
func New(
	db *sql.DB,
	agent gaconfig.AgentConfig,
	logger *slog.Logger,
	pagination pagination.Config,
	store storage.System,
	ps prompts.System,
) System {
	return NewWithRuntime(db, workflow.NewRuntime(agent, store, ps, logger), logger, pagination)
}

// NewWithRuntime creates a process repository with an explicit workflow
// runtime, allowing callers to substitute the invoker and fetcher.
func NewWithRuntime(
	db *sql.DB,
	rt *workflow.Runtime,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		rt:         rt,
		logger:     logger.With("system", "processes"),
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
) (*pagination.PageResult[Process], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count processes: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanProcess)
	if err != nil {
		return nil, fmt.Errorf("query processes: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Process, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanProcess)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Process, error) {
	result, err := workflow.Generate(ctx, r.rt, workflow.GenerateRequest{
		Name:          cmd.Name,
		Description:   cmd.Description,
		InputFormat:   string(cmd.InputFileType),
		OutputFormat:  string(cmd.OutputFileType),
		TrainingFiles: trainingSources(cmd.TrainingFiles),
		OnProgress:    r.progressLogger(ctx, cmd.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("generate rules for %s: %w", cmd.Name, err)
	}
	rules := result.Rules

	trainingJSON, err := json.Marshal(normalizeTraining(cmd.TrainingFiles))
	if err != nil {
		return nil, fmt.Errorf("marshal training_files: %w", err)
	}

	q := `
		INSERT INTO processes(
			name, description, input_file_type, output_file_type,
			training_files, example_input_key, example_output_key,
			rules, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + processColumns

	args := []any{
		cmd.Name,
		cmd.Description,
		cmd.InputFileType,
		cmd.OutputFileType,
		trainingJSON,
		cmd.ExampleInputKey,
		cmd.ExampleOutputKey,
		rules,
		StatusForRules(rules),
	}

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Process, error) {
		return repository.QueryOne(ctx, tx, q, args, scanProcess)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("process created",
		"id", p.ID,
		"name", p.Name,
		"status", p.Status,
		"training_files", len(p.TrainingFiles),
	)
	return &p, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Process, error) {
	trainingJSON, err := json.Marshal(normalizeTraining(cmd.TrainingFiles))
	if err != nil {
		return nil, fmt.Errorf("marshal training_files: %w", err)
	}

	q := `
		UPDATE processes
		SET name = $1, description = $2, input_file_type = $3,
			output_file_type = $4, training_files = $5,
			example_input_key = $6, example_output_key = $7,
			updated_at = NOW()
		WHERE id = $8
		RETURNING ` + processColumns

	args := []any{
		cmd.Name,
		cmd.Description,
		cmd.InputFileType,
		cmd.OutputFileType,
		trainingJSON,
		cmd.ExampleInputKey,
		cmd.ExampleOutputKey,
		id,
	}

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Process, error) {
		return repository.QueryOne(ctx, tx, q, args, scanProcess)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("process updated", "id", p.ID, "name", p.Name)
	return &p, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM processes WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("process deleted", "id", id)
	return nil
}

func (r *repo) SaveRules(ctx context.Context, id uuid.UUID, cmd SaveRulesCommand) (*Process, error) {
	p, err := r.persistRules(ctx, id, cmd.Rules)
	if err != nil {
		return nil, err
	}

	r.logger.Info("process rules saved", "id", p.ID, "name", p.Name, "status", p.Status)
	return p, nil
}

func (r *repo) Improve(ctx context.Context, id uuid.UUID, cmd ImproveCommand) (*Process, error) {
	current, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := workflow.Improve(ctx, r.rt, workflow.ImproveRequest{
		Name:         current.Name,
		Description:  current.Description,
		InputFormat:  string(current.InputFileType),
		OutputFormat: string(current.OutputFileType),
		CurrentRules: current.Rules,
		Feedback:     cmd.Feedback,
		OnProgress:   r.progressLogger(ctx, current.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("improve rules for %s: %w", current.Name, err)
	}

	p, err := r.persistRules(ctx, id, result.Rules)
	if err != nil {
		return nil, err
	}

	r.logger.Info("process rules improved",
		"id", p.ID,
		"name", p.Name,
		"rules_length", len(p.Rules),
	)
	return p, nil
}

func (r *repo) persistRules(ctx context.Context, id uuid.UUID, rules string) (*Process, error) {
	q := `
		UPDATE processes
		SET rules = $1, status = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + processColumns

	args := []any{rules, StatusForRules(rules), id}

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Process, error) {
		return repository.QueryOne(ctx, tx, q, args, scanProcess)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) progressLogger(ctx context.Context, name string) workflow.ProgressFunc {
	return func(stage string, percent int) {
		r.logger.InfoContext(ctx, "workflow progress",
			"process", name,
			"stage", stage,
			"percent", percent,
		)
	}
}

func trainingSources(files []TrainingFile) []workflow.TrainingFile {
	out := make([]workflow.TrainingFile, len(files))
	for i, f := range files {
		out[i] = workflow.TrainingFile{Name: f.Name, Source: f.Source}
	}
	return out
}

func normalizeTraining(files []TrainingFile) []TrainingFile {
	if files == nil {
		return []TrainingFile{}
	}
	return files
}
