package processes_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refinelab/refinery/internal/processes"
	"github.com/refinelab/refinery/internal/prompts"
	"github.com/refinelab/refinery/internal/workflow"
	"github.com/refinelab/refinery/pkg/lifecycle"
	"github.com/refinelab/refinery/pkg/pagination"
)

type stubPrompts struct{}

func (s *stubPrompts) Handler() *prompts.Handler { return nil }

func (s *stubPrompts) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters prompts.Filters,
) (*pagination.PageResult[prompts.Prompt], error) {
	return nil, errors.New("not implemented")
}

func (s *stubPrompts) Find(ctx context.Context, id uuid.UUID) (*prompts.Prompt, error) {
	return nil, prompts.ErrNotFound
}

func (s *stubPrompts) Create(ctx context.Context, cmd prompts.CreateCommand) (*prompts.Prompt, error) {
	return nil, errors.New("not implemented")
}

func (s *stubPrompts) Update(ctx context.Context, id uuid.UUID, cmd prompts.UpdateCommand) (*prompts.Prompt, error) {
	return nil, errors.New("not implemented")
}

func (s *stubPrompts) Delete(ctx context.Context, id uuid.UUID) error {
	return errors.New("not implemented")
}

func (s *stubPrompts) Activate(ctx context.Context, id uuid.UUID) (*prompts.Prompt, error) {
	return nil, errors.New("not implemented")
}

func (s *stubPrompts) Deactivate(ctx context.Context, id uuid.UUID) (*prompts.Prompt, error) {
	return nil, errors.New("not implemented")
}

func (s *stubPrompts) Instructions(ctx context.Context, stage prompts.Stage) (string, error) {
	return prompts.Instructions(stage)
}

func (s *stubPrompts) Spec(ctx context.Context, stage prompts.Stage) (string, error) {
	return prompts.Spec(stage)
}

type stubInvoker struct {
	response string
	err      error
	prompt   string
}

func (s *stubInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.response, s.err
}

type stubFetcher struct {
	content map[string]string
}

func (s *stubFetcher) Fetch(ctx context.Context, source string) (string, error) {
	content, ok := s.content[source]
	if !ok {
		return "", errors.New("source not found: " + source)
	}
	return content, nil
}

type stubStorage struct{}

func (s *stubStorage) Start(lc *lifecycle.Coordinator) error { return nil }
func (s *stubStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	return nil
}
func (s *stubStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}
func (s *stubStorage) Delete(ctx context.Context, key string) error          { return nil }
func (s *stubStorage) Exists(ctx context.Context, key string) (bool, error) { return false, nil }

func newRepo(t *testing.T, invoker workflow.Invoker, fetcher workflow.Fetcher) (processes.System, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rt := &workflow.Runtime{
		Invoker: invoker,
		Fetcher: fetcher,
		Storage: &stubStorage{},
		Prompts: &stubPrompts{},
		Logger:  logger,
	}

	repo := processes.NewWithRuntime(db, rt, logger, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
	return repo, mock
}

var processColumnNames = []string{
	"id", "name", "description", "input_file_type", "output_file_type",
	"training_files", "example_input_key", "example_output_key", "rules",
	"status", "created_at", "updated_at",
}

func processRow(id uuid.UUID, name, rules string, status processes.Status) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(processColumnNames).AddRow(
		id, name, "Summarize invoice line items", "csv", "json",
		[]byte(`[]`), nil, nil, rules, string(status), now, now,
	)
}

func TestCreate(t *testing.T) {
	t.Run("without training files still generates rules", func(t *testing.T) {
		invoker := &stubInvoker{response: "1. Extract the total from each row."}
		repo, mock := newRepo(t, invoker, &stubFetcher{})
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO processes").
			WillReturnRows(processRow(id, "Invoice Parser", invoker.response, processes.StatusReady))
		mock.ExpectCommit()

		p, err := repo.Create(context.Background(), processes.CreateCommand{
			Name:           "Invoice Parser",
			Description:    "Extract totals",
			InputFileType:  processes.FileTypeCSV,
			OutputFileType: processes.FileTypeJSON,
		})

		require.NoError(t, err)
		assert.Equal(t, processes.StatusReady, p.Status)
		assert.Contains(t, invoker.prompt, "Input Format: csv")
		assert.Contains(t, invoker.prompt, "Output Format: json")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("with training files generates rules and stores ready", func(t *testing.T) {
		invoker := &stubInvoker{response: "1. Validate headers.\n2. Sum amounts."}
		fetcher := &stubFetcher{content: map[string]string{
			"uploads/1/sample.csv": "id,amount\n1,10",
		}}
		repo, mock := newRepo(t, invoker, fetcher)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO processes").
			WillReturnRows(processRow(id, "invoice-summary", invoker.response, processes.StatusReady))
		mock.ExpectCommit()

		p, err := repo.Create(context.Background(), processes.CreateCommand{
			Name:           "invoice-summary",
			Description:    "Summarize invoice line items",
			InputFileType:  processes.FileTypeCSV,
			OutputFileType: processes.FileTypeJSON,
			TrainingFiles: []processes.TrainingFile{
				{Name: "sample.csv", Source: "uploads/1/sample.csv"},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, processes.StatusReady, p.Status)
		assert.Equal(t, "1. Validate headers.\n2. Sum amounts.", p.Rules)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing description rejected before model call", func(t *testing.T) {
		invoker := &stubInvoker{response: "1. Rule."}
		repo, mock := newRepo(t, invoker, &stubFetcher{})

		_, err := repo.Create(context.Background(), processes.CreateCommand{
			Name:           "invoice-summary",
			InputFileType:  processes.FileTypeCSV,
			OutputFileType: processes.FileTypeJSON,
		})

		assert.ErrorIs(t, err, workflow.ErrValidation)
		assert.Empty(t, invoker.prompt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("workflow failure aborts before insert", func(t *testing.T) {
		invoker := &stubInvoker{err: errors.New("model unavailable")}
		fetcher := &stubFetcher{content: map[string]string{
			"uploads/1/sample.csv": "id,amount\n1,10",
		}}
		repo, mock := newRepo(t, invoker, fetcher)

		_, err := repo.Create(context.Background(), processes.CreateCommand{
			Name:           "invoice-summary",
			Description:    "Summarize invoice line items",
			InputFileType:  processes.FileTypeCSV,
			OutputFileType: processes.FileTypeJSON,
			TrainingFiles: []processes.TrainingFile{
				{Name: "sample.csv", Source: "uploads/1/sample.csv"},
			},
		})

		assert.ErrorIs(t, err, workflow.ErrTransform)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate name maps to ErrDuplicate", func(t *testing.T) {
		repo, mock := newRepo(t, &stubInvoker{response: "1. Rule."}, &stubFetcher{})

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO processes").
			WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectRollback()

		_, err := repo.Create(context.Background(), processes.CreateCommand{
			Name:           "invoice-summary",
			Description:    "Summarize invoice line items",
			InputFileType:  processes.FileTypeCSV,
			OutputFileType: processes.FileTypeJSON,
		})

		assert.ErrorIs(t, err, processes.ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFind(t *testing.T) {
	t.Run("returns process", func(t *testing.T) {
		repo, mock := newRepo(t, &stubInvoker{}, &stubFetcher{})
		id := uuid.New()

		mock.ExpectQuery("SELECT .* FROM public.processes p WHERE p.id").
			WithArgs(id).
			WillReturnRows(processRow(id, "invoice-summary", "rules", processes.StatusReady))

		p, err := repo.Find(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, p.ID)
		assert.Equal(t, "invoice-summary", p.Name)
	})

	t.Run("missing process maps to ErrNotFound", func(t *testing.T) {
		repo, mock := newRepo(t, &stubInvoker{}, &stubFetcher{})
		id := uuid.New()

		mock.ExpectQuery("SELECT .* FROM public.processes p WHERE p.id").
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Find(context.Background(), id)
		assert.ErrorIs(t, err, processes.ErrNotFound)
	})
}

func TestSaveRules(t *testing.T) {
	repo, mock := newRepo(t, &stubInvoker{}, &stubFetcher{})
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE processes").
		WithArgs("1. Manual rule.", "ready", id).
		WillReturnRows(processRow(id, "invoice-summary", "1. Manual rule.", processes.StatusReady))
	mock.ExpectCommit()

	p, err := repo.SaveRules(context.Background(), id, processes.SaveRulesCommand{
		Rules: "1. Manual rule.",
	})

	require.NoError(t, err)
	assert.Equal(t, processes.StatusReady, p.Status)
	assert.Equal(t, "1. Manual rule.", p.Rules)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImprove(t *testing.T) {
	t.Run("replaces rules from feedback", func(t *testing.T) {
		invoker := &stubInvoker{response: "1. Validate headers.\n2. Reject negatives."}
		repo, mock := newRepo(t, invoker, &stubFetcher{})
		id := uuid.New()

		mock.ExpectQuery("SELECT .* FROM public.processes p WHERE p.id").
			WithArgs(id).
			WillReturnRows(processRow(id, "invoice-summary", "1. Validate headers.", processes.StatusReady))

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE processes").
			WithArgs(invoker.response, "ready", id).
			WillReturnRows(processRow(id, "invoice-summary", invoker.response, processes.StatusReady))
		mock.ExpectCommit()

		p, err := repo.Improve(context.Background(), id, processes.ImproveCommand{
			Feedback: "Also reject rows with negative amounts.",
		})

		require.NoError(t, err)
		assert.Equal(t, invoker.response, p.Rules)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("draft process rejected before model call", func(t *testing.T) {
		repo, mock := newRepo(t, &stubInvoker{response: "x"}, &stubFetcher{})
		id := uuid.New()

		mock.ExpectQuery("SELECT .* FROM public.processes p WHERE p.id").
			WithArgs(id).
			WillReturnRows(processRow(id, "invoice-summary", "", processes.StatusDraft))

		_, err := repo.Improve(context.Background(), id, processes.ImproveCommand{
			Feedback: "Tighten validation.",
		})

		assert.ErrorIs(t, err, workflow.ErrValidation)
	})
}

func TestDelete(t *testing.T) {
	t.Run("deletes existing process", func(t *testing.T) {
		repo, mock := newRepo(t, &stubInvoker{}, &stubFetcher{})
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM processes").
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Delete(context.Background(), id)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing process maps to ErrNotFound", func(t *testing.T) {
		repo, mock := newRepo(t, &stubInvoker{}, &stubFetcher{})
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM processes").
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Delete(context.Background(), id)
		assert.ErrorIs(t, err, processes.ErrNotFound)
	})
}

func TestList(t *testing.T) {
	repo, mock := newRepo(t, &stubInvoker{}, &stubFetcher{})
	id := uuid.New()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM public.processes p").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT .* FROM public.processes p ORDER BY p.updated_at DESC LIMIT 20 OFFSET 0").
		WillReturnRows(processRow(id, "invoice-summary", "rules", processes.StatusReady))

	result, err := repo.List(context.Background(), pagination.PageRequest{}, processes.Filters{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Len(t, result.Data, 1)
	assert.Equal(t, "invoice-summary", result.Data[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
