package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/refinelab/refinery/internal/prompts"
	"github.com/refinelab/refinery/pkg/storage"
)

// Invoker sends a composed prompt to a language model and returns the raw
// response content.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Fetcher resolves a content source (blob storage key or http(s) URL) to
// its text content.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (string, error)
}

// Runtime bundles the dependencies that workflow nodes require.
// It is constructed by higher-level composition code from Infrastructure
// and Domain systems.
type Runtime struct {
	Invoker Invoker
	Fetcher Fetcher
	Storage storage.System
	Prompts prompts.System
	Logger  *slog.Logger
}

// NewRuntime creates a Runtime backed by a go-agents invoker and a fetcher
// that resolves storage keys and http(s) URLs.
func NewRuntime(
	agentCfg gaconfig.AgentConfig,
	store storage.System,
	ps prompts.System,
	logger *slog.Logger,
) *Runtime {
	return &Runtime{
		Invoker: &agentInvoker{cfg: agentCfg},
		Fetcher: &sourceFetcher{
			storage: store,
			client:  &http.Client{Timeout: 2 * time.Minute},
		},
		Storage: store,
		Prompts: ps,
		Logger:  logger.With("system", "workflow"),
	}
}

type agentInvoker struct {
	cfg gaconfig.AgentConfig
}

// Invoke creates a fresh agent per call so concurrent workflows never share
// conversation state.
func (i *agentInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	a, err := agent.New(&i.cfg)
	if err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}

	resp, err := a.Chat(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("chat call: %w", err)
	}

	return resp.Text(), nil
}

type sourceFetcher struct {
	storage storage.System
	client  *http.Client
}

func (f *sourceFetcher) Fetch(ctx context.Context, source string) (string, error) {
	if isURL(source) {
		return f.fetchURL(ctx, source)
	}
	return f.fetchBlob(ctx, source)
}

func (f *sourceFetcher) fetchBlob(ctx context.Context, key string) (string, error) {
	body, err := f.storage.Download(ctx, key)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", key, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}

	return string(data), nil
}

func (f *sourceFetcher) fetchURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("get %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}

	return string(data), nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
