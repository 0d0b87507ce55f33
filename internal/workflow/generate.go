package workflow

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
	"golang.org/x/sync/errgroup"

	"github.com/refinelab/refinery/internal/prompts"
	"github.com/refinelab/refinery/pkg/formatting"
)

var validFormats = []string{"csv", "txt", "json"}

// Generate runs the rule generation workflow: validate the request, gather
// training file contents concurrently, and transform them into a rule set
// via the model. The caller persists the result.
func Generate(ctx context.Context, rt *Runtime, req GenerateRequest) (*GenerateResult, error) {
	graph, err := buildGenerateGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initial := state.New(nil)
	initial = initial.Set(KeyGenerateRequest, req)

	final, err := graph.Execute(ctx, initial)
	if err != nil {
		return nil, err
	}

	rules, err := extractString(final, KeyRules)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransform, err)
	}

	return &GenerateResult{
		Rules:       rules,
		CompletedAt: time.Now(),
	}, nil
}

func buildGenerateGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("refinery-generate")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("validate", ValidateGenerateNode(rt)); err != nil {
		return nil, err
	}
	if err := graph.AddNode("gather", GatherTrainingNode(rt)); err != nil {
		return nil, err
	}
	if err := graph.AddNode("transform", GenerateRulesNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("validate", "gather", nil); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("gather", "transform", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("validate"); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint("transform"); err != nil {
		return nil, err
	}

	return graph, nil
}

// ValidateGenerateNode returns a state node that checks the generation
// request for missing fields and unsupported file formats.
func ValidateGenerateNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		req, err := extractGenerateRequest(s)
		if err != nil {
			return s, fmt.Errorf("validate: %w", err)
		}

		if err := validateGenerateRequest(req); err != nil {
			return s, fmt.Errorf("validate: %w", err)
		}

		report(req.OnProgress, ProgressValidating, 20)
		return s, nil
	})
}

func validateGenerateRequest(req GenerateRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: process name required", ErrValidation)
	}
	if strings.TrimSpace(req.Description) == "" {
		return fmt.Errorf("%w: process description required", ErrValidation)
	}
	if !slices.Contains(validFormats, req.InputFormat) {
		return fmt.Errorf("%w: unsupported input format %q", ErrValidation, req.InputFormat)
	}
	if !slices.Contains(validFormats, req.OutputFormat) {
		return fmt.Errorf("%w: unsupported output format %q", ErrValidation, req.OutputFormat)
	}
	for _, tf := range req.TrainingFiles {
		if strings.TrimSpace(tf.Source) == "" {
			return fmt.Errorf("%w: training file %q has no source", ErrValidation, tf.Name)
		}
	}
	return nil
}

// GatherTrainingNode returns a state node that fetches all training file
// contents concurrently and assembles them into a single delimited block.
// Order follows the request regardless of fetch completion order.
func GatherTrainingNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		req, err := extractGenerateRequest(s)
		if err != nil {
			return s, fmt.Errorf("gather: %w", err)
		}

		sections := make([]string, len(req.TrainingFiles))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(gatherLimit(len(req.TrainingFiles)))

		for i, tf := range req.TrainingFiles {
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}

				content, err := rt.Fetcher.Fetch(gctx, tf.Source)
				if err != nil {
					return fmt.Errorf("training file %s: %w", tf.Name, err)
				}

				sections[i] = trainingSection(tf.Name, content)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return s, fmt.Errorf("gather: %w: %w", ErrFetch, err)
		}

		rt.Logger.InfoContext(
			ctx, "training files gathered",
			"process", req.Name,
			"file_count", len(req.TrainingFiles),
		)

		report(req.OnProgress, ProgressGathering, 50)
		s = s.Set(KeyTrainingContent, strings.Join(sections, ""))
		return s, nil
	})
}

// GenerateRulesNode returns a state node that composes the generation prompt
// and invokes the model. An empty response is a transform failure.
func GenerateRulesNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		req, err := extractGenerateRequest(s)
		if err != nil {
			return s, fmt.Errorf("transform: %w", err)
		}

		training, err := extractString(s, KeyTrainingContent)
		if err != nil {
			return s, fmt.Errorf("transform: %w", err)
		}

		prompt, err := ComposePrompt(ctx, rt.Prompts, prompts.StageGenerate, generateBody(req, training))
		if err != nil {
			return s, fmt.Errorf("transform: %w: %w", ErrTransform, err)
		}

		resp, err := rt.Invoker.Invoke(ctx, prompt)
		if err != nil {
			return s, fmt.Errorf("transform: %w: %w", ErrTransform, err)
		}

		rules := formatting.Unfence(resp)
		if rules == "" {
			return s, fmt.Errorf("transform: %w: empty model response", ErrTransform)
		}

		rt.Logger.InfoContext(
			ctx, "rules generated",
			"process", req.Name,
			"rules_length", len(rules),
		)

		report(req.OnProgress, ProgressTransforming, 80)
		s = s.Set(KeyRules, rules)
		return s, nil
	})
}

func extractGenerateRequest(s state.State) (GenerateRequest, error) {
	val, ok := s.Get(KeyGenerateRequest)
	if !ok {
		return GenerateRequest{}, fmt.Errorf("%w: missing %s in state", ErrValidation, KeyGenerateRequest)
	}

	req, ok := val.(GenerateRequest)
	if !ok {
		return GenerateRequest{}, fmt.Errorf("%w: %s is not GenerateRequest", ErrValidation, KeyGenerateRequest)
	}

	return req, nil
}

func extractString(s state.State, key string) (string, error) {
	val, ok := s.Get(key)
	if !ok {
		return "", fmt.Errorf("missing %s in state", key)
	}

	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s is not string", key)
	}

	return str, nil
}

func gatherLimit(fileCount int) int {
	return max(min(4, fileCount), 1)
}
