package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/refinelab/refinery/internal/prompts"
	"github.com/refinelab/refinery/pkg/formatting"
)

// Execute runs process rules against a single input file: gather the input
// content, transform it through the model, and deliver the output to blob
// storage at the requested key. The caller owns the surrounding run record.
func Execute(ctx context.Context, rt *Runtime, req ExecuteRequest) (*ExecuteResult, error) {
	graph, err := buildExecuteGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initial := state.New(nil)
	initial = initial.Set(KeyExecuteRequest, req)

	final, err := graph.Execute(ctx, initial)
	if err != nil {
		return nil, err
	}

	output, err := extractString(final, KeyOutput)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransform, err)
	}

	return &ExecuteResult{
		Output:      output,
		OutputKey:   req.OutputKey,
		CompletedAt: time.Now(),
	}, nil
}

func buildExecuteGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("refinery-execute")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("gather", GatherInputNode(rt)); err != nil {
		return nil, err
	}
	if err := graph.AddNode("transform", ApplyRulesNode(rt)); err != nil {
		return nil, err
	}
	if err := graph.AddNode("deliver", DeliverOutputNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("gather", "transform", nil); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("transform", "deliver", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("gather"); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint("deliver"); err != nil {
		return nil, err
	}

	return graph, nil
}

// GatherInputNode returns a state node that fetches the input file content.
func GatherInputNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		req, err := extractExecuteRequest(s)
		if err != nil {
			return s, fmt.Errorf("gather: %w", err)
		}

		content, err := rt.Fetcher.Fetch(ctx, req.InputSource)
		if err != nil {
			return s, fmt.Errorf("gather: %w: %w", ErrFetch, err)
		}

		rt.Logger.InfoContext(
			ctx, "input gathered",
			"process", req.ProcessName,
			"input_bytes", len(content),
		)

		report(req.OnProgress, ProgressGathering, 40)
		s = s.Set(KeyInputContent, content)
		return s, nil
	})
}

// ApplyRulesNode returns a state node that composes the execution prompt and
// invokes the model against the input content.
func ApplyRulesNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		req, err := extractExecuteRequest(s)
		if err != nil {
			return s, fmt.Errorf("transform: %w", err)
		}

		input, err := extractString(s, KeyInputContent)
		if err != nil {
			return s, fmt.Errorf("transform: %w", err)
		}

		prompt, err := ComposePrompt(ctx, rt.Prompts, prompts.StageExecute, executeBody(req, input))
		if err != nil {
			return s, fmt.Errorf("transform: %w: %w", ErrTransform, err)
		}

		resp, err := rt.Invoker.Invoke(ctx, prompt)
		if err != nil {
			return s, fmt.Errorf("transform: %w: %w", ErrTransform, err)
		}

		output := formatting.Unfence(resp)
		if output == "" {
			return s, fmt.Errorf("transform: %w: empty model response", ErrTransform)
		}

		rt.Logger.InfoContext(
			ctx, "rules applied",
			"process", req.ProcessName,
			"output_bytes", len(output),
		)

		report(req.OnProgress, ProgressTransforming, 75)
		s = s.Set(KeyOutput, output)
		return s, nil
	})
}

// DeliverOutputNode returns a state node that uploads the transformed output
// to blob storage at the requested key, typed by the output format.
func DeliverOutputNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		req, err := extractExecuteRequest(s)
		if err != nil {
			return s, fmt.Errorf("deliver: %w", err)
		}

		output, err := extractString(s, KeyOutput)
		if err != nil {
			return s, fmt.Errorf("deliver: %w", err)
		}

		reader := strings.NewReader(output)
		if err := rt.Storage.Upload(ctx, req.OutputKey, reader, ContentType(req.OutputFormat)); err != nil {
			return s, fmt.Errorf("deliver: %w: %w", ErrPersist, err)
		}

		rt.Logger.InfoContext(
			ctx, "output delivered",
			"process", req.ProcessName,
			"output_key", req.OutputKey,
		)

		report(req.OnProgress, ProgressDelivering, 90)
		return s, nil
	})
}

// ContentType maps a process file format to the MIME type used when storing
// output blobs.
func ContentType(format string) string {
	switch format {
	case "json":
		return "application/json"
	case "csv":
		return "text/csv"
	default:
		return "text/plain"
	}
}

func extractExecuteRequest(s state.State) (ExecuteRequest, error) {
	val, ok := s.Get(KeyExecuteRequest)
	if !ok {
		return ExecuteRequest{}, fmt.Errorf("%w: missing %s in state", ErrValidation, KeyExecuteRequest)
	}

	req, ok := val.(ExecuteRequest)
	if !ok {
		return ExecuteRequest{}, fmt.Errorf("%w: %s is not ExecuteRequest", ErrValidation, KeyExecuteRequest)
	}

	return req, nil
}
