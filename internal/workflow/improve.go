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

// Improve revises an existing rule set from user feedback. The result is a
// complete replacement; the caller persists it.
func Improve(ctx context.Context, rt *Runtime, req ImproveRequest) (*ImproveResult, error) {
	graph, err := buildImproveGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initial := state.New(nil)
	initial = initial.Set(KeyImproveRequest, req)

	final, err := graph.Execute(ctx, initial)
	if err != nil {
		return nil, err
	}

	rules, err := extractString(final, KeyRules)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransform, err)
	}

	return &ImproveResult{
		Rules:       rules,
		CompletedAt: time.Now(),
	}, nil
}

func buildImproveGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("refinery-improve")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("validate", ValidateImproveNode(rt)); err != nil {
		return nil, err
	}
	if err := graph.AddNode("transform", ImproveRulesNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("validate", "transform", nil); err != nil {
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

// ValidateImproveNode returns a state node that rejects improvement requests
// without current rules or feedback.
func ValidateImproveNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		req, err := extractImproveRequest(s)
		if err != nil {
			return s, fmt.Errorf("validate: %w", err)
		}

		if strings.TrimSpace(req.CurrentRules) == "" {
			return s, fmt.Errorf("validate: %w: process has no rules to improve", ErrValidation)
		}
		if strings.TrimSpace(req.Feedback) == "" {
			return s, fmt.Errorf("validate: %w: feedback required", ErrValidation)
		}

		report(req.OnProgress, ProgressValidating, 20)
		return s, nil
	})
}

// ImproveRulesNode returns a state node that composes the improvement prompt
// and invokes the model. The response replaces the rule set wholesale.
func ImproveRulesNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		req, err := extractImproveRequest(s)
		if err != nil {
			return s, fmt.Errorf("transform: %w", err)
		}

		prompt, err := ComposePrompt(ctx, rt.Prompts, prompts.StageImprove, improveBody(req))
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
			ctx, "rules improved",
			"process", req.Name,
			"rules_length", len(rules),
		)

		report(req.OnProgress, ProgressTransforming, 80)
		s = s.Set(KeyRules, rules)
		return s, nil
	})
}

func extractImproveRequest(s state.State) (ImproveRequest, error) {
	val, ok := s.Get(KeyImproveRequest)
	if !ok {
		return ImproveRequest{}, fmt.Errorf("%w: missing %s in state", ErrValidation, KeyImproveRequest)
	}

	req, ok := val.(ImproveRequest)
	if !ok {
		return ImproveRequest{}, fmt.Errorf("%w: %s is not ImproveRequest", ErrValidation, KeyImproveRequest)
	}

	return req, nil
}
