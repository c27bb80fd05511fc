package app

import (
	"context"
	"fmt"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/rulekey"
)

// TargetsOptions configuration for the Targets method.
type TargetsOptions struct {
	Dir         string
	ShowRuleKey bool
}

// Targets prints every target of the workspace with its type, sorted, and optionally
// its rule key.
func (a *App) Targets(ctx context.Context, opts TargetsOptions) error {
	ws, err := a.workspace(opts.Dir)
	if err != nil {
		return err
	}
	graph, err := a.deps.Loader.LoadGraph(ws)
	if err != nil {
		return err
	}
	targets := domain.SortTargets(graph.Targets())

	if !opts.ShowRuleKey {
		for _, t := range targets {
			n, _ := graph.Node(t)
			_, _ = fmt.Fprintf(a.stdout, "%s %s\n", t, n.Type)
		}
		return nil
	}

	ag, err := a.actionGraph(ctx, ws.Settings, graph, targets)
	if err != nil {
		return err
	}
	keys := rulekey.NewFactory(ws.Settings.KeySeed, ws.Root, a.deps.Hasher)
	for _, t := range targets {
		r, _ := ag.Rule(t)
		key, err := keys.RuleKey(r)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.stdout, "%s %s %s\n", t, r.Type(), key)
	}
	return nil
}
