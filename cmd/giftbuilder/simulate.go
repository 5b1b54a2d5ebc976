package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Victor-armando18/service-giftbuilder/internal/config"
	"github.com/Victor-armando18/service-giftbuilder/internal/domain"
	"github.com/Victor-armando18/service-giftbuilder/internal/domain/model"
	"github.com/Victor-armando18/service-giftbuilder/internal/infrastructure/diff"
	"github.com/Victor-armando18/service-giftbuilder/internal/infrastructure/jsonlogic"
	"github.com/Victor-armando18/service-giftbuilder/internal/infrastructure/rules"
	"github.com/Victor-armando18/service-giftbuilder/internal/interfaces"
	"github.com/Victor-armando18/service-giftbuilder/pkg/giftbuilder"
)

// scenario is a scripted list of actions replayed through the reducer.
type scenario struct {
	Name    string                 `yaml:"name"`
	Tiers   giftbuilder.Tiers      `yaml:"tiers"`
	Actions []giftbuilder.Envelope `yaml:"actions"`
}

type stepLog struct {
	Kind    giftbuilder.Kind
	Applied bool
	Changed []string
}

type simulation struct {
	Steps        []stepLog
	Final        giftbuilder.State
	GuardsHit    []domain.GuardViolation
	RulesVersion string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario.yaml>",
	Short: "Replay a scripted action list through the builder and report guard results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		sc, err := loadScenario(args[0])
		if err != nil {
			return err
		}
		if len(sc.Tiers) == 0 {
			sc.Tiers = cfg.Discount.Tiers
		}

		res, err := simulate(cmd.Context(), sc, rules.NewFileLoader(cfg.Rules.Dir), jsonlogic.NewExecutor(), cfg.Rules.Version)
		if err != nil {
			return err
		}
		printSimulation(cmd.OutOrStdout(), sc.Name, res)
		return nil
	},
}

func loadScenario(path string) (scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scenario{}, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	var sc scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return scenario{}, fmt.Errorf("failed to unmarshal scenario %s: %w", path, err)
	}
	if err := sc.Tiers.Validate(); err != nil {
		return scenario{}, err
	}
	return sc, nil
}

func simulate(ctx context.Context, sc scenario, loader interfaces.GuardPackLoader, executor interfaces.GuardExecutor, version string) (simulation, error) {
	reducer := giftbuilder.NewReducer(sc.Tiers)
	differ := &diff.Differ{}

	var res simulation
	state := giftbuilder.InitialState()
	for i, env := range sc.Actions {
		action, err := env.Action()
		if err != nil {
			return simulation{}, fmt.Errorf("action %d: %w", i+1, err)
		}
		if add, ok := action.(giftbuilder.AddProduct); ok && state.HasProduct(add.Product.ProductID) {
			res.Steps = append(res.Steps, stepLog{Kind: action.Kind()})
			continue
		}
		next := reducer.Reduce(state, action)
		changed, err := differ.ChangedFields(state, next)
		if err != nil {
			return simulation{}, err
		}
		res.Steps = append(res.Steps, stepLog{Kind: action.Kind(), Applied: len(changed) > 0, Changed: changed})
		state = next
	}
	res.Final = state

	pack, err := loader.Load(ctx, version)
	if err != nil {
		return simulation{}, err
	}
	res.RulesVersion = pack.Version
	data := model.NewCartSubmission("simulation", state).ToMap()
	for _, guard := range pack.Guards {
		out, err := executor.Execute(ctx, guard.Logic, data)
		if err != nil {
			return simulation{}, fmt.Errorf("guard %s: %w", guard.ID, err)
		}
		if jsonlogic.Truthy(out) {
			res.GuardsHit = append(res.GuardsHit, domain.GuardViolation{RuleID: guard.ID, Reason: "Violation Detected", Context: guard.ErrorMessage})
		}
	}
	return res, nil
}

func printSimulation(w io.Writer, name string, res simulation) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "   GIFT BUILDER SIMULATION %s\n", name)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintln(w, "\n[1. ACTIONS]")
	for i, step := range res.Steps {
		status := "ignored"
		if step.Applied {
			status = "changed " + strings.Join(step.Changed, ", ")
		}
		fmt.Fprintf(w, "   %2d [%-14s] -> %s\n", i+1, step.Kind, status)
	}

	fmt.Fprintln(w, "\n[2. FINAL STATE]")
	stateJSON, _ := json.MarshalIndent(res.Final, "   ", "  ")
	fmt.Fprintf(w, "   %s\n", stateJSON)

	fmt.Fprintln(w, "\n[3. GUARDS]")
	if len(res.GuardsHit) == 0 {
		fmt.Fprintln(w, "   no violations")
	}
	for _, g := range res.GuardsHit {
		fmt.Fprintf(w, "   BLOCKED [%s] %s\n", g.RuleID, g.Context)
	}

	fmt.Fprintln(w, "\n[4. SUMMARY]")
	fmt.Fprintf(w, "   Status:      %s\n", map[bool]string{true: "BLOCKED", false: "READY"}[len(res.GuardsHit) > 0])
	fmt.Fprintf(w, "   Products:    %d\n", len(res.Final.SelectedProducts))
	fmt.Fprintf(w, "   Total:       %.2f\n", res.Final.TotalPrice)
	fmt.Fprintf(w, "   Discount:    %.2f\n", res.Final.Discount)
	fmt.Fprintf(w, "   Final price: %.2f\n", res.Final.TotalPrice-res.Final.Discount)
	fmt.Fprintf(w, "   Rules:       %s\n", res.RulesVersion)
	fmt.Fprintln(w, strings.Repeat("=", 60))
}
