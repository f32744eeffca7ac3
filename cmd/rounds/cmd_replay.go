package main

import (
	"context"
	"embed"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/internal/config"
	"github.com/JaimeStill/rounds/internal/domain"
	"github.com/JaimeStill/rounds/internal/infrastructure"
	"github.com/JaimeStill/rounds/internal/oracle"
	"github.com/JaimeStill/rounds/internal/turns"
	"github.com/JaimeStill/rounds/internal/workflow"
)

//go:embed scenarios/*.yaml
var scenarios embed.FS

// scenario is a scripted session: the intake, the oracle responses for each
// stage in call order, and the Doctor activity of each turn.
type scenario struct {
	Name        string                   `yaml:"name"`
	Description string                   `yaml:"description"`
	Intake      workflow.Intake          `yaml:"intake"`
	Oracle      map[string][]oracle.Step `yaml:"oracle"`
	Turns       []scenarioTurn           `yaml:"turns"`
}

type scenarioTurn struct {
	Message string         `yaml:"message"`
	Edits   []scenarioEdit `yaml:"edits"`
}

type scenarioEdit struct {
	AddEvidence *struct {
		Content      string                `yaml:"content"`
		ClinicalType clinical.ClinicalType `yaml:"clinical_type"`
		Polarity     clinical.Polarity     `yaml:"polarity"`
	} `yaml:"add_evidence"`
	AddDiagnosis *struct {
		Name      string `yaml:"name"`
		Reasoning string `yaml:"reasoning"`
	} `yaml:"add_diagnosis"`
}

// replayReport is the outcome of a replayed scenario.
type replayReport struct {
	Scenario string          `json:"scenario"`
	Opening  *turns.Opening  `json:"opening"`
	Results  []*turns.Result `json:"results"`
	Final    *clinical.State `json:"final"`
}

var replayFlags struct {
	example string
	list    bool
	json    bool
}

var replayCmd = &cobra.Command{
	Use:   "replay [scenario.yaml]",
	Short: "Replay a scripted session against an in-memory case store",
	Long: "Replays a scenario file, or a built-in example, with the scripted\n" +
		"oracle. Nothing is written to the configured database or archive.",
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

func init() {
	f := replayCmd.Flags()
	f.StringVar(&replayFlags.example, "example", "", "Replay a built-in example by name")
	f.BoolVar(&replayFlags.list, "list", false, "List built-in examples")
	f.BoolVar(&replayFlags.json, "json", false, "Print the full report as JSON")
}

func runReplay(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if replayFlags.list {
		names, err := exampleNames()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	var (
		sc  *scenario
		err error
	)
	switch {
	case len(args) == 1:
		sc, err = loadScenarioFile(args[0])
	case replayFlags.example != "":
		sc, err = loadExample(replayFlags.example)
	default:
		return fmt.Errorf("a scenario file or --example is required")
	}
	if err != nil {
		return err
	}

	report, err := replay(cmd.Context(), sc, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if replayFlags.json {
		return writeJSON(out, report)
	}
	printReport(out, report)
	return nil
}

func exampleNames() ([]string, error) {
	entries, err := scenarios.ReadDir("scenarios")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return names, nil
}

func loadExample(name string) (*scenario, error) {
	data, err := scenarios.ReadFile(path.Join("scenarios", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown example %q", name)
	}
	return parseScenario(data)
}

func loadScenarioFile(p string) (*scenario, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return parseScenario(data)
}

func parseScenario(data []byte) (*scenario, error) {
	var sc scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(sc.Turns) == 0 {
		return nil, fmt.Errorf("scenario %q has no turns", sc.Name)
	}
	return &sc, nil
}

// replay runs sc with a fresh in-memory store and the scenario's scripted
// oracle. Pipeline settings still come from defaults and ROUNDS_* variables.
func replay(ctx context.Context, sc *scenario, logOutput io.Writer) (*replayReport, error) {
	cfg := &config.Config{
		Store:   config.StoreMemory,
		Archive: config.ArchiveNone,
		Oracle: config.OracleConfig{
			Provider: config.OracleScript,
			Script:   "scenario:" + sc.Name,
		},
	}
	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("replay config: %w", err)
	}
	cfg.Store = config.StoreMemory
	cfg.Archive = config.ArchiveNone

	infra, err := infrastructure.New(cfg, logOutput)
	if err != nil {
		return nil, err
	}
	if err := infra.Start(ctx); err != nil {
		return nil, err
	}
	defer infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())

	d, err := domain.New(cfg, infra, oracle.NewScript(sc.Oracle))
	if err != nil {
		return nil, err
	}

	opening, err := d.Turns.Start(ctx, sc.Intake)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	id := opening.State.CaseID

	report := &replayReport{Scenario: sc.Name, Opening: opening}
	for i, t := range sc.Turns {
		if err := applyEdits(ctx, d.Turns, opening.State, t.Edits); err != nil {
			return nil, fmt.Errorf("turn %d edits: %w", i+1, err)
		}
		result := d.Turns.RunTurn(ctx, id, t.Message)
		report.Results = append(report.Results, result)
		if !result.Outcome.Committed() {
			break
		}
	}

	final, err := d.Cases.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	report.Final = final

	return report, nil
}

func applyEdits(ctx context.Context, sys turns.System, s *clinical.State, edits []scenarioEdit) error {
	for _, e := range edits {
		if ev := e.AddEvidence; ev != nil {
			if _, err := sys.AddEvidence(ctx, s.CaseID, ev.Content, ev.ClinicalType, ev.Polarity); err != nil {
				return err
			}
		}
		if dx := e.AddDiagnosis; dx != nil {
			if _, err := sys.AddDiagnosis(ctx, s.CaseID, dx.Name, dx.Reasoning); err != nil {
				return err
			}
		}
	}
	return nil
}

func printReport(w io.Writer, r *replayReport) {
	fmt.Fprintf(w, "Scenario: %s\n", r.Scenario)
	fmt.Fprintf(w, "Case:     %s\n", r.Opening.State.CaseID)
	fmt.Fprintf(w, "Intake:   %d findings, %d warnings\n", len(r.Opening.State.Evidence), len(r.Opening.Warnings))

	for _, res := range r.Results {
		turn := "-"
		if res.Outcome.Committed() {
			turn = fmt.Sprintf("%d", res.State.Turn)
		}
		fmt.Fprintf(w, "Turn %s:  %s phase=%s warnings=%d", turn, res.Outcome.Status, res.Phase, len(res.Warnings))
		if res.Outcome.Reason != "" {
			fmt.Fprintf(w, " reason=%s", res.Outcome.Reason)
		}
		fmt.Fprintln(w)
		for _, v := range res.Warnings {
			fmt.Fprintf(w, "  dropped %s/%s: %s\n", v.Stage, v.Item, v.Reason)
		}
	}

	f := r.Final
	fmt.Fprintf(w, "Final:    turn %d, %d active evidence, %d active diagnoses\n",
		f.Turn, len(f.ActiveEvidence()), len(f.ActiveDiagnoses()))
	for _, d := range f.ActiveDiagnoses() {
		fmt.Fprintf(w, "  %-40s %-6s confidence=%.2f (%s)\n",
			d.Name, d.Creator, d.Metrics.Confidence, clinical.TierOf(d.Metrics.Confidence))
	}
	if f.Strategy != nil && f.Strategy.NextQuestion != nil {
		fmt.Fprintf(w, "Next:     %s\n", *f.Strategy.NextQuestion)
	}
}
