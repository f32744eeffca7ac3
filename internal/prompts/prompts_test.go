package prompts_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JaimeStill/rounds/internal/prompts"
)

func TestStages(t *testing.T) {
	want := []prompts.Stage{
		prompts.StageIntake,
		prompts.StageOrchestrate,
		prompts.StageEvidence,
		prompts.StageDiagnosis,
	}

	stages := prompts.Stages()
	if len(stages) != len(want) {
		t.Fatalf("len(Stages()) = %d, want %d", len(stages), len(want))
	}
	for i, s := range stages {
		if s != want[i] {
			t.Errorf("Stages()[%d] = %q, want %q", i, s, want[i])
		}
	}
}

func TestStageUnmarshalJSON(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var s prompts.Stage
		if err := json.Unmarshal([]byte(`"diagnosis"`), &s); err != nil {
			t.Fatalf("Unmarshal error: %v", err)
		}
		if s != prompts.StageDiagnosis {
			t.Errorf("Unmarshal = %q, want %q", s, prompts.StageDiagnosis)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		var s prompts.Stage
		err := json.Unmarshal([]byte(`"classify"`), &s)
		if !errors.Is(err, prompts.ErrInvalidStage) {
			t.Errorf("Unmarshal error = %v, want ErrInvalidStage", err)
		}
	})
}

func TestDefaults(t *testing.T) {
	for _, stage := range prompts.Stages() {
		t.Run(string(stage), func(t *testing.T) {
			instructions, err := prompts.Instructions(stage)
			if err != nil {
				t.Fatalf("Instructions error: %v", err)
			}
			if instructions == "" {
				t.Error("Instructions returned empty text")
			}

			spec, err := prompts.Spec(stage)
			if err != nil {
				t.Fatalf("Spec error: %v", err)
			}
			if !strings.Contains(spec, "valid JSON") {
				t.Error("Spec does not require JSON output")
			}
		})
	}

	if _, err := prompts.Spec("finalize"); !errors.Is(err, prompts.ErrInvalidStage) {
		t.Errorf("Spec(finalize) error = %v, want ErrInvalidStage", err)
	}
}

func TestOrchestrateSpecNamesGrantFields(t *testing.T) {
	spec, err := prompts.Spec(prompts.StageOrchestrate)
	if err != nil {
		t.Fatalf("Spec error: %v", err)
	}

	fields := []string{
		"to_be_updated_evidence_ids",
		"to_be_redundant_evidence_ids",
		"focus_diagnosis_ids",
		"to_be_updated_ai_diagnosis_ids",
		"to_be_redundant_ai_diagnosis_ids",
		"trigger_rationale",
	}
	for _, f := range fields {
		if !strings.Contains(spec, f) {
			t.Errorf("orchestrate spec missing %q", f)
		}
	}
}

func TestNewOverrides(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[prompts.Stage]string
		wantErr   error
	}{
		{"none", nil, nil},
		{"valid", map[prompts.Stage]string{prompts.StageEvidence: "custom"}, nil},
		{"unknown stage", map[prompts.Stage]string{"enhance": "custom"}, prompts.ErrInvalidStage},
		{"blank", map[prompts.Stage]string{prompts.StageEvidence: "  \n"}, prompts.ErrEmptyOverride},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := prompts.New(tt.overrides)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "orchestrate.md"), []byte("tuned orchestrator"), 0600); err != nil {
		t.Fatal(err)
	}

	sys, err := prompts.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir error: %v", err)
	}

	got, err := sys.Instructions(prompts.StageOrchestrate)
	if err != nil {
		t.Fatalf("Instructions error: %v", err)
	}
	if got != "tuned orchestrator" {
		t.Errorf("Instructions(orchestrate) = %q, want override", got)
	}

	def, _ := prompts.Instructions(prompts.StageEvidence)
	got, err = sys.Instructions(prompts.StageEvidence)
	if err != nil {
		t.Fatalf("Instructions error: %v", err)
	}
	if got != def {
		t.Error("Instructions(evidence) should fall back to the default")
	}

	spec, _ := prompts.Spec(prompts.StageOrchestrate)
	got, _ = sys.Spec(prompts.StageOrchestrate)
	if got != spec {
		t.Error("Spec must not be overridable")
	}
}
