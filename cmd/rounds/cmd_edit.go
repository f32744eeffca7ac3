package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/rounds/internal/clinical"
)

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Record or retire Doctor evidence between turns",
}

var diagnosisCmd = &cobra.Command{
	Use:   "diagnosis",
	Short: "Record or retire Doctor diagnoses between turns",
}

var evidenceAddFlags struct {
	content      string
	clinicalType string
	polarity     string
}

var evidenceAddCmd = &cobra.Command{
	Use:   "add <case-id>",
	Short: "Record a Doctor finding",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvidenceAdd,
}

var evidenceRetireCmd = &cobra.Command{
	Use:   "retire <case-id> <evidence-id>",
	Short: "Mark an evidence entry redundant",
	Args:  cobra.ExactArgs(2),
	RunE:  runEvidenceRetire,
}

var diagnosisAddFlags struct {
	name      string
	reasoning string
}

var diagnosisAddCmd = &cobra.Command{
	Use:   "add <case-id>",
	Short: "Record a Doctor diagnosis",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagnosisAdd,
}

var diagnosisRetireCmd = &cobra.Command{
	Use:   "retire <case-id> <diagnosis-id>",
	Short: "Mark a diagnosis redundant",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiagnosisRetire,
}

func init() {
	f := evidenceAddCmd.Flags()
	f.StringVar(&evidenceAddFlags.content, "content", "", "Finding text (required)")
	f.StringVar(&evidenceAddFlags.clinicalType, "type", "Symptom", "Symptom, Sign, Lab, or History")
	f.StringVar(&evidenceAddFlags.polarity, "polarity", "Positive", "Positive when present, Negative when absent")
	_ = evidenceAddCmd.MarkFlagRequired("content")

	g := diagnosisAddCmd.Flags()
	g.StringVar(&diagnosisAddFlags.name, "name", "", "Diagnosis name (required)")
	g.StringVar(&diagnosisAddFlags.reasoning, "reasoning", "", "Clinical justification")
	_ = diagnosisAddCmd.MarkFlagRequired("name")

	evidenceCmd.AddCommand(evidenceAddCmd, evidenceRetireCmd)
	diagnosisCmd.AddCommand(diagnosisAddCmd, diagnosisRetireCmd)
}

func runEvidenceAdd(cmd *cobra.Command, args []string) error {
	id, err := parseCaseID(args[0])
	if err != nil {
		return err
	}
	t, err := clinical.ParseClinicalType(evidenceAddFlags.clinicalType)
	if err != nil {
		return err
	}
	p, err := clinical.ParsePolarity(evidenceAddFlags.polarity)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	e, err := a.domain.Turns.AddEvidence(cmd.Context(), id, evidenceAddFlags.content, t, p)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), e)
}

func runEvidenceRetire(cmd *cobra.Command, args []string) error {
	id, err := parseCaseID(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.domain.Turns.RetireEvidence(cmd.Context(), id, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "evidence %s marked redundant\n", args[1])
	return nil
}

func runDiagnosisAdd(cmd *cobra.Command, args []string) error {
	id, err := parseCaseID(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	d, err := a.domain.Turns.AddDiagnosis(cmd.Context(), id, diagnosisAddFlags.name, diagnosisAddFlags.reasoning)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), d)
}

func runDiagnosisRetire(cmd *cobra.Command, args []string) error {
	id, err := parseCaseID(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.domain.Turns.RetireDiagnosis(cmd.Context(), id, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "diagnosis %s marked redundant\n", args[1])
	return nil
}
