package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/internal/workflow"
)

var startFlags struct {
	name      string
	age       int
	gender    string
	notes     string
	notesFile string
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Open a case from intake demographics and notes",
	RunE:  runStart,
}

func init() {
	f := startCmd.Flags()
	f.StringVar(&startFlags.name, "name", "", "Patient name (required)")
	f.IntVar(&startFlags.age, "age", 0, "Patient age in years (required)")
	f.StringVar(&startFlags.gender, "gender", "Unknown", "Male, Female, Non-binary, Other, or Unknown")
	f.StringVar(&startFlags.notes, "notes", "", "Initial clinical notes")
	f.StringVar(&startFlags.notesFile, "notes-file", "", "Read initial notes from a file")

	_ = startCmd.MarkFlagRequired("name")
	_ = startCmd.MarkFlagRequired("age")
	startCmd.MarkFlagsMutuallyExclusive("notes", "notes-file")
	startCmd.MarkFlagsOneRequired("notes", "notes-file")
}

func runStart(cmd *cobra.Command, _ []string) error {
	notes := startFlags.notes
	if startFlags.notesFile != "" {
		data, err := os.ReadFile(startFlags.notesFile)
		if err != nil {
			return fmt.Errorf("read notes: %w", err)
		}
		notes = string(data)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	opening, err := a.domain.Turns.Start(cmd.Context(), workflow.Intake{
		Patient: clinical.Patient{
			Name:   startFlags.name,
			Age:    startFlags.age,
			Gender: startFlags.gender,
		},
		Notes: notes,
	})
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), opening)
}
