package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var turnFlags struct {
	message string
}

var turnCmd = &cobra.Command{
	Use:   "turn <case-id>",
	Short: "Advance a case by one turn",
	Long: "Runs the orchestrator and any auditors it authorizes over the Doctor\n" +
		"edits made since the last turn, then commits the merged state.",
	Args: cobra.ExactArgs(1),
	RunE: runTurn,
}

func init() {
	turnCmd.Flags().StringVarP(&turnFlags.message, "message", "m", "", "Doctor chat message for this turn")
}

func runTurn(cmd *cobra.Command, args []string) error {
	id, err := parseCaseID(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	result := a.domain.Turns.RunTurn(cmd.Context(), id, turnFlags.message)
	if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
		return err
	}

	if !result.Outcome.Committed() {
		return fmt.Errorf("turn failed (%s): %s", result.Outcome.Reason, result.Outcome.Error)
	}
	return nil
}
