package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/rounds/internal/cases"
	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/pkg/pagination"
)

var showCmd = &cobra.Command{
	Use:   "show <case-id>",
	Short: "Print the committed state of a case and its pending delta",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var historyCmd = &cobra.Command{
	Use:   "history <case-id> [turn]",
	Short: "List archived turns of a case, or print one turn record",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runHistory,
}

var casesFlags struct {
	page     int
	pageSize int
	search   string
	sort     string
	gender   string
	minTurn  int
}

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "List cases",
	Args:  cobra.NoArgs,
	RunE:  runCases,
}

func init() {
	f := casesCmd.Flags()
	f.IntVar(&casesFlags.page, "page", 1, "Page number")
	f.IntVar(&casesFlags.pageSize, "page-size", 0, "Page size (default from config)")
	f.StringVar(&casesFlags.search, "search", "", "Match patient names containing this text")
	f.StringVar(&casesFlags.sort, "sort", "", "Sort fields, e.g. PatientName,-UpdatedAt")
	f.StringVar(&casesFlags.gender, "gender", "", "Only cases with this gender")
	f.IntVar(&casesFlags.minTurn, "min-turn", 0, "Only cases at or past this turn")
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseCaseID(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := a.domain.Cases.Find(cmd.Context(), id)
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), struct {
		State   *clinical.State `json:"state"`
		Pending clinical.Delta  `json:"pending_delta"`
	}{s, clinical.ComputeDelta(s)})
}

func runHistory(cmd *cobra.Command, args []string) error {
	id, err := parseCaseID(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if a.domain.Archive == nil {
		return fmt.Errorf("turn archive is disabled: set archive = \"blob\"")
	}

	if len(args) == 2 {
		turn, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid turn %q: %w", args[1], err)
		}
		rec, err := a.domain.Archive.Load(cmd.Context(), id, turn)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), rec)
	}

	history, err := a.domain.Archive.History(cmd.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), history)
}

func runCases(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	page := pagination.NewPageRequest(
		casesFlags.page,
		casesFlags.pageSize,
		casesFlags.search,
		casesFlags.sort,
		a.cfg.Pagination,
	)

	var filters cases.Filters
	if casesFlags.gender != "" {
		filters.Gender = &casesFlags.gender
	}
	if casesFlags.minTurn > 0 {
		filters.MinTurn = &casesFlags.minTurn
	}

	result, err := a.domain.Cases.List(cmd.Context(), page, filters)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}
