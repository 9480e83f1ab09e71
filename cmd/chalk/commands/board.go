package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/chalk/internal/board"
	"github.com/dyluth/chalk/internal/printer"
	"github.com/dyluth/chalk/pkg/blackboard"
)

var boardJSON bool

var boardCmd = &cobra.Command{
	Use:   "board <plan-id>",
	Short: "Show a plan's blackboard index",
	Long: `List every entry written to the blackboard for a plan: results and
context descriptions, keyed by their full entry key.`,
	Args: cobra.ExactArgs(1),
	RunE: runBoard,
}

func init() {
	boardCmd.Flags().BoolVar(&boardJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(boardCmd)
}

func runBoard(cmd *cobra.Command, args []string) error {
	planID := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.ReadBlackboard(cmd.Context(), planID)
	if err != nil {
		if blackboard.IsNotFound(err) {
			printer.Info("No blackboard entries found for plan '%s'\n", planID)
			return nil
		}
		return fmt.Errorf("failed to fetch blackboard: %w", err)
	}

	if boardJSON {
		return board.FormatJSON(cmd.OutOrStdout(), entries)
	}
	board.FormatTable(cmd.OutOrStdout(), entries, planID)
	return nil
}
