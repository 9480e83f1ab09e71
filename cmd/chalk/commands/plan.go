package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/chalk/internal/printer"
	"github.com/dyluth/chalk/pkg/blackboard"
)

var planCmd = &cobra.Command{
	Use:   "plan <plan-id>",
	Short: "Show a stored plan",
	Long: `Fetch a plan from the blackboard store by its UUID and print it as
pretty-printed JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
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

	plan, err := store.ReadPlan(cmd.Context(), planID)
	if err != nil {
		if blackboard.IsNotFound(err) {
			return printer.Errorf("plan '%s' not found (it may have expired)", planID)
		}
		return fmt.Errorf("failed to fetch plan: %w", err)
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format plan: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
	return nil
}
