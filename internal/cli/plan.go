package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "plan <id>",
		Short: "Show a stored meal plan with its items",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlan,
	}

	RootCmd.AddCommand(cmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	plan, err := a.Persister.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get plan: %w", err)
	}
	return printJSON(cmd, plan)
}
