package cli

import (
	"fmt"
	"time"

	"mealmind/internal/core/persist"
	"mealmind/internal/core/planner"

	"github.com/spf13/cobra"
)

type generateOutput struct {
	*planner.Result
	Persisted *persist.Result `json:"persisted,omitempty"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a 7-day meal plan for a profile",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
	cmd.Flags().StringP("profile", "p", "", "Profile JSON file (- for stdin)")
	cmd.Flags().Bool("force", false, "Skip the cache lookup and regenerate")
	cmd.Flags().Bool("persist", false, "Store the generated plan")
	cmd.Flags().String("user", "", "User id for --persist")
	cmd.Flags().String("start", "", "Plan start date YYYY-MM-DD for --persist (default: today)")
	_ = cmd.MarkFlagRequired("profile")

	RootCmd.AddCommand(cmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	profilePath, _ := cmd.Flags().GetString("profile")
	force, _ := cmd.Flags().GetBool("force")
	doPersist, _ := cmd.Flags().GetBool("persist")
	userID, _ := cmd.Flags().GetString("user")
	startFlag, _ := cmd.Flags().GetString("start")

	var start time.Time
	if doPersist {
		if userID == "" {
			return fmt.Errorf("--user is required with --persist")
		}
		if startFlag != "" {
			var err error
			if start, err = time.Parse("2006-01-02", startFlag); err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
		}
	}

	prof, err := readProfile(cmd, profilePath)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Planner.Generate(cmd.Context(), prof, force)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	out := generateOutput{Result: res}
	if doPersist {
		stored, err := a.Persister.Persist(cmd.Context(), userID, res.Document, start)
		if err != nil {
			return fmt.Errorf("persist: %w", err)
		}
		out.Persisted = stored
	}
	return printJSON(cmd, out)
}
