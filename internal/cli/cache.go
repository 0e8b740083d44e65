package cli

import (
	"fmt"

	"mealmind/internal/core/profile"

	"github.com/spf13/cobra"
)

func init() {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear cached meal plans",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE:  runCacheStats,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the cached plan for a profile, or every cached plan",
		Args:  cobra.NoArgs,
		RunE:  runCacheClear,
	}
	clearCmd.Flags().StringP("profile", "p", "", "Only clear the entry for this profile JSON file")

	cacheCmd.AddCommand(statsCmd, clearCmd)
	RootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.Planner.CacheStats(cmd.Context())
	if err != nil {
		return fmt.Errorf("cache stats: %w", err)
	}
	return printJSON(cmd, stats)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	profilePath, _ := cmd.Flags().GetString("profile")

	var target *profile.UserProfile
	if profilePath != "" {
		p, err := readProfile(cmd, profilePath)
		if err != nil {
			return err
		}
		target = &p
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	deleted, err := a.Planner.ClearCache(cmd.Context(), target)
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return printJSON(cmd, map[string]interface{}{"deleted": deleted})
}
