// Package cli implements the mealctl commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"mealmind/internal/app"
	"mealmind/internal/core/profile"
	"mealmind/internal/infrastructure/config"
	"mealmind/internal/pkg/common"

	"github.com/spf13/cobra"
)

var logLevel string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:           "mealctl",
	Short:         "Generate, cache and store weekly meal plans",
	Long:          "Admin CLI for the meal planner. Reads the same environment and .env settings as the API server.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level written to stderr")
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func openApp(cmd *cobra.Command) (*app.App, error) {
	common.InitCLILogger(logLevel)

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("init app: %w", err)
	}
	return a, nil
}

// readProfile 讀取 JSON 檔案，"-" 代表 stdin
func readProfile(cmd *cobra.Command, path string) (profile.UserProfile, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return profile.UserProfile{}, fmt.Errorf("read profile: %w", err)
	}

	var p profile.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return profile.UserProfile{}, fmt.Errorf("parse profile: %w", err)
	}
	return p, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
