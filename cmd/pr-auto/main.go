package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vblagoje/pr-auto/internal/config"
	"github.com/vblagoje/pr-auto/internal/logging"
	"github.com/vblagoje/pr-auto/internal/pipeline"
)

var rootCmd = &cobra.Command{
	Use:   "pr-auto [repository baseRef headRef]",
	Short: "Generate a pull request description from a branch comparison",
	Long: `pr-auto compares two refs of a GitHub repository and asks a chat
model to write the pull request description for the change. Repository and
refs come from GITHUB_REPOSITORY, BASE_REF and HEAD_REF, or from the three
positional arguments.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 3 {
			return fmt.Errorf("accepts zero or three arguments [repository baseRef headRef], got %d", len(args))
		}
		return nil
	},
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipeline.LoadConfig(args)
		if err := cfg.Validate(); err != nil {
			return err
		}

		log := logging.ForLevel(cfg.LogLevel)
		err := pipeline.New(cfg, log).Run(context.Background())
		if errors.Is(err, pipeline.ErrSkip) {
			fmt.Println("Exiting pr-auto, user instruction contains the word 'skip'.")
			return nil
		}
		return err
	},
}

func main() {
	config.Init(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
