package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pulseboard/pulseboard/internal/commands"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "pulseboard",
		Short: "Recurring sentiment analysis for social feed topics",
		Long: `Pulseboard tracks public sentiment about a topic over time. Registering a
topic starts a recurring analysis job: every interval it samples the feed,
scores sentiment with per-interval summaries, discovers subtopics on the first
run, and notifies the owner when the run budget is exhausted.`,
		Version: version,
	}

	root.AddCommand(
		commands.NewRegisterCmd(),
		commands.NewRunCmd(),
		commands.NewStatusCmd(),
		commands.NewCancelCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
