package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pulseboard/pulseboard/internal/config"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	var (
		queryID int64
		topic   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one analysis interval for a query manually",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInterval(queryID, topic)
		},
	}

	cmd.Flags().Int64Var(&queryID, "query-id", 0, "query id to analyze (required)")
	cmd.Flags().StringVar(&topic, "topic", "", "topic hint to skip the lookup fallback")
	_ = cmd.MarkFlagRequired("query-id")

	return cmd
}

func runInterval(queryID int64, topic string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	coord, _, err := buildCoordinator(cfg, newLogger())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := coord.HandleInterval(ctx, queryID, topic)
	if err != nil {
		return fmt.Errorf("interval failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
