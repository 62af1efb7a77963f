package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/pkg/types"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	var queryID int64

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a query's topic record and current run count",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus(queryID)
		},
	}

	cmd.Flags().Int64Var(&queryID, "query-id", 0, "query id to inspect (required)")
	_ = cmd.MarkFlagRequired("query-id")

	return cmd
}

// statusReport is the JSON shape printed by the status command.
type statusReport struct {
	Topic     *types.Topic `json:"topic"`
	RunCount  int          `json:"runCount"`
	Subtopics []string     `json:"subtopics"`
	Complete  bool         `json:"complete"`
}

func showStatus(queryID int64) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, err := newStore(cfg, newLogger())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	topic, err := st.Get(ctx, queryID, "")
	if err != nil {
		return fmt.Errorf("fetching topic: %w", err)
	}
	runCount, err := st.CountMainRuns(ctx, queryID)
	if err != nil {
		return fmt.Errorf("computing run count: %w", err)
	}
	subtopics, err := st.ListSubtopics(ctx, queryID)
	if err != nil {
		return fmt.Errorf("listing subtopics: %w", err)
	}

	report := statusReport{
		Topic:     topic,
		RunCount:  runCount,
		Subtopics: subtopics,
		Complete:  runCount >= topic.NumIntervals || topic.EffectiveStatus().Terminal(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
