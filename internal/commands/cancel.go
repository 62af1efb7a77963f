package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/pkg/types"
)

// NewCancelCmd creates the cancel command.
func NewCancelCmd() *cobra.Command {
	var queryID int64

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a query and delete its recurring trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cancelQuery(queryID)
		},
	}

	cmd.Flags().Int64Var(&queryID, "query-id", 0, "query id to cancel (required)")
	_ = cmd.MarkFlagRequired("query-id")

	return cmd
}

func cancelQuery(queryID int64) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger()
	st, err := newStore(cfg, logger)
	if err != nil {
		return err
	}
	controller, err := newController(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	topic, err := st.Get(ctx, queryID, "")
	if err != nil {
		return fmt.Errorf("fetching topic: %w", err)
	}
	if err := st.SetStatus(ctx, queryID, topic.Topic, types.TopicCancelled); err != nil {
		return err
	}
	if err := controller.DeleteTrigger(ctx, queryID); err != nil {
		return fmt.Errorf("deleting trigger: %w", err)
	}

	fmt.Printf("cancelled query %d (%q)\n", queryID, topic.Topic)
	return nil
}
