package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/pkg/types"
)

// NewRegisterCmd creates the register command.
func NewRegisterCmd() *cobra.Command {
	var (
		topic          string
		email          string
		numIntervals   int
		postsPerRun    int
		intervalLength int32
		intervalUnit   string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a topic and start its recurring analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			unit := types.IntervalUnit(intervalUnit)
			if !unit.Valid() {
				return fmt.Errorf("interval-unit must be minutes, hours or days, got %q", intervalUnit)
			}
			if numIntervals < 1 {
				return fmt.Errorf("num-intervals must be at least 1")
			}
			return registerTopic(topic, email, numIntervals, postsPerRun, intervalLength, unit)
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "topic to track (required)")
	cmd.Flags().StringVar(&email, "email", "", "owner email address (required)")
	cmd.Flags().IntVar(&numIntervals, "num-intervals", 24, "number of analysis intervals before completion")
	cmd.Flags().IntVar(&postsPerRun, "posts", 100, "posts fetched per interval (1-100)")
	cmd.Flags().Int32Var(&intervalLength, "interval-length", 1, "length of each interval")
	cmd.Flags().StringVar(&intervalUnit, "interval-unit", "hours", "interval unit: minutes, hours or days")
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func registerTopic(topic, email string, numIntervals, postsPerRun int, length int32, unit types.IntervalUnit) error {
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

	queryID, err := st.NextID(ctx, types.QueryCounterName)
	if err != nil {
		return fmt.Errorf("allocating query id: %w", err)
	}

	record := &types.Topic{
		QueryID:        queryID,
		Topic:          topic,
		Email:          email,
		NumIntervals:   numIntervals,
		PostsToAnalyze: postsPerRun,
		IntervalLength: length,
		IntervalUnit:   unit,
		Status:         types.TopicActive,
		CreatedAt:      time.Now().Unix(),
	}
	if err := st.PutTopic(ctx, record); err != nil {
		return err
	}

	if err := controller.CreateRecurringTrigger(ctx, queryID, topic, length, unit); err != nil {
		return fmt.Errorf("creating recurring trigger: %w", err)
	}

	fmt.Printf("registered query %d for topic %q: %d intervals of %d %s\n",
		queryID, topic, numIntervals, length, unit)
	return nil
}
