package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	schedulertypes "github.com/aws/aws-sdk-go-v2/service/scheduler/types"

	"github.com/pulseboard/pulseboard/pkg/types"
)

// SchedulerAPI is the subset of the EventBridge Scheduler client used by the
// controller.
type SchedulerAPI interface {
	CreateSchedule(ctx context.Context, input *scheduler.CreateScheduleInput, opts ...func(*scheduler.Options)) (*scheduler.CreateScheduleOutput, error)
	DeleteSchedule(ctx context.Context, input *scheduler.DeleteScheduleInput, opts ...func(*scheduler.Options)) (*scheduler.DeleteScheduleOutput, error)
}

// SchedulerController implements Controller on EventBridge Scheduler.
type SchedulerController struct {
	client    SchedulerAPI
	targetARN string // analyzer Lambda
	roleARN   string // invocation role assumed by the scheduler
	logger    *slog.Logger
}

var _ Controller = (*SchedulerController)(nil)

// SchedulerOption configures a SchedulerController.
type SchedulerOption func(*SchedulerController)

// WithSchedulerClient sets a custom client (useful for testing).
func WithSchedulerClient(c SchedulerAPI) SchedulerOption {
	return func(sc *SchedulerController) { sc.client = c }
}

// WithSchedulerLogger sets the controller's logger.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(sc *SchedulerController) { sc.logger = l }
}

// NewSchedulerController creates an EventBridge Scheduler backed controller.
func NewSchedulerController(region, targetARN, roleARN string, opts ...SchedulerOption) (*SchedulerController, error) {
	sc := &SchedulerController{
		targetARN: targetARN,
		roleARN:   roleARN,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(sc)
	}
	if sc.client == nil {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		sc.client = scheduler.NewFromConfig(cfg)
	}
	return sc, nil
}

// CreateRecurringTrigger registers a rate schedule that invokes the analyzer
// with the fixed query payload every period.
func (sc *SchedulerController) CreateRecurringTrigger(ctx context.Context, queryID int64, topic string, length int32, unit types.IntervalUnit) error {
	expr, err := RateExpression(length, unit)
	if err != nil {
		return err
	}
	input, err := marshalTriggerInput(queryID, topic)
	if err != nil {
		return err
	}

	name := TriggerName(queryID)
	_, err = sc.client.CreateSchedule(ctx, &scheduler.CreateScheduleInput{
		Name:               &name,
		ScheduleExpression: &expr,
		FlexibleTimeWindow: &schedulertypes.FlexibleTimeWindow{
			Mode: schedulertypes.FlexibleTimeWindowModeOff,
		},
		Target: &schedulertypes.Target{
			Arn:     &sc.targetARN,
			RoleArn: &sc.roleARN,
			Input:   &input,
		},
	})
	if err != nil {
		return fmt.Errorf("creating schedule %q: %w", name, err)
	}
	sc.logger.Info("created recurring trigger", "schedule", name, "expression", expr)
	return nil
}

// DeleteTrigger removes the schedule for a query. Deleting an already-absent
// schedule is success; redelivered final invocations retry this path.
func (sc *SchedulerController) DeleteTrigger(ctx context.Context, queryID int64) error {
	name := TriggerName(queryID)
	_, err := sc.client.DeleteSchedule(ctx, &scheduler.DeleteScheduleInput{Name: &name})
	if err != nil {
		var nfe *schedulertypes.ResourceNotFoundException
		if errors.As(err, &nfe) {
			sc.logger.Debug("trigger already deleted", "schedule", name)
			return nil
		}
		return fmt.Errorf("deleting schedule %q: %w", name, err)
	}
	sc.logger.Info("deleted recurring trigger", "schedule", name)
	return nil
}
