package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"github.com/pulseboard/pulseboard/pkg/types"
)

// ruleTargetID is the fixed target id on each analysis rule; one rule carries
// exactly one target.
const ruleTargetID = "analyzer"

// EventBridgeAPI is the subset of the EventBridge client used by the rule
// controller.
type EventBridgeAPI interface {
	PutRule(ctx context.Context, input *eventbridge.PutRuleInput, opts ...func(*eventbridge.Options)) (*eventbridge.PutRuleOutput, error)
	PutTargets(ctx context.Context, input *eventbridge.PutTargetsInput, opts ...func(*eventbridge.Options)) (*eventbridge.PutTargetsOutput, error)
	RemoveTargets(ctx context.Context, input *eventbridge.RemoveTargetsInput, opts ...func(*eventbridge.Options)) (*eventbridge.RemoveTargetsOutput, error)
	DeleteRule(ctx context.Context, input *eventbridge.DeleteRuleInput, opts ...func(*eventbridge.Options)) (*eventbridge.DeleteRuleOutput, error)
}

// RuleController implements Controller on classic EventBridge rules, the
// mechanism the original deployment used before EventBridge Scheduler existed.
type RuleController struct {
	client    EventBridgeAPI
	targetARN string
	logger    *slog.Logger
}

var _ Controller = (*RuleController)(nil)

// RuleOption configures a RuleController.
type RuleOption func(*RuleController)

// WithEventBridgeClient sets a custom client (useful for testing).
func WithEventBridgeClient(c EventBridgeAPI) RuleOption {
	return func(rc *RuleController) { rc.client = c }
}

// WithRuleLogger sets the controller's logger.
func WithRuleLogger(l *slog.Logger) RuleOption {
	return func(rc *RuleController) { rc.logger = l }
}

// NewRuleController creates an EventBridge rule backed controller.
func NewRuleController(region, targetARN string, opts ...RuleOption) (*RuleController, error) {
	rc := &RuleController{
		targetARN: targetARN,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(rc)
	}
	if rc.client == nil {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		rc.client = eventbridge.NewFromConfig(cfg)
	}
	return rc, nil
}

// CreateRecurringTrigger puts a rate rule plus a single Lambda target with
// the fixed query payload.
func (rc *RuleController) CreateRecurringTrigger(ctx context.Context, queryID int64, topic string, length int32, unit types.IntervalUnit) error {
	expr, err := RateExpression(length, unit)
	if err != nil {
		return err
	}
	input, err := marshalTriggerInput(queryID, topic)
	if err != nil {
		return err
	}

	name := TriggerName(queryID)
	_, err = rc.client.PutRule(ctx, &eventbridge.PutRuleInput{
		Name:               &name,
		ScheduleExpression: &expr,
		State:              ebtypes.RuleStateEnabled,
	})
	if err != nil {
		return fmt.Errorf("putting rule %q: %w", name, err)
	}

	targetID := ruleTargetID
	_, err = rc.client.PutTargets(ctx, &eventbridge.PutTargetsInput{
		Rule: &name,
		Targets: []ebtypes.Target{
			{Id: &targetID, Arn: &rc.targetARN, Input: &input},
		},
	})
	if err != nil {
		return fmt.Errorf("putting target for rule %q: %w", name, err)
	}
	rc.logger.Info("created recurring trigger", "rule", name, "expression", expr)
	return nil
}

// DeleteTrigger removes the rule's target and then the rule itself. An
// already-absent rule is success.
func (rc *RuleController) DeleteTrigger(ctx context.Context, queryID int64) error {
	name := TriggerName(queryID)
	targetID := ruleTargetID

	_, err := rc.client.RemoveTargets(ctx, &eventbridge.RemoveTargetsInput{
		Rule: &name,
		Ids:  []string{targetID},
	})
	if err != nil && !isRuleNotFound(err) {
		return fmt.Errorf("removing targets for rule %q: %w", name, err)
	}

	_, err = rc.client.DeleteRule(ctx, &eventbridge.DeleteRuleInput{Name: &name})
	if err != nil {
		if isRuleNotFound(err) {
			rc.logger.Debug("trigger already deleted", "rule", name)
			return nil
		}
		return fmt.Errorf("deleting rule %q: %w", name, err)
	}
	rc.logger.Info("deleted recurring trigger", "rule", name)
	return nil
}

func isRuleNotFound(err error) bool {
	var nfe *ebtypes.ResourceNotFoundException
	return errors.As(err, &nfe)
}
