package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	schedulertypes "github.com/aws/aws-sdk-go-v2/service/scheduler/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/pkg/types"
)

func TestTriggerName(t *testing.T) {
	assert.Equal(t, "sentiment-analysis-42", TriggerName(42))
	assert.Equal(t, "sentiment-analysis-1", TriggerName(1))
}

func TestRateExpression(t *testing.T) {
	tests := []struct {
		length  int32
		unit    types.IntervalUnit
		want    string
		wantErr bool
	}{
		{1, types.UnitMinutes, "rate(1 minute)", false},
		{30, types.UnitMinutes, "rate(30 minutes)", false},
		{1, types.UnitHours, "rate(1 hour)", false},
		{12, types.UnitHours, "rate(12 hours)", false},
		{1, types.UnitDays, "rate(1 day)", false},
		{7, types.UnitDays, "rate(7 days)", false},
		{0, types.UnitHours, "", true},
		{-1, types.UnitHours, "", true},
		{1, types.IntervalUnit("weeks"), "", true},
	}
	for _, tt := range tests {
		got, err := RateExpression(tt.length, tt.unit)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

// --- EventBridge Scheduler controller ---

type stubScheduler struct {
	createIn  *scheduler.CreateScheduleInput
	createErr error
	deleteIn  *scheduler.DeleteScheduleInput
	deleteErr error
}

func (s *stubScheduler) CreateSchedule(_ context.Context, input *scheduler.CreateScheduleInput, _ ...func(*scheduler.Options)) (*scheduler.CreateScheduleOutput, error) {
	s.createIn = input
	return &scheduler.CreateScheduleOutput{}, s.createErr
}

func (s *stubScheduler) DeleteSchedule(_ context.Context, input *scheduler.DeleteScheduleInput, _ ...func(*scheduler.Options)) (*scheduler.DeleteScheduleOutput, error) {
	s.deleteIn = input
	return &scheduler.DeleteScheduleOutput{}, s.deleteErr
}

func TestSchedulerController_CreateRecurringTrigger(t *testing.T) {
	stub := &stubScheduler{}
	sc, err := NewSchedulerController("", "arn:analyzer", "arn:role", WithSchedulerClient(stub))
	require.NoError(t, err)

	require.NoError(t, sc.CreateRecurringTrigger(context.Background(), 42, "coffee", 2, types.UnitHours))

	require.NotNil(t, stub.createIn)
	assert.Equal(t, "sentiment-analysis-42", aws.ToString(stub.createIn.Name))
	assert.Equal(t, "rate(2 hours)", aws.ToString(stub.createIn.ScheduleExpression))
	assert.Equal(t, schedulertypes.FlexibleTimeWindowModeOff, stub.createIn.FlexibleTimeWindow.Mode)
	assert.Equal(t, "arn:analyzer", aws.ToString(stub.createIn.Target.Arn))
	assert.Equal(t, "arn:role", aws.ToString(stub.createIn.Target.RoleArn))

	var payload struct {
		QueryID int64  `json:"queryId"`
		Topic   string `json:"topic"`
	}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(stub.createIn.Target.Input)), &payload))
	assert.Equal(t, int64(42), payload.QueryID)
	assert.Equal(t, "coffee", payload.Topic)
}

func TestSchedulerController_CreateRejectsBadPeriod(t *testing.T) {
	sc, err := NewSchedulerController("", "arn:analyzer", "arn:role", WithSchedulerClient(&stubScheduler{}))
	require.NoError(t, err)

	assert.Error(t, sc.CreateRecurringTrigger(context.Background(), 42, "coffee", 0, types.UnitHours))
	assert.Error(t, sc.CreateRecurringTrigger(context.Background(), 42, "coffee", 1, "fortnights"))
}

func TestSchedulerController_DeleteTrigger(t *testing.T) {
	stub := &stubScheduler{}
	sc, err := NewSchedulerController("", "arn:analyzer", "arn:role", WithSchedulerClient(stub))
	require.NoError(t, err)

	require.NoError(t, sc.DeleteTrigger(context.Background(), 42))
	assert.Equal(t, "sentiment-analysis-42", aws.ToString(stub.deleteIn.Name))
}

func TestSchedulerController_DeleteAbsentTriggerIsSuccess(t *testing.T) {
	stub := &stubScheduler{deleteErr: &schedulertypes.ResourceNotFoundException{}}
	sc, err := NewSchedulerController("", "arn:analyzer", "arn:role", WithSchedulerClient(stub))
	require.NoError(t, err)

	assert.NoError(t, sc.DeleteTrigger(context.Background(), 42))
}

func TestSchedulerController_DeleteOtherErrorPropagates(t *testing.T) {
	stub := &stubScheduler{deleteErr: errors.New("throttled")}
	sc, err := NewSchedulerController("", "arn:analyzer", "arn:role", WithSchedulerClient(stub))
	require.NoError(t, err)

	assert.Error(t, sc.DeleteTrigger(context.Background(), 42))
}

// --- classic EventBridge rule controller ---

type stubEventBridge struct {
	putRuleIn    *eventbridge.PutRuleInput
	putTargetsIn *eventbridge.PutTargetsInput
	removeIn     *eventbridge.RemoveTargetsInput
	removeErr    error
	deleteIn     *eventbridge.DeleteRuleInput
	deleteErr    error
}

func (s *stubEventBridge) PutRule(_ context.Context, input *eventbridge.PutRuleInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutRuleOutput, error) {
	s.putRuleIn = input
	return &eventbridge.PutRuleOutput{}, nil
}

func (s *stubEventBridge) PutTargets(_ context.Context, input *eventbridge.PutTargetsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutTargetsOutput, error) {
	s.putTargetsIn = input
	return &eventbridge.PutTargetsOutput{}, nil
}

func (s *stubEventBridge) RemoveTargets(_ context.Context, input *eventbridge.RemoveTargetsInput, _ ...func(*eventbridge.Options)) (*eventbridge.RemoveTargetsOutput, error) {
	s.removeIn = input
	return &eventbridge.RemoveTargetsOutput{}, s.removeErr
}

func (s *stubEventBridge) DeleteRule(_ context.Context, input *eventbridge.DeleteRuleInput, _ ...func(*eventbridge.Options)) (*eventbridge.DeleteRuleOutput, error) {
	s.deleteIn = input
	return &eventbridge.DeleteRuleOutput{}, s.deleteErr
}

func TestRuleController_CreateRecurringTrigger(t *testing.T) {
	stub := &stubEventBridge{}
	rc, err := NewRuleController("", "arn:analyzer", WithEventBridgeClient(stub))
	require.NoError(t, err)

	require.NoError(t, rc.CreateRecurringTrigger(context.Background(), 42, "coffee", 1, types.UnitDays))

	require.NotNil(t, stub.putRuleIn)
	assert.Equal(t, "sentiment-analysis-42", aws.ToString(stub.putRuleIn.Name))
	assert.Equal(t, "rate(1 day)", aws.ToString(stub.putRuleIn.ScheduleExpression))
	assert.Equal(t, ebtypes.RuleStateEnabled, stub.putRuleIn.State)

	require.NotNil(t, stub.putTargetsIn)
	require.Len(t, stub.putTargetsIn.Targets, 1)
	assert.Equal(t, "arn:analyzer", aws.ToString(stub.putTargetsIn.Targets[0].Arn))
}

func TestRuleController_DeleteRemovesTargetsFirst(t *testing.T) {
	stub := &stubEventBridge{}
	rc, err := NewRuleController("", "arn:analyzer", WithEventBridgeClient(stub))
	require.NoError(t, err)

	require.NoError(t, rc.DeleteTrigger(context.Background(), 42))
	require.NotNil(t, stub.removeIn)
	assert.Equal(t, []string{"analyzer"}, stub.removeIn.Ids)
	require.NotNil(t, stub.deleteIn)
	assert.Equal(t, "sentiment-analysis-42", aws.ToString(stub.deleteIn.Name))
}

func TestRuleController_DeleteAbsentRuleIsSuccess(t *testing.T) {
	stub := &stubEventBridge{
		removeErr: &ebtypes.ResourceNotFoundException{},
		deleteErr: &ebtypes.ResourceNotFoundException{},
	}
	rc, err := NewRuleController("", "arn:analyzer", WithEventBridgeClient(stub))
	require.NoError(t, err)

	assert.NoError(t, rc.DeleteTrigger(context.Background(), 42))
}
