// Package lambda provides shared types and initialization for the analyzer
// Lambda handler.
package lambda

import "encoding/json"

// AnalyzeRequest is the analyzer's input. The scheduled trigger delivers
// {"queryId": N, "topic": "..."}; manual and legacy invocations may use the
// capitalized attribute names, so both spellings are accepted.
type AnalyzeRequest struct {
	QueryID int64  `json:"queryId"`
	Topic   string `json:"topic,omitempty"`
}

// UnmarshalJSON accepts both camelCase and the capitalized legacy keys.
func (r *AnalyzeRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		QueryID       *int64  `json:"queryId"`
		Topic         *string `json:"topic"`
		LegacyQueryID *int64  `json:"QueryID"`
		LegacyTopic   *string `json:"Topic"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.QueryID != nil:
		r.QueryID = *raw.QueryID
	case raw.LegacyQueryID != nil:
		r.QueryID = *raw.LegacyQueryID
	}
	switch {
	case raw.Topic != nil:
		r.Topic = *raw.Topic
	case raw.LegacyTopic != nil:
		r.Topic = *raw.LegacyTopic
	}
	return nil
}

// AnalyzeResponse is the manual-invocation summary; scheduled invocations
// discard it.
type AnalyzeResponse struct {
	MainTopicStored bool `json:"mainTopicStored"`
	RunCountAfter   int  `json:"runCountAfter"`
	IntervalsNeeded int  `json:"intervalsNeeded"`
}
