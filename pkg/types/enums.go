// Package types defines the public domain types for the pulseboard
// sentiment-tracking backend.
package types

// DataCounterName is the counter used to allocate Result DataIDs.
const DataCounterName = "DataCounter"

// QueryCounterName is the counter used to allocate query IDs at registration.
const QueryCounterName = "QueryCounter"

// TopicStatus represents the lifecycle state of a monitored topic.
type TopicStatus string

// TopicStatus values. An empty status is treated as ACTIVE.
const (
	TopicActive    TopicStatus = "ACTIVE"
	TopicCompleted TopicStatus = "COMPLETED"
	TopicCancelled TopicStatus = "CANCELLED"
)

// Terminal reports whether a topic should no longer be analyzed.
func (s TopicStatus) Terminal() bool {
	return s == TopicCompleted || s == TopicCancelled
}

// Sentiment is the categorical label returned by the scorer.
type Sentiment string

// Sentiment values enumerate the scorer's categorical labels.
const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentMixed    Sentiment = "MIXED"
)

// IntervalUnit is the time unit of a topic's analysis period.
type IntervalUnit string

// IntervalUnit values map onto schedule rate expressions.
const (
	UnitMinutes IntervalUnit = "minutes"
	UnitHours   IntervalUnit = "hours"
	UnitDays    IntervalUnit = "days"
)

// Valid reports whether the unit is one of the supported values.
func (u IntervalUnit) Valid() bool {
	return u == UnitMinutes || u == UnitHours || u == UnitDays
}

// NotifierType defines a notification sink backend.
type NotifierType string

// NotifierType values enumerate the supported notification sinks.
const (
	NotifierSNS     NotifierType = "sns"
	NotifierLambda  NotifierType = "lambda"
	NotifierSQS     NotifierType = "sqs"
	NotifierConsole NotifierType = "console"
)
