package types

// Topic is one monitored search term, created by the query API and read-only
// to the analyzer. Identity is the (QueryID, Topic) composite key; QueryID
// alone is usable as a fallback lookup key because the scheduled trigger
// payload may omit the topic string.
type Topic struct {
	QueryID        int64        `json:"queryId" dynamodbav:"QueryID"`
	Topic          string       `json:"topic" dynamodbav:"Topic"`
	Email          string       `json:"email" dynamodbav:"Email"`
	NumIntervals   int          `json:"numIntervals" dynamodbav:"NumIntervals"`
	PostsToAnalyze int          `json:"postsToAnalyze" dynamodbav:"PostsToAnalyze"`
	IntervalLength int32        `json:"intervalLength" dynamodbav:"IntervalLength"`
	IntervalUnit   IntervalUnit `json:"intervalUnit" dynamodbav:"IntervalUnit"`
	Status         TopicStatus  `json:"status,omitempty" dynamodbav:"Status,omitempty"`
	CreatedAt      int64        `json:"createdAt" dynamodbav:"CreatedAt"`
}

// EffectiveStatus resolves the implicit ACTIVE default.
func (t *Topic) EffectiveStatus() TopicStatus {
	if t.Status == "" {
		return TopicActive
	}
	return t.Status
}

// SentimentScores holds the four confidence scores returned by the scorer.
// For a Result record these are means across all successfully scored posts.
type SentimentScores struct {
	Positive float64 `json:"positive" dynamodbav:"PositiveScore"`
	Negative float64 `json:"negative" dynamodbav:"NegativeScore"`
	Neutral  float64 `json:"neutral" dynamodbav:"NeutralScore"`
	Mixed    float64 `json:"mixed" dynamodbav:"MixedScore"`
}

// Result is one per-interval analysis summary. Append-only: written once per
// (topic, label, interval) attempt that scored at least one post, never
// updated or deleted by the analyzer.
type Result struct {
	DataID            int64           `json:"dataId" dynamodbav:"DataID"`
	AnalysisTimestamp int64           `json:"analysisTimestamp" dynamodbav:"AnalysisTimestamp"`
	QueryID           int64           `json:"queryId" dynamodbav:"QueryID"`
	Label             string          `json:"label" dynamodbav:"Topic"`
	MainTopic         string          `json:"mainTopic,omitempty" dynamodbav:"MainTopic,omitempty"`
	IsSubtopic        bool            `json:"isSubtopic" dynamodbav:"IsSubtopic"`
	PostsAnalyzed     int             `json:"postsAnalyzed" dynamodbav:"PostsAnalyzed"`
	PositivePosts     int             `json:"positivePosts" dynamodbav:"PositivePosts"`
	NegativePosts     int             `json:"negativePosts" dynamodbav:"NegativePosts"`
	NeutralPosts      int             `json:"neutralPosts" dynamodbav:"NeutralPosts"`
	MixedPosts        int             `json:"mixedPosts" dynamodbav:"MixedPosts"`
	Scores            SentimentScores `json:"scores" dynamodbav:"-"`
	CreatedAt         int64           `json:"createdAt" dynamodbav:"CreatedAt"`
}

// Subtopic is a phrase discovered during a topic's first interval and tracked
// alongside the main topic thereafter. At most MaxSubtopics exist per query.
type Subtopic struct {
	QueryID  int64  `json:"queryId" dynamodbav:"QueryID"`
	Subtopic string `json:"subtopic" dynamodbav:"SubTopic"`
}

// MaxSubtopics caps how many subtopics discovery may register per topic.
const MaxSubtopics = 3

// Post is a single feed search hit. Text may be empty; such posts are
// excluded from scoring but do not abort the batch.
type Post struct {
	Text string `json:"text,omitempty"`
	URI  string `json:"uri"`
}
