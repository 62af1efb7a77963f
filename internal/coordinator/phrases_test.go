package coordinator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankPhrases_OrdersByFrequencyThenName(t *testing.T) {
	freq := map[string]int{
		"battery":  5,
		"inverter": 5,
		"grid":     2,
		"roof":     7,
	}
	got := rankPhrases(freq, "solar", 3)
	assert.Equal(t, []string{"roof", "battery", "inverter"}, got)
}

func TestRankPhrases_DropsShortAndMainTopic(t *testing.T) {
	freq := map[string]int{
		"ev":          9, // two runes, dropped
		"solar":       8, // equals the main topic, dropped
		"SOLAR":       8, // case variants never survive either
		"wind":        3,
		"heat pumps":  2,
		"insulation":  1,
		"geothermals": 1,
	}
	got := rankPhrases(freq, "Solar", 3)
	assert.Equal(t, []string{"wind", "heat pumps", "geothermals"}, got)
}

func TestRankPhrases_CapsAtK(t *testing.T) {
	freq := map[string]int{
		"aaa": 4, "bbb": 4, "ccc": 4, "ddd": 4, "eee": 4,
	}
	got := rankPhrases(freq, "main", 3)
	assert.Equal(t, []string{"aaa", "bbb", "ccc"}, got)
}

func TestRankPhrases_EmptyInput(t *testing.T) {
	assert.Empty(t, rankPhrases(nil, "main", 3))
	assert.Empty(t, rankPhrases(map[string]int{"ab": 10}, "main", 3))
}

func TestRankPhrases_MultiByteRuneLength(t *testing.T) {
	// Three runes even though the byte length is larger.
	freq := map[string]int{"日本語": 2, "ab": 5}
	got := rankPhrases(freq, "main", 3)
	assert.Equal(t, []string{"日本語"}, got)
}
