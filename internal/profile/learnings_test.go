package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecentLearningsNewestFirst(t *testing.T) {
	log := []Learning{
		{Date: "2026-01-01", Insight: "первый"},
		{Date: "2026-02-01", Insight: "второй"},
		{Date: "2026-03-01", Insight: "третий"},
	}

	recent := RecentLearnings(log, 2)
	assert.Equal(t, []Learning{log[2], log[1]}, recent)
}

func TestRecentLearningsWindowLargerThanLog(t *testing.T) {
	log := []Learning{{Insight: "единственный"}}
	assert.Len(t, RecentLearnings(log, 10), 1)
}

func TestRecentLearningsEmpty(t *testing.T) {
	assert.Nil(t, RecentLearnings(nil, 5))
	assert.Nil(t, RecentLearnings([]Learning{{Insight: "x"}}, 0))
	assert.Nil(t, RecentLearnings([]Learning{{Insight: "x"}}, -1))
}
