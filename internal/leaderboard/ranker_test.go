package leaderboard

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankEmptyCohort(t *testing.T) {
	assert.Nil(t, Rank(nil))
	assert.Nil(t, Rank([]CourseMetrics{}))
}

func TestRankRevenueOnlyCohort(t *testing.T) {
	entries := Rank([]CourseMetrics{
		{CourseID: "course-a", Revenue: 100},
		{CourseID: "course-b", Revenue: 50},
	})
	require.Len(t, entries, 2)

	// The best course takes the full revenue weight; categories nobody
	// scores in contribute nothing.
	assert.Equal(t, "course-a", entries[0].CourseID)
	assert.Equal(t, 30, entries[0].CompositeScore)
	assert.Equal(t, 1, entries[0].Rank)

	assert.Equal(t, "course-b", entries[1].CourseID)
	assert.Equal(t, 15, entries[1].CompositeScore)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestRankBestCourseScoresFullComposite(t *testing.T) {
	entries := Rank([]CourseMetrics{
		{CourseID: "best", Revenue: 1000, Rating: 4.8, Views: 5000, Enrollments: 300},
		{CourseID: "rest", Revenue: 100, Rating: 3.0, Views: 500, Enrollments: 30},
	})
	require.Len(t, entries, 2)
	assert.Equal(t, "best", entries[0].CourseID)
	assert.Equal(t, 100, entries[0].CompositeScore)
}

func TestRankTiedScoresGetDistinctRanks(t *testing.T) {
	entries := Rank([]CourseMetrics{
		{CourseID: "c", Revenue: 100},
		{CourseID: "a", Revenue: 100},
		{CourseID: "b", Revenue: 10},
	})
	require.Len(t, entries, 3)

	// Equal composites order by course id and still take consecutive ranks:
	// the ranks of a pass are always a permutation of 1..n.
	assert.Equal(t, "a", entries[0].CourseID)
	assert.Equal(t, "c", entries[1].CourseID)
	assert.Equal(t, "b", entries[2].CourseID)
	assert.Equal(t, entries[0].CompositeScore, entries[1].CompositeScore)

	seen := make(map[int]bool)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
		assert.False(t, seen[e.Rank], "duplicate rank %d", e.Rank)
		seen[e.Rank] = true
	}
}

func TestRankIndependentOfInputOrder(t *testing.T) {
	metrics := []CourseMetrics{
		{CourseID: "a", Revenue: 500, Rating: 4.1, Views: 900, Enrollments: 80},
		{CourseID: "b", Revenue: 120, Rating: 4.9, Views: 4000, Enrollments: 25},
		{CourseID: "c", Revenue: 900, Rating: 2.2, Views: 100, Enrollments: 140},
		{CourseID: "d", Revenue: 10, Rating: 3.3, Views: 2500, Enrollments: 5},
	}

	baseline := Rank(metrics)

	shuffled := append([]CourseMetrics(nil), metrics...)
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := Rank(shuffled)
		require.Len(t, got, len(baseline))
		for i := range baseline {
			assert.Equal(t, baseline[i].CourseID, got[i].CourseID)
			assert.Equal(t, baseline[i].Rank, got[i].Rank)
			assert.Equal(t, baseline[i].CompositeScore, got[i].CompositeScore)
		}
	}
}

func TestRankScoresBounded(t *testing.T) {
	entries := Rank([]CourseMetrics{
		{CourseID: "huge", Revenue: 1e12, Rating: 5, Views: 1 << 30, Enrollments: 1 << 30},
		{CourseID: "zero"},
	})
	for _, e := range entries {
		assert.GreaterOrEqual(t, e.CompositeScore, 0)
		assert.LessOrEqual(t, e.CompositeScore, 100)
	}
}
