package scoring

import (
	"testing"

	"github.com/fishandtips/newsletter/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func article(techniques ...string) models.Article {
	a := models.Article{ID: "a1", Title: "Test"}
	for _, id := range techniques {
		a.Techniques = append(a.Techniques, models.Technique{ID: id, Title: id})
	}
	return a
}

func TestScore_EmptyInterests(t *testing.T) {
	result := Score(nil, article("spinning"))
	assert.Zero(t, result.Score, "empty interests must score 0, not NaN")
	assert.Empty(t, result.Reasons)
}

func TestScore_NoOverlap(t *testing.T) {
	result := Score([]string{"feeder"}, article("surfcasting"))
	assert.Zero(t, result.Score)
	assert.Empty(t, result.Reasons)
}

func TestScore_NoTechniques(t *testing.T) {
	result := Score([]string{"feeder"}, article())
	assert.Zero(t, result.Score)
}

func TestScore_FullMatch(t *testing.T) {
	result := Score([]string{"spinning", "feeder"}, article("feeder", "spinning"))
	assert.Equal(t, 100.0, result.Score)
	require.Len(t, result.Reasons, 1)
	assert.Contains(t, result.Reasons[0], "Tecniche:")
}

func TestScore_PartialMatch(t *testing.T) {
	result := Score([]string{"spinning", "feeder"}, article("spinning"))
	assert.Equal(t, 50.0, result.Score)
}

func TestScore_Rounding(t *testing.T) {
	result := Score([]string{"a", "b", "c"}, article("a"))
	assert.Equal(t, 33.33, result.Score)
}

func TestScore_DuplicateTagCountsOnce(t *testing.T) {
	result := Score([]string{"spinning", "feeder"}, article("spinning", "spinning"))
	assert.Equal(t, 50.0, result.Score)
}

func TestScore_Bounds(t *testing.T) {
	interestSets := [][]string{nil, {"a"}, {"a", "b"}, {"a", "b", "c", "d"}}
	tagSets := [][]string{nil, {"a"}, {"b", "c"}, {"a", "b", "c", "d"}, {"x", "y"}}

	for _, interests := range interestSets {
		for _, tags := range tagSets {
			result := Score(interests, article(tags...))
			assert.GreaterOrEqual(t, result.Score, 0.0)
			assert.LessOrEqual(t, result.Score, 100.0)
		}
	}
}

func TestScore_MonotonicInOverlap(t *testing.T) {
	interests := []string{"a", "b", "c"}
	previous := -1.0
	for _, tags := range [][]string{{}, {"a"}, {"a", "b"}, {"a", "b", "c"}} {
		result := Score(interests, article(tags...))
		assert.GreaterOrEqual(t, result.Score, previous,
			"growing overlap must never decrease the score")
		previous = result.Score
	}
}
