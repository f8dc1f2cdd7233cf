// Package scoring matches articles against a user's technique interests.
package scoring

import (
	"math"
	"strings"

	"github.com/fishandtips/newsletter/models"
)

// MatchResult is the outcome of scoring one article for one user.
type MatchResult struct {
	Score   float64
	Reasons []string
}

// Score rates how well an article matches the given technique interests.
// The score is 100 * |interests ∩ article techniques| / |interests|,
// rounded to two decimals. An empty interest list scores 0 rather than
// dividing by zero, and an article with no overlap scores 0 with no
// reasons. Pure function, no I/O.
func Score(interests []string, article models.Article) MatchResult {
	if len(interests) == 0 {
		return MatchResult{}
	}

	wanted := make(map[string]bool, len(interests))
	for _, id := range interests {
		wanted[id] = true
	}

	var matchedTitles []string
	matched := 0
	for _, technique := range article.Techniques {
		if wanted[technique.ID] {
			// Consume the interest so a duplicated tag counts once.
			delete(wanted, technique.ID)
			matched++
			matchedTitles = append(matchedTitles, technique.Title)
		}
	}

	if matched == 0 {
		return MatchResult{}
	}

	score := float64(matched) / float64(len(interests)) * 100
	score = math.Round(score*100) / 100

	return MatchResult{
		Score:   score,
		Reasons: []string{"Tecniche: " + strings.Join(matchedTitles, ", ")},
	}
}
