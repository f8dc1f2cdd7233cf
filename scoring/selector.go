package scoring

import (
	"context"
	"log/slog"
	"sort"

	"github.com/fishandtips/newsletter/content"
	"github.com/fishandtips/newsletter/models"
)

const (
	// fetchLimit bounds the eligible pool to the newest articles. Older
	// still-relevant articles are systematically excluded; the product
	// accepts that cutoff.
	fetchLimit = 10
	// maxSelected is how many articles one newsletter carries.
	maxSelected = 5
)

// Selector picks the best-matching recent articles for a user.
type Selector struct {
	store  content.Store
	logger *slog.Logger
}

func NewSelector(store content.Store, logger *slog.Logger) *Selector {
	return &Selector{store: store, logger: logger}
}

// SelectForUser fetches the newest articles, scores each against the
// user's interests, and returns the top matches in descending score
// order. Ties keep the content store's descending-publish-date order
// (the sort is stable). A content-store failure is logged and yields an
// empty result; callers treat that as "nothing to send", never an error.
func (s *Selector) SelectForUser(ctx context.Context, user models.User) []models.ScoredArticle {
	articles, err := s.store.RecentArticles(ctx, fetchLimit)
	if err != nil {
		s.logger.Error("Failed to fetch articles for selection",
			"user_id", user.ID,
			"error", err)
		return nil
	}

	scored := make([]models.ScoredArticle, 0, len(articles))
	for _, article := range articles {
		result := Score(user.TechniqueInterests, article)
		scored = append(scored, models.ScoredArticle{
			Article: article,
			Score:   result.Score,
			Reasons: result.Reasons,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > maxSelected {
		scored = scored[:maxSelected]
	}
	return scored
}
