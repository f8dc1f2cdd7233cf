package dispatch

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/fishandtips/newsletter/models"
	"github.com/fishandtips/newsletter/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeContentStore struct {
	articles []models.Article
}

func (f *fakeContentStore) RecentArticles(_ context.Context, _ int) ([]models.Article, error) {
	return f.articles, nil
}

// Exercises the real selector and scorer end to end: the canonical
// Mario example with spinning+feeder interests against three articles.
func TestPipeline_PersonalizedSendEndToEnd(t *testing.T) {
	now := time.Now()
	store := &fakeContentStore{articles: []models.Article{
		{
			ID: "a1", Title: "Spinning leggero", Slug: "spinning-leggero", PublishedAt: now,
			Techniques: []models.Technique{{ID: "spinning", Title: "Spinning"}},
		},
		{
			ID: "a2", Title: "Surfcasting notturno", Slug: "surfcasting-notturno", PublishedAt: now.Add(-time.Hour),
			Techniques: []models.Technique{{ID: "surfcasting", Title: "Surfcasting"}},
		},
		{
			ID: "a3", Title: "Feeder e spinning", Slug: "feeder-e-spinning", PublishedAt: now.Add(-2 * time.Hour),
			Techniques: []models.Technique{
				{ID: "feeder", Title: "Feeder"},
				{ID: "spinning", Title: "Spinning"},
			},
		},
	}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	selector := scoring.NewSelector(store, logger)

	users := &fakeUserStore{users: map[string]models.User{
		"u1": activeUser("u1", models.FrequencyWeekly),
	}}
	activity := &fakeActivityStore{}
	provider := &fakeProvider{}

	svc := NewService(users, activity, selector, provider,
		rate.NewLimiter(rate.Inf, 1), rate.NewLimiter(rate.Inf, 1),
		"newsletter@fishandtips.it", "FishandTips", "https://www.fishandtips.it", logger)

	require.True(t, svc.SendPersonalized(context.Background(), "u1"))

	require.Len(t, provider.sent, 1)
	body := provider.sent[0].HTML
	assert.Contains(t, body, "Feeder e spinning")
	assert.Contains(t, body, "100% per te")

	require.Len(t, activity.inserted, 1)
	metadata, err := activity.inserted[0].SendMetadata()
	require.NoError(t, err)
	assert.Equal(t, 3, metadata.ArticlesCount)

	require.Len(t, metadata.Articles, 3)
	assert.Equal(t, "a3", metadata.Articles[0].ID)
	assert.Equal(t, 100.0, metadata.Articles[0].Score)
	assert.Equal(t, "a1", metadata.Articles[1].ID)
	assert.Equal(t, 50.0, metadata.Articles[1].Score)
	assert.Equal(t, "a2", metadata.Articles[2].ID)
	assert.Zero(t, metadata.Articles[2].Score)
}
