// Package content talks to the headless CMS read API.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"github.com/fishandtips/newsletter/models"
)

// Store is the read surface the article selector depends on.
type Store interface {
	// RecentArticles returns up to limit articles, newest first by
	// published date.
	RecentArticles(ctx context.Context, limit int) ([]models.Article, error)
}

// Client fetches articles from the CMS over HTTP.
type Client struct {
	baseURL  string
	apiToken string
	client   *http.Client
	logger   *slog.Logger
}

func NewClient(baseURL, apiToken string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

// Wire types for the CMS article listing.
type articleListResponse struct {
	Articles []articleDoc `json:"articles"`
}

type articleDoc struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Excerpt     string         `json:"excerpt"`
	MainImage   string         `json:"mainImage"`
	Author      string         `json:"author"`
	Categories  []string       `json:"categories"`
	Techniques  []techniqueDoc `json:"techniques"`
	PublishedAt string         `json:"publishedAt"`
}

type techniqueDoc struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// RecentArticles implements Store.
func (c *Client) RecentArticles(ctx context.Context, limit int) ([]models.Article, error) {
	endpoint := fmt.Sprintf("%s/v1/articles?%s", c.baseURL, url.Values{
		"order": {"published_desc"},
		"limit": {strconv.Itoa(limit)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create CMS request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("CMS request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("CMS returned status %d: %s", resp.StatusCode, string(body))
	}

	var listing articleListResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode CMS article listing: %w", err)
	}

	articles := make([]models.Article, 0, len(listing.Articles))
	for _, doc := range listing.Articles {
		articles = append(articles, c.toArticle(doc))
	}
	return articles, nil
}

func (c *Client) toArticle(doc articleDoc) models.Article {
	article := models.Article{
		ID:         doc.ID,
		Title:      doc.Title,
		Slug:       doc.Slug,
		Excerpt:    doc.Excerpt,
		MainImage:  doc.MainImage,
		Author:     doc.Author,
		Categories: doc.Categories,
	}

	for _, t := range doc.Techniques {
		article.Techniques = append(article.Techniques, models.Technique{
			ID:    t.ID,
			Title: t.Title,
			Slug:  t.Slug,
		})
	}

	// The CMS has emitted both RFC 3339 and date-only strings over time.
	if doc.PublishedAt != "" {
		published, err := dateparse.ParseAny(doc.PublishedAt)
		if err != nil {
			c.logger.Warn("Unparseable published date on CMS article",
				"article_id", doc.ID,
				"published_at", doc.PublishedAt,
				"error", err)
		} else {
			article.PublishedAt = published.UTC()
		}
	}

	return article
}
