package models

import "time"

// Technique is a fishing-technique tag attached to an article.
type Technique struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// Article is a content-store record, read-only here. Articles without
// technique tags can never match on technique and score zero.
type Article struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Excerpt     string      `json:"excerpt"`
	MainImage   string      `json:"main_image"`
	Author      string      `json:"author"`
	Categories  []string    `json:"categories"`
	Techniques  []Technique `json:"techniques"`
	PublishedAt time.Time   `json:"published_at"`
}

// ScoredArticle pairs an article with its match score for one user.
// Instances live for a single dispatch invocation and are discarded
// after rendering.
type ScoredArticle struct {
	Article
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}
