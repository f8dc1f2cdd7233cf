package render

import (
	"fmt"
	"strings"

	"github.com/fishandtips/newsletter/models"
)

// maxTechniqueTags caps the technique chips shown per article block.
const maxTechniqueTags = 2

// Newsletter renders the personalized digest body. It degrades
// gracefully when articles is empty (shell with no article blocks);
// callers are expected to skip sending in that case.
func Newsletter(user models.User, articles []models.ScoredArticle, unsubscribeURL, preferencesURL string) string {
	var b strings.Builder
	openDocument(&b, brandName+" - I tuoi articoli di pesca")

	fmt.Fprintf(&b, "<p>Ciao <strong>%s</strong>,</p>\n", escape(user.FirstName))
	b.WriteString("<p>ecco gli articoli che abbiamo scelto per te questa settimana.</p>\n")

	fmt.Fprintf(&b, "<div class=\"stats\">Selezione basata su <strong>%d</strong> %s di pesca che segui.</div>\n",
		len(user.TechniqueInterests), pluralize(len(user.TechniqueInterests), "tecnica", "tecniche"))

	for _, article := range articles {
		writeArticleBlock(&b, article)
	}

	if preferencesURL != "" {
		b.WriteString("<p style=\"text-align:center; margin-top: 24px;\">")
		fmt.Fprintf(&b, "<a class=\"cta\" href=\"%s\">Aggiorna le tue preferenze</a>", escape(preferencesURL))
		b.WriteString("</p>\n")
	}

	closeDocument(&b, unsubscribeURL, preferencesURL)
	return b.String()
}

func writeArticleBlock(b *strings.Builder, article models.ScoredArticle) {
	b.WriteString("<div class=\"article\">\n")

	if article.MainImage != "" {
		fmt.Fprintf(b, "<img src=\"%s\" alt=\"%s\">\n", escape(article.MainImage), escape(article.Title))
	}

	fmt.Fprintf(b, "<h2>%s", escape(article.Title))
	if article.Score > 0 {
		fmt.Fprintf(b, "<span class=\"match\">%.0f%% per te</span>", article.Score)
	}
	b.WriteString("</h2>\n")

	b.WriteString("<div class=\"meta\">")
	if article.Author != "" {
		fmt.Fprintf(b, "di %s", escape(article.Author))
	}
	if !article.PublishedAt.IsZero() {
		if article.Author != "" {
			b.WriteString(" &bull; ")
		}
		b.WriteString(article.PublishedAt.Format("02/01/2006"))
	}
	b.WriteString("</div>\n")

	for i, technique := range article.Techniques {
		if i == maxTechniqueTags {
			break
		}
		fmt.Fprintf(b, "<span class=\"tag\">%s</span>", escape(technique.Title))
	}
	if len(article.Techniques) > 0 {
		b.WriteString("\n")
	}

	if article.Excerpt != "" {
		fmt.Fprintf(b, "<p>%s</p>\n", escape(strings.TrimSpace(stripTags.Sanitize(article.Excerpt))))
	}

	fmt.Fprintf(b, "<a class=\"cta\" href=\"https://www.fishandtips.it/articoli/%s\">Leggi l'articolo</a>\n", escape(article.Slug))
	b.WriteString("</div>\n")
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
