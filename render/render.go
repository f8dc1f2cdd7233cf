// Package render builds the HTML bodies for outgoing email. Everything
// here is a pure function over its inputs; sending is the dispatch
// service's job.
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/jaytaylor/html2text"
	"github.com/microcosm-cc/bluemonday"
)

const (
	brandName  = "FishandTips"
	brandColor = "#0c4a6e"
	linkColor  = "#0ea5e9"
)

// CMS excerpts may carry markup; only their text belongs in an email.
var stripTags = bluemonday.StripTagsPolicy()

// PlainText converts a rendered HTML body into the text/plain
// alternative part. Falls back to a bare tag strip if the converter
// chokes on the markup.
func PlainText(htmlBody string) string {
	text, err := html2text.FromString(htmlBody, html2text.Options{TextOnly: true})
	if err != nil {
		return strings.TrimSpace(stripTags.Sanitize(htmlBody))
	}
	return text
}

func escape(s string) string {
	return html.EscapeString(s)
}

// openDocument writes the shared document head and brand header.
func openDocument(b *strings.Builder, title string) {
	b.WriteString("<!DOCTYPE html>\n<html lang=\"it\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	fmt.Fprintf(b, "<title>%s</title>\n", escape(title))
	b.WriteString("<style>\n")
	b.WriteString("body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #1f2937; max-width: 640px; margin: 0 auto; padding: 20px; background: #f8fafc; }\n")
	fmt.Fprintf(b, ".header { background: %s; color: #ffffff; padding: 24px; border-radius: 8px 8px 0 0; text-align: center; }\n", brandColor)
	b.WriteString(".header h1 { margin: 0; font-size: 1.5em; }\n")
	b.WriteString(".body { background: #ffffff; padding: 24px; border: 1px solid #e2e8f0; border-top: none; }\n")
	b.WriteString(".stats { background: #f0f9ff; border-radius: 6px; padding: 12px 16px; margin: 16px 0; font-size: 0.95em; }\n")
	b.WriteString(".article { margin: 24px 0; padding-bottom: 24px; border-bottom: 1px solid #e2e8f0; }\n")
	b.WriteString(".article:last-of-type { border-bottom: none; padding-bottom: 0; }\n")
	b.WriteString(".article img { max-width: 100%; height: auto; border-radius: 6px; }\n")
	fmt.Fprintf(b, ".article h2 { margin: 12px 0 4px; font-size: 1.15em; color: %s; }\n", brandColor)
	b.WriteString(".meta { color: #64748b; font-size: 0.85em; margin-bottom: 8px; }\n")
	fmt.Fprintf(b, ".match { display: inline-block; background: %s; color: #ffffff; border-radius: 12px; padding: 2px 10px; font-size: 0.8em; margin-left: 6px; }\n", linkColor)
	b.WriteString(".tag { display: inline-block; background: #e0f2fe; color: #0369a1; border-radius: 12px; padding: 2px 10px; font-size: 0.8em; margin-right: 4px; }\n")
	fmt.Fprintf(b, ".cta { display: inline-block; background: %s; color: #ffffff; padding: 10px 20px; border-radius: 6px; text-decoration: none; font-weight: 600; margin-top: 8px; }\n", linkColor)
	b.WriteString(".footer { padding: 20px; text-align: center; color: #64748b; font-size: 0.85em; }\n")
	b.WriteString(".footer a { color: #64748b; margin: 0 6px; }\n")
	fmt.Fprintf(b, "a { color: %s; }\n", linkColor)
	b.WriteString("</style>\n</head>\n<body>\n")
	fmt.Fprintf(b, "<div class=\"header\"><h1>🎣 %s</h1></div>\n", brandName)
	b.WriteString("<div class=\"body\">\n")
}

// closeDocument writes the shared footer with the legal links.
func closeDocument(b *strings.Builder, unsubscribeURL, preferencesURL string) {
	b.WriteString("</div>\n")
	b.WriteString("<div class=\"footer\">\n")
	if unsubscribeURL != "" || preferencesURL != "" {
		b.WriteString("<p>")
		if preferencesURL != "" {
			fmt.Fprintf(b, "<a href=\"%s\">Gestisci preferenze</a>", escape(preferencesURL))
		}
		if unsubscribeURL != "" {
			fmt.Fprintf(b, "<a href=\"%s\">Annulla iscrizione</a>", escape(unsubscribeURL))
		}
		b.WriteString("</p>\n")
	}
	fmt.Fprintf(b, "<p>&copy; %s. Tutti i diritti riservati.</p>\n", brandName)
	b.WriteString("</div>\n</body>\n</html>\n")
}
