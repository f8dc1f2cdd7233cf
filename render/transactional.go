package render

import (
	"fmt"
	"strings"

	"github.com/fishandtips/newsletter/models"
)

// Welcome renders the body sent right after registration.
func Welcome(user models.User, preferencesURL string) string {
	var b strings.Builder
	openDocument(&b, "Benvenuto su "+brandName)

	fmt.Fprintf(&b, "<p>Ciao <strong>%s</strong>,</p>\n", escape(user.FirstName))
	fmt.Fprintf(&b, "<p>benvenuto su %s! Da oggi riceverai i migliori articoli di pesca scelti in base alle tecniche che ti interessano.</p>\n", brandName)
	b.WriteString("<ul>\n")
	b.WriteString("<li>Guide e consigli sulle tue tecniche preferite</li>\n")
	b.WriteString("<li>Calendari di pesca regionali</li>\n")
	b.WriteString("<li>Schede delle specie e spot consigliati</li>\n")
	b.WriteString("</ul>\n")
	if preferencesURL != "" {
		b.WriteString("<p style=\"text-align:center; margin-top: 24px;\">")
		fmt.Fprintf(&b, "<a class=\"cta\" href=\"%s\">Scegli le tue tecniche</a>", escape(preferencesURL))
		b.WriteString("</p>\n")
	}

	closeDocument(&b, "", preferencesURL)
	return b.String()
}

// PreferencesChanged renders the confirmation sent after the user saves
// the preferences form.
func PreferencesChanged(user models.User, preferencesURL string) string {
	var b strings.Builder
	openDocument(&b, "Preferenze aggiornate")

	fmt.Fprintf(&b, "<p>Ciao <strong>%s</strong>,</p>\n", escape(user.FirstName))
	b.WriteString("<p>le tue preferenze newsletter sono state aggiornate.</p>\n")

	if len(user.TechniqueInterests) > 0 {
		fmt.Fprintf(&b, "<div class=\"stats\">Tecniche seguite: <strong>%d</strong> &bull; Frequenza: <strong>%s</strong></div>\n",
			len(user.TechniqueInterests), escape(frequencyLabel(user.NewsletterFrequency)))
	}

	if preferencesURL != "" {
		fmt.Fprintf(&b, "<p>Puoi modificarle in qualsiasi momento dalla <a href=\"%s\">pagina preferenze</a>.</p>\n", escape(preferencesURL))
	}

	closeDocument(&b, "", preferencesURL)
	return b.String()
}

func frequencyLabel(freq models.NewsletterFrequency) string {
	switch freq {
	case models.FrequencyWeekly:
		return "settimanale"
	case models.FrequencyBiweekly:
		return "bisettimanale"
	case models.FrequencyMonthly:
		return "mensile"
	}
	return string(freq)
}
