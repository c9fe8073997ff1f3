// Package theme holds the branding values of the WECHANGE cloud.
//
// The values mirror the theming contract the platform expects: a set of
// string accessors the web UI calls on every page render. They are fixed at
// compile time; a Theme is constructed once via Default and never mutated.
package theme

import "net/url"

// Theme is the immutable set of branding values.
// The zero value is not usable, construct it with Default.
type Theme struct {
	title        string
	shortName    string
	entity       string
	slogan       string
	primaryColor string
	baseURL      string
	imprintURL   string
	privacyURL   string
	docsBaseURL  string
}

// Default returns the branding of the WECHANGE cloud.
func Default() Theme {
	return Theme{
		title:        "WECHANGE Cloud",
		shortName:    "Cloud",
		entity:       "WECHANGE eG",
		slogan:       "Die Plattform für Wandelbewegte",
		primaryColor: "#7ab143",
		baseURL:      "https://wechange.de",
		imprintURL:   "https://wechange.de/cms/impressum/",
		privacyURL:   "https://wechange.de/cms/datenschutz/",
		docsBaseURL:  "https://wechange.de/cms/hilfe/",
	}
}

// Title returns the full product title shown in page titles and mails.
func (t Theme) Title() string {
	return t.title
}

// ShortName returns the short product name shown in the header.
func (t Theme) ShortName() string {
	return t.shortName
}

// Entity returns the legal entity running the platform.
func (t Theme) Entity() string {
	return t.entity
}

// Slogan returns the marketing slogan.
func (t Theme) Slogan() string {
	return t.slogan
}

// PrimaryColor returns the primary brand color as a #rrggbb hex string.
func (t Theme) PrimaryColor() string {
	return t.primaryColor
}

// BaseURL returns the homepage of the platform operator.
func (t Theme) BaseURL() string {
	return t.baseURL
}

// ImprintURL returns the legal imprint page.
func (t Theme) ImprintURL() string {
	return t.imprintURL
}

// PrivacyURL returns the privacy policy page.
func (t Theme) PrivacyURL() string {
	return t.privacyURL
}

// ShortFooter returns the footer HTML shown on login and public pages.
func (t Theme) ShortFooter() string {
	return `<a href="` + t.baseURL + `" target="_blank" rel="noreferrer noopener">` +
		t.entity + `</a> · ` + t.slogan
}

// LongFooter returns the footer HTML with legal links appended.
func (t Theme) LongFooter() string {
	return t.ShortFooter() +
		` · <a href="` + t.imprintURL + `" target="_blank" rel="noreferrer noopener">Impressum</a>` +
		` · <a href="` + t.privacyURL + `" target="_blank" rel="noreferrer noopener">Datenschutz</a>`
}

// DocLink builds the documentation URL for a help article key.
// An empty key links to the help index.
func (t Theme) DocLink(key string) string {
	if key == "" {
		return t.docsBaseURL
	}
	return t.docsBaseURL + "?article=" + url.QueryEscape(key)
}
