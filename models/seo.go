package models

// Headings sammelt die Überschriften einer Seite nach Ebene.
type Headings struct {
	H1 []string `json:"h1"`
	H2 []string `json:"h2"`
	H3 []string `json:"h3"`
}

// SeoResult ist das Ergebnis eines SEO-Scans. Score liegt immer in [0,100];
// ein fehlgeschlagener Abruf liefert Score 0 plus einen Issue-Eintrag,
// niemals einen Fehler.
type SeoResult struct {
	Score           int      `json:"score"`
	MetaTitle       *string  `json:"meta_title,omitempty"`
	MetaDescription *string  `json:"meta_description,omitempty"`
	Headings        Headings `json:"headings"`
	WordCount       int      `json:"word_count"`
	TopKeywords     []string `json:"top_keywords"`
	Issues          []string `json:"issues"`
}

// PresenceResult beschreibt die Online-Präsenz eines Unternehmens.
// Ein "nicht gefunden" ist ein gültiger Wert, kein Fehler.
type PresenceResult struct {
	HasListing      bool              `json:"has_listing"`
	Rating          *float64          `json:"rating,omitempty"`
	ReviewCount     *int              `json:"review_count,omitempty"`
	SocialProfiles  map[string]string `json:"social_profiles"`
	PrimaryCategory string            `json:"primary_category,omitempty"`
}
