package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"bizradar/models"
	"bizradar/providers"
)

// Gewichte und Schwellen des SEO-Scores. Änderungen hier verschieben
// Scores bestehender Analysen und brauchen eine Neuberechnung.
const (
	titleMinLen       = 30
	titleMaxLen       = 60
	titleFullPoints   = 20
	titleHalfPoints   = 10
	descMinLen        = 120
	descMaxLen        = 160
	descFullPoints    = 20
	descHalfPoints    = 10
	h1Points          = 15
	h2Points          = 15
	wordTierLow       = 300
	wordTierMid       = 500
	wordTierHigh      = 1000
	wordLowPoints     = 10
	wordMidPoints     = 15
	wordHighPoints    = 20
	maxKeywords       = 10
	minKeywordLetters = 4
)

var nonLetterRegex = regexp.MustCompile(`[^a-z]+`)

// stopWords enthält Wörter, die bei der Keyword-Extraktion ignoriert werden.
var stopWords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "your": true,
	"have": true, "more": true, "will": true, "about": true, "they": true,
	"what": true, "when": true, "where": true, "which": true, "their": true,
	"there": true, "been": true, "were": true, "them": true, "than": true,
	"then": true, "also": true, "into": true, "over": true, "only": true,
	"some": true, "such": true, "here": true, "just": true, "like": true,
	"each": true, "other": true, "after": true, "before": true, "because": true,
	"these": true, "those": true, "very": true, "most": true, "make": true,
	"made": true, "every": true, "would": true, "could": true, "should": true,
	"does": true, "being": true, "much": true, "many": true, "both": true,
}

// SeoService analysiert Websites auf grundlegende SEO-Signale.
type SeoService struct {
	Fetcher providers.HTMLFetcher
	Logger  *zap.Logger
}

// NewSeoService erstellt einen neuen SEO-Service.
func NewSeoService(fetcher providers.HTMLFetcher, logger *zap.Logger) *SeoService {
	return &SeoService{Fetcher: fetcher, Logger: logger}
}

// Analyze lädt die Seite und berechnet den SEO-Score. Abruf- oder
// Parse-Probleme werden als Fehler gemeldet; das Ergebnis trägt dann
// Score 0 mit einem Issue-Eintrag. Eine erreichbare leere Seite ist kein
// Fehler, sondern eine echte Null-Messung.
func (s *SeoService) Analyze(ctx context.Context, url string) (models.SeoResult, error) {
	log := s.Logger.With(zap.String("url", url))

	html, err := s.Fetcher.Fetch(ctx, url)
	if err != nil {
		log.Warn("SEO-Scan: Seite konnte nicht geladen werden", zap.Error(err))
		return models.SeoResult{
			Score:       0,
			Headings:    models.Headings{H1: []string{}, H2: []string{}, H3: []string{}},
			TopKeywords: []string{},
			Issues:      []string{fmt.Sprintf("could not fetch page: %v", err)},
		}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Warn("SEO-Scan: HTML konnte nicht geparst werden", zap.Error(err))
		return models.SeoResult{
			Score:       0,
			Headings:    models.Headings{H1: []string{}, H2: []string{}, H3: []string{}},
			TopKeywords: []string{},
			Issues:      []string{fmt.Sprintf("could not parse page: %v", err)},
		}, err
	}

	result := models.SeoResult{Issues: []string{}}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title != "" {
		result.MetaTitle = &title
	}
	description, _ := doc.Find(`meta[name="description"]`).Attr("content")
	description = strings.TrimSpace(description)
	if description != "" {
		result.MetaDescription = &description
	}

	result.Headings = models.Headings{
		H1: headingTexts(doc, "h1"),
		H2: headingTexts(doc, "h2"),
		H3: headingTexts(doc, "h3"),
	}

	bodyText := doc.Find("body").Text()
	words := strings.Fields(bodyText)
	result.WordCount = len(words)
	result.TopKeywords = ExtractKeywords(bodyText, maxKeywords)

	result.Score = s.score(&result)
	log.Debug("SEO-Scan abgeschlossen", zap.Int("score", result.Score), zap.Int("words", result.WordCount))
	return result, nil
}

// score berechnet die gewichtete Summe über die sechs Checks und füllt die
// Issue-Liste.
func (s *SeoService) score(r *models.SeoResult) int {
	score := 0

	switch {
	case r.MetaTitle == nil:
		r.Issues = append(r.Issues, "Missing title tag")
	case len(*r.MetaTitle) >= titleMinLen && len(*r.MetaTitle) <= titleMaxLen:
		score += titleFullPoints
	default:
		score += titleHalfPoints
		r.Issues = append(r.Issues, fmt.Sprintf("Title length should be %d-%d characters", titleMinLen, titleMaxLen))
	}

	switch {
	case r.MetaDescription == nil:
		r.Issues = append(r.Issues, "Missing meta description")
	case len(*r.MetaDescription) >= descMinLen && len(*r.MetaDescription) <= descMaxLen:
		score += descFullPoints
	default:
		score += descHalfPoints
		r.Issues = append(r.Issues, fmt.Sprintf("Meta description length should be %d-%d characters", descMinLen, descMaxLen))
	}

	if len(r.Headings.H1) == 1 {
		score += h1Points
	} else {
		r.Issues = append(r.Issues, "Page should have exactly one H1 tag")
	}

	if len(r.Headings.H2) >= 2 {
		score += h2Points
	} else {
		r.Issues = append(r.Issues, "Page should have at least two H2 tags")
	}

	switch {
	case r.WordCount >= wordTierHigh:
		score += wordHighPoints
	case r.WordCount >= wordTierMid:
		score += wordMidPoints
	case r.WordCount >= wordTierLow:
		score += wordLowPoints
	default:
		r.Issues = append(r.Issues, fmt.Sprintf("Thin content: fewer than %d words", wordTierLow))
	}

	// Keyword-Diversität: ein Punkt pro gefundenem Top-Keyword, max. 10.
	score += len(r.TopKeywords)

	if score > 100 {
		score = 100
	}
	return score
}

// headingTexts sammelt die Texte aller Überschriften eines Selektors.
func headingTexts(doc *goquery.Document, selector string) []string {
	texts := []string{}
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			texts = append(texts, t)
		}
	})
	return texts
}

// ExtractKeywords extrahiert die häufigsten Wörter eines Textes:
// Kleinschreibung, nur Buchstaben, Wörter mit mehr als drei Zeichen,
// ohne Stoppwörter, absteigend nach Häufigkeit.
func ExtractKeywords(text string, limit int) []string {
	counts := map[string]int{}
	for _, raw := range strings.Fields(strings.ToLower(text)) {
		word := nonLetterRegex.ReplaceAllString(raw, "")
		if len(word) < minKeywordLetters || stopWords[word] {
			continue
		}
		counts[word]++
	}

	keywords := make([]string, 0, len(counts))
	for word := range counts {
		keywords = append(keywords, word)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return keywords[i] < keywords[j] // deterministische Reihenfolge
	})

	if len(keywords) > limit {
		keywords = keywords[:limit]
	}
	return keywords
}
