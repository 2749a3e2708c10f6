package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"bizradar/providers"
)

// techMarkers ordnet HTML-Signaturen bekannten Technologien zu. Die
// Reihenfolge ist fest; der persistierte Stack bleibt damit über
// Läufe hinweg identisch.
var techMarkers = []struct {
	marker string
	tech   string
}{
	{"wp-content", "WordPress"},
	{"cdn.shopify.com", "Shopify"},
	{"wixstatic.com", "Wix"},
	{"squarespace", "Squarespace"},
	{"data-reactroot", "React"},
	{"__next", "Next.js"},
	{"gtag(", "Google Analytics"},
	{"fbevents.js", "Meta Pixel"},
	{"hs-script", "HubSpot"},
	{"klaviyo", "Klaviyo"},
}

var (
	employeeRegex = regexp.MustCompile(`(?i)(\d{1,5})\+?\s+(?:employees|team members|staff)`)
	fundingRegex  = regexp.MustCompile(`(?i)(?:raised|secured|closed)\s+\$\s?\d+(?:\.\d+)?\s?(?:million|billion|m|b|k)(?:\s+in\s+(?:seed|series\s+[a-d])?\s*(?:funding|investment)?)?`)
)

// Enrichment sind die Best-Effort-Signale von der Website eines
// Konkurrenten. Jedes Feld kann fehlen.
type Enrichment struct {
	EmployeeEstimate *int
	FundingInfo      string
	TechStack        []string
	RecentNews       []string
}

// EnrichService schürft Technologie- und Größensignale von
// Konkurrenz-Websites.
type EnrichService struct {
	Fetcher providers.HTMLFetcher
	Logger  *zap.Logger
}

// NewEnrichService erstellt einen neuen Enrich-Service.
func NewEnrichService(fetcher providers.HTMLFetcher, logger *zap.Logger) *EnrichService {
	return &EnrichService{Fetcher: fetcher, Logger: logger}
}

// Enrich lädt die Website und extrahiert die Signale. Ein Abruf-Fehler
// wird zurückgegeben, damit der Aufrufer ihn als Soft-Failure verbuchen
// kann.
func (e *EnrichService) Enrich(ctx context.Context, websiteURL string) (*Enrichment, error) {
	log := e.Logger.With(zap.String("url", websiteURL))

	html, err := e.Fetcher.Fetch(ctx, websiteURL)
	if err != nil {
		return nil, err
	}

	enrichment := &Enrichment{TechStack: []string{}, RecentNews: []string{}}

	lower := strings.ToLower(html)
	for _, m := range techMarkers {
		if strings.Contains(lower, m.marker) {
			enrichment.TechStack = append(enrichment.TechStack, m.tech)
		}
	}

	if m := employeeRegex.FindStringSubmatch(html); len(m) == 2 {
		if n, err := strconv.Atoi(m[1]); err == nil {
			enrichment.EmployeeEstimate = &n
		}
	}
	if m := fundingRegex.FindString(html); m != "" {
		enrichment.FundingInfo = strings.TrimSpace(m)
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		enrichment.RecentNews = newsHeadlines(doc, 3)
	}

	log.Debug("Anreicherung abgeschlossen",
		zap.Int("tech_stack", len(enrichment.TechStack)),
		zap.Int("news", len(enrichment.RecentNews)))
	return enrichment, nil
}

// newsHeadlines sammelt bis zu limit Artikel-Überschriften der Startseite.
func newsHeadlines(doc *goquery.Document, limit int) []string {
	headlines := []string{}
	doc.Find("article h2, article h3").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			headlines = append(headlines, t)
		}
		return len(headlines) < limit
	})
	return headlines
}
