package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bizradar/models"
	"bizradar/providers"
)

const insightsSystemPrompt = `You are a local business marketing analyst. ` +
	`Respond with a single JSON object matching exactly this schema, no prose, no markdown fences: ` +
	`{"overall_analysis": string, ` +
	`"strengths": [{"title": string, "explanation": string}], ` +
	`"weaknesses": [{"title": string, "explanation": string}], ` +
	`"opportunities": [{"title": string, "explanation": string}], ` +
	`"recommendations": [{"title": string, "description": string, "impact": string, "action_plan": string}], ` +
	`"detected_industry": string}`

// InsightService erzeugt die strukturierte SWOT-Analyse über das LLM.
// Scheitert der Aufruf oder das Parsen, liefert der Service ein festes
// Fallback-Ergebnis; die Pipeline scheitert nie allein am LLM.
type InsightService struct {
	LLM    providers.LLM
	Logger *zap.Logger
}

// NewInsightService erstellt einen neuen Insight-Service.
func NewInsightService(llm providers.LLM, logger *zap.Logger) *InsightService {
	return &InsightService{LLM: llm, Logger: logger}
}

// Generate baut den Prompt aus Analyse und Konkurrenten und parst die
// JSON-Antwort strikt.
func (i *InsightService) Generate(ctx context.Context, analysis *models.Analysis, competitors []*models.Competitor) *models.InsightReport {
	log := i.Logger.With(zap.Uint("analysis_id", analysis.ID))

	raw, err := i.LLM.Complete(ctx, insightsSystemPrompt, buildBusinessSummary(analysis, competitors))
	if err != nil {
		log.Warn("LLM-Insights fehlgeschlagen, nutze Fallback", zap.Error(err))
		return fallbackInsights(analysis)
	}

	var report models.InsightReport
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &report); err != nil {
		log.Warn("LLM-Antwort nicht parsebar, nutze Fallback", zap.Error(err))
		return fallbackInsights(analysis)
	}
	if report.OverallAnalysis == "" {
		log.Warn("LLM-Antwort unvollständig, nutze Fallback")
		return fallbackInsights(analysis)
	}

	log.Debug("Insights generiert",
		zap.Int("strengths", len(report.Strengths)),
		zap.Int("recommendations", len(report.Recommendations)))
	return &report
}

// buildBusinessSummary fasst Ziel und Konkurrenten für den Prompt zusammen.
func buildBusinessSummary(analysis *models.Analysis, competitors []*models.Competitor) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Business: %s\nLocation: %s\n", analysis.BusinessName, analysis.Location)
	if analysis.Industry != "" {
		fmt.Fprintf(&sb, "Industry: %s\n", analysis.Industry)
	}
	if analysis.WebsiteURL != "" {
		fmt.Fprintf(&sb, "Website: %s\n", analysis.WebsiteURL)
	}
	if analysis.SeoScore != nil {
		fmt.Fprintf(&sb, "SEO score: %d/100\n", *analysis.SeoScore)
	}
	if analysis.GoogleRating != nil {
		fmt.Fprintf(&sb, "Google rating: %.1f", *analysis.GoogleRating)
		if analysis.ReviewCount != nil {
			fmt.Fprintf(&sb, " (%d reviews)", *analysis.ReviewCount)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\nCompetitors (%d):\n", len(competitors))
	for _, c := range competitors {
		fmt.Fprintf(&sb, "- %s", c.Name)
		if c.GoogleRating != nil {
			fmt.Fprintf(&sb, ", rating %.1f", *c.GoogleRating)
		}
		if c.ReviewCount != nil {
			fmt.Fprintf(&sb, ", %d reviews", *c.ReviewCount)
		}
		if c.SeoScore != nil {
			fmt.Fprintf(&sb, ", SEO %d/100", *c.SeoScore)
		}
		fmt.Fprintf(&sb, ", threat %s (score %d)\n", c.ThreatLevel, c.CompetitiveScore)
	}

	return sb.String()
}

// stripCodeFences entfernt Markdown-Zäune, die manche Modelle trotz
// Anweisung um die JSON-Antwort legen.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	return strings.TrimSpace(trimmed)
}

// fallbackInsights ist das feste Ergebnis für den Fall, dass das LLM
// nicht verfügbar ist oder Unsinn liefert.
func fallbackInsights(analysis *models.Analysis) *models.InsightReport {
	return &models.InsightReport{
		OverallAnalysis: fmt.Sprintf(
			"%s operates in a competitive local market in %s. A detailed AI analysis could not be generated; the recommendations below are general best practices.",
			analysis.BusinessName, analysis.Location),
		Strengths: []models.SwotItem{{
			Title:       "Established local presence",
			Explanation: "The business is an active local operation with an identifiable location.",
		}},
		Weaknesses: []models.SwotItem{{
			Title:       "Limited online visibility data",
			Explanation: "Not enough signals were collected to assess the online presence in detail.",
		}},
		Opportunities: []models.SwotItem{{
			Title:       "Strengthen digital footprint",
			Explanation: "Improving website content and local listings typically lifts discovery for local businesses.",
		}},
		Recommendations: []models.Recommendation{{
			Title:       "Claim and complete your business listing",
			Description: "Ensure the map listing has accurate hours, photos and contact details.",
			Impact:      "medium",
			ActionPlan:  "Verify the listing, add photos, and respond to recent reviews.",
		}},
	}
}
