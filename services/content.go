package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"bizradar/models"
	"bizradar/providers"
)

const blogSystemPrompt = `You are a content writer for local businesses. ` +
	`Write an engaging, SEO-friendly blog post of 600-900 words in plain markdown. ` +
	`Do not mention competitors by name.`

const adCopySystemPrompt = `You are an advertising copywriter. ` +
	`Respond with a JSON array, no prose, no markdown fences. Each element: ` +
	`{"headline": string, "description": string, "callToAction": string, "platform": string}. ` +
	`Produce one variant each for the platforms google, facebook and instagram.`

// ContentService erzeugt Blog-Post und Anzeigentexte über das LLM.
// Wie beim InsightService gilt: jeder Fehler führt zum festen Fallback.
type ContentService struct {
	LLM    providers.LLM
	Logger *zap.Logger
}

// NewContentService erstellt einen neuen Content-Service.
func NewContentService(llm providers.LLM, logger *zap.Logger) *ContentService {
	return &ContentService{LLM: llm, Logger: logger}
}

// GenerateBlogPost erzeugt einen Blog-Post für das Unternehmen.
func (c *ContentService) GenerateBlogPost(ctx context.Context, analysis *models.Analysis, competitors []*models.Competitor) string {
	log := c.Logger.With(zap.Uint("analysis_id", analysis.ID))

	prompt := fmt.Sprintf("Write a blog post for this business:\n\n%s", buildBusinessSummary(analysis, competitors))
	post, err := c.LLM.Complete(ctx, blogSystemPrompt, prompt)
	if err != nil || post == "" {
		log.Warn("Blog-Generierung fehlgeschlagen, nutze Fallback", zap.Error(err))
		return fallbackBlogPost(analysis)
	}
	return post
}

// GenerateAdCopy erzeugt Anzeigen-Varianten für das Unternehmen.
func (c *ContentService) GenerateAdCopy(ctx context.Context, analysis *models.Analysis, competitors []*models.Competitor) []models.AdVariant {
	log := c.Logger.With(zap.Uint("analysis_id", analysis.ID))

	prompt := fmt.Sprintf("Write ad copy for this business:\n\n%s", buildBusinessSummary(analysis, competitors))
	raw, err := c.LLM.Complete(ctx, adCopySystemPrompt, prompt)
	if err != nil {
		log.Warn("Ad-Copy-Generierung fehlgeschlagen, nutze Fallback", zap.Error(err))
		return fallbackAdCopy(analysis)
	}

	var variants []models.AdVariant
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &variants); err != nil || len(variants) == 0 {
		log.Warn("Ad-Copy-Antwort nicht parsebar, nutze Fallback", zap.Error(err))
		return fallbackAdCopy(analysis)
	}
	return variants
}

// fallbackBlogPost ist der generische Blog-Text bei LLM-Ausfall.
func fallbackBlogPost(analysis *models.Analysis) string {
	return fmt.Sprintf(
		"# Why %s is worth a visit\n\n"+
			"Looking for a trusted local business in %s? %s combines local know-how with a focus on its customers. "+
			"Stop by or get in touch to find out what sets them apart from the competition.",
		analysis.BusinessName, analysis.Location, analysis.BusinessName)
}

// fallbackAdCopy sind die generischen Anzeigen-Varianten bei LLM-Ausfall.
func fallbackAdCopy(analysis *models.Analysis) []models.AdVariant {
	return []models.AdVariant{
		{
			Headline:     fmt.Sprintf("%s – your local choice", analysis.BusinessName),
			Description:  fmt.Sprintf("Serving %s with quality and care. Visit us today.", analysis.Location),
			CallToAction: "Learn More",
			Platform:     "google",
		},
		{
			Headline:     fmt.Sprintf("Discover %s", analysis.BusinessName),
			Description:  fmt.Sprintf("Proudly local in %s. See what our customers say.", analysis.Location),
			CallToAction: "Visit Us",
			Platform:     "facebook",
		},
	}
}
