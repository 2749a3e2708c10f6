package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bizradar/config"
	"bizradar/models"
	"bizradar/providers"
)

var competitorsDiscoveredCounter = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "competitors_discovered_total",
	Help: "Total number of competitors discovered across all analyses.",
})

func init() {
	prometheus.MustRegister(competitorsDiscoveredCounter)
}

// genericCategories sind Places-Kategorien, die zu unspezifisch sind, um
// eine leere Branchenangabe zu überschreiben. Abgleich auf der
// kleingeschriebenen Kategorie; die Liste ist bewusst nicht abschließend.
var genericCategories = map[string]bool{
	"point_of_interest": true,
	"establishment":     true,
	"store":             true,
	"food":              true,
	"premise":           true,
	"locality":          true,
}

// AnalysisService orchestriert die gesamte Analyse-Pipeline:
// pending -> collecting -> analyzing -> completed, mit failed als
// terminalem Fehlerzustand.
type AnalysisService struct {
	Config    *config.Config
	DB        *gorm.DB
	Logger    *zap.Logger
	Seo       *SeoService
	Presence  *PresenceService
	Discovery *DiscoveryService
	Enrich    *EnrichService
	Insights  *InsightService
	Content   *ContentService
}

// NewAnalysisService verdrahtet die Teil-Services mit den Collaborator-
// Clients.
func NewAnalysisService(cfg *config.Config, db *gorm.DB, logger *zap.Logger, maps providers.Maps, fetcher providers.HTMLFetcher, model providers.LLM) *AnalysisService {
	return &AnalysisService{
		Config:    cfg,
		DB:        db,
		Logger:    logger,
		Seo:       NewSeoService(fetcher, logger),
		Presence:  NewPresenceService(maps, fetcher, logger),
		Discovery: NewDiscoveryService(maps, logger, cfg.MaxCompetitors),
		Enrich:    NewEnrichService(fetcher, logger),
		Insights:  NewInsightService(model, logger),
		Content:   NewContentService(model, logger),
	}
}

// Run führt die Pipeline für eine Analyse aus. Die Methode ist nicht
// re-entrant: Datensätze, die nicht im Status pending sind, werden
// abgelehnt. Jeder nicht abgefangene Stage-Fehler überführt den Datensatz
// nach failed; der Fehler wird zusätzlich zurückgegeben, damit der
// Aufrufer ihn loggen und zählen kann.
func (s *AnalysisService) Run(ctx context.Context, analysisID uint) error {
	log := s.Logger.With(zap.Uint("analysis_id", analysisID))

	var analysis models.Analysis
	if err := s.DB.First(&analysis, analysisID).Error; err != nil {
		return fmt.Errorf("analyse %d nicht gefunden: %w", analysisID, err)
	}
	if analysis.Status != models.StatusPending {
		return fmt.Errorf("analyse %d ist nicht pending (status %s)", analysisID, analysis.Status)
	}

	log.Info("Starte Analyse-Pipeline.", zap.String("business", analysis.BusinessName))

	if err := s.collect(ctx, &analysis, log); err != nil {
		s.fail(&analysis, err, log)
		return err
	}
	if err := s.analyze(ctx, &analysis, log); err != nil {
		s.fail(&analysis, err, log)
		return err
	}

	now := time.Now()
	if err := s.transition(&analysis, models.StatusCompleted, map[string]any{"completed_at": &now}); err != nil {
		s.fail(&analysis, err, log)
		return err
	}

	log.Info("Analyse-Pipeline abgeschlossen.")
	return nil
}

// collect umfasst die Stages 1-8: SEO der eigenen Website, Präsenz,
// Branchen-Bestimmung, Konkurrenz-Suche und -Anreicherung.
func (s *AnalysisService) collect(ctx context.Context, analysis *models.Analysis, log *zap.Logger) error {
	if err := s.transition(analysis, models.StatusCollecting, nil); err != nil {
		return err
	}

	// Stage 2: SEO des Zielunternehmens. Keine URL ist kein Fehler, und
	// auch ein gescheiterter Abruf wird als Null-Ergebnis mit Issue
	// festgehalten.
	if analysis.WebsiteURL != "" {
		stageCtx, cancel := context.WithTimeout(ctx, s.Config.StageTimeout())
		seo, scanErr := s.Seo.Analyze(stageCtx, analysis.WebsiteURL)
		cancel()
		if scanErr != nil {
			log.Warn("SEO-Scan der eigenen Website fehlgeschlagen", zap.Error(scanErr))
		}

		if err := s.persist(analysis, map[string]any{
			"seo_score":        &seo.Score,
			"meta_title":       seo.MetaTitle,
			"meta_description": seo.MetaDescription,
			"headings":         toJSON(seo.Headings),
			"word_count":       &seo.WordCount,
			"top_keywords":     toJSON(seo.TopKeywords),
			"seo_issues":       toJSON(seo.Issues),
		}); err != nil {
			return err
		}
	} else {
		log.Debug("Keine Website angegeben, SEO-Stage übersprungen.")
	}

	// Stage 3: Online-Präsenz. "Nicht gefunden" ist ein gültiges Ergebnis.
	stageCtx, cancel := context.WithTimeout(ctx, s.Config.StageTimeout())
	presence := s.Presence.Analyze(stageCtx, analysis.BusinessName, analysis.Location, analysis.WebsiteURL)
	cancel()

	updates := map[string]any{
		"has_map_listing": &presence.HasListing,
		"google_rating":   presence.Rating,
		"review_count":    presence.ReviewCount,
		"social_profiles": toJSON(presence.SocialProfiles),
	}
	if presence.PrimaryCategory != "" {
		updates["primary_category"] = &presence.PrimaryCategory
	}

	// Stage 4: Branche bestimmen. Generische Kategorien dürfen eine leere
	// Branchenangabe nicht mit Rauschen überschreiben.
	if analysis.Industry == "" && usableCategory(presence.PrimaryCategory) {
		analysis.Industry = presence.PrimaryCategory
		updates["industry"] = presence.PrimaryCategory
	}
	if err := s.persist(analysis, updates); err != nil {
		return err
	}

	// Stage 5: Konkurrenz-Suche.
	stageCtx, cancel = context.WithTimeout(ctx, s.Config.StageTimeout())
	competitors, err := s.Discovery.Discover(stageCtx, analysis.BusinessName, analysis.Location, analysis.Industry)
	cancel()
	if err != nil {
		return fmt.Errorf("konkurrenz-suche fehlgeschlagen: %w", err)
	}

	// Stage 6+7: Anreicherung pro Konkurrent, parallel und gegeneinander
	// fehlerisoliert. Ein Fehlschlag hinterlässt leere Felder, bricht aber
	// weder Geschwister noch Pipeline ab.
	s.enrichCompetitors(ctx, analysis, competitors, log)

	// Stage 8: Konkurrenten in einem Rutsch persistieren.
	if len(competitors) > 0 {
		for _, c := range competitors {
			c.AnalysisID = analysis.ID
		}
		if err := s.DB.Create(&competitors).Error; err != nil {
			return fmt.Errorf("konkurrenten konnten nicht gespeichert werden: %w", err)
		}
		competitorsDiscoveredCounter.Add(float64(len(competitors)))
	}

	log.Info("Datensammlung abgeschlossen", zap.Int("competitors", len(competitors)))
	return nil
}

// enrichCompetitors führt SEO-Scan und Anreicherung für alle Konkurrenten
// parallel aus und berechnet Score und Bedrohungsstufe.
func (s *AnalysisService) enrichCompetitors(ctx context.Context, analysis *models.Analysis, competitors []*models.Competitor, log *zap.Logger) {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // Parallele Verarbeitung limitieren

	for _, competitor := range competitors {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(c *models.Competitor) {
			defer wg.Done()
			defer func() { <-semaphore }()

			clog := log.With(zap.String("competitor", c.Name))

			if c.Website != "" {
				stageCtx, cancel := context.WithTimeout(ctx, s.Config.StageTimeout())
				seo, seoErr := s.Seo.Analyze(stageCtx, c.Website)
				cancel()

				// Gescheiterter Abruf hinterlässt leere Felder; eine
				// erreichbare leere Seite ist dagegen eine echte
				// Null-Messung und wird gespeichert.
				if seoErr != nil {
					clog.Debug("SEO-Scan des Konkurrenten fehlgeschlagen", zap.Error(seoErr))
				} else {
					c.SeoScore = &seo.Score
					c.MetaTitle = seo.MetaTitle
					c.MetaDescription = seo.MetaDescription
					c.Headings = toJSON(seo.Headings)
					c.WordCount = &seo.WordCount
					c.TopKeywords = toJSON(seo.TopKeywords)
				}

				stageCtx, cancel = context.WithTimeout(ctx, s.Config.StageTimeout())
				enrichment, err := s.Enrich.Enrich(stageCtx, c.Website)
				cancel()
				if err != nil {
					clog.Debug("Anreicherung des Konkurrenten fehlgeschlagen", zap.Error(err))
				} else {
					c.EmployeeEstimate = enrichment.EmployeeEstimate
					c.FundingInfo = enrichment.FundingInfo
					c.TechStack = toJSON(enrichment.TechStack)
					c.RecentNews = toJSON(enrichment.RecentNews)
				}
			}

			c.CompetitiveScore = CompetitiveScore(c.SeoScore, c.GoogleRating, c.ReviewCount, c.Website != "")
			c.ThreatLevel = ThreatLevelFor(c.CompetitiveScore)
		}(competitor)
	}

	wg.Wait()
}

// analyze umfasst die Stages 9-11: AI-Insights und Content-Generierung.
func (s *AnalysisService) analyze(ctx context.Context, analysis *models.Analysis, log *zap.Logger) error {
	if err := s.transition(analysis, models.StatusAnalyzing, nil); err != nil {
		return err
	}

	var competitors []*models.Competitor
	if err := s.DB.Where("analysis_id = ?", analysis.ID).Find(&competitors).Error; err != nil {
		return fmt.Errorf("konkurrenten konnten nicht geladen werden: %w", err)
	}

	// Stage 10: SWOT-Insights. Der Insight-Service fällt bei LLM-Fehlern
	// auf ein festes Ergebnis zurück, deshalb gibt es hier keinen
	// Fehlerpfad.
	stageCtx, cancel := context.WithTimeout(ctx, s.Config.StageTimeout())
	report := s.Insights.Generate(stageCtx, analysis, competitors)
	cancel()

	updates := map[string]any{
		"overall_analysis": report.OverallAnalysis,
		"strengths":        toJSON(report.Strengths),
		"weaknesses":       toJSON(report.Weaknesses),
		"opportunities":    toJSON(report.Opportunities),
		"recommendations":  toJSON(report.Recommendations),
	}
	if report.DetectedIndustry != "" && usableCategory(report.DetectedIndustry) {
		analysis.Industry = report.DetectedIndustry
		updates["industry"] = report.DetectedIndustry
	}
	if err := s.persist(analysis, updates); err != nil {
		return err
	}

	// Stage 11: Blog-Post und Anzeigentexte.
	stageCtx, cancel = context.WithTimeout(ctx, s.Config.StageTimeout())
	blogPost := s.Content.GenerateBlogPost(stageCtx, analysis, competitors)
	adCopy := s.Content.GenerateAdCopy(stageCtx, analysis, competitors)
	cancel()

	if err := s.persist(analysis, map[string]any{
		"blog_post": blogPost,
		"ad_copy":   toJSON(adCopy),
	}); err != nil {
		return err
	}

	log.Info("AI-Analyse abgeschlossen", zap.Int("competitors", len(competitors)))
	return nil
}

// RegenerateContent erzeugt Blog-Post oder Anzeigentexte einer bereits
// abgeschlossenen Analyse neu. Status und Konkurrenten bleiben unberührt;
// überschrieben wird ausschließlich das angeforderte Feld.
func (s *AnalysisService) RegenerateContent(ctx context.Context, analysisID uint, kind string) (*models.Analysis, error) {
	var analysis models.Analysis
	if err := s.DB.First(&analysis, analysisID).Error; err != nil {
		return nil, err
	}
	if analysis.Status != models.StatusCompleted {
		return nil, fmt.Errorf("analyse %d ist nicht abgeschlossen (status %s)", analysisID, analysis.Status)
	}

	var competitors []*models.Competitor
	if err := s.DB.Where("analysis_id = ?", analysisID).Find(&competitors).Error; err != nil {
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, s.Config.StageTimeout())
	defer cancel()

	switch kind {
	case "blog":
		blogPost := s.Content.GenerateBlogPost(genCtx, &analysis, competitors)
		if err := s.DB.Model(&analysis).Update("blog_post", blogPost).Error; err != nil {
			return nil, err
		}
		analysis.BlogPost = blogPost
	case "ads":
		adCopy := s.Content.GenerateAdCopy(genCtx, &analysis, competitors)
		if err := s.DB.Model(&analysis).Update("ad_copy", toJSON(adCopy)).Error; err != nil {
			return nil, err
		}
		analysis.AdCopy = toJSON(adCopy)
	default:
		return nil, fmt.Errorf("unbekannter content-typ %q", kind)
	}

	return &analysis, nil
}

// FailStale überführt Analysen, die länger als maxAge in einem aktiven
// Zustand hängen, nach failed. Wird vom Cron-Watchdog aufgerufen.
func (s *AnalysisService) FailStale(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	result := s.DB.Model(&models.Analysis{}).
		Where("status IN ?", []models.AnalysisStatus{models.StatusCollecting, models.StatusAnalyzing}).
		Where("updated_at < ?", cutoff).
		Updates(map[string]any{
			"status":         models.StatusFailed,
			"failure_reason": "watchdog: pipeline exceeded maximum runtime",
		})
	return result.RowsAffected, result.Error
}

// transition prüft den Statusübergang gegen die Übergangstabelle und
// persistiert ihn zusammen mit optionalen Zusatzfeldern.
func (s *AnalysisService) transition(analysis *models.Analysis, to models.AnalysisStatus, extra map[string]any) error {
	if !analysis.Status.CanTransition(to) {
		return fmt.Errorf("ungültiger statusübergang %s -> %s", analysis.Status, to)
	}

	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	if err := s.DB.Model(analysis).Updates(updates).Error; err != nil {
		return fmt.Errorf("statusübergang %s -> %s konnte nicht gespeichert werden: %w", analysis.Status, to, err)
	}

	analysis.Status = to
	return nil
}

// fail überführt die Analyse in den terminalen Fehlerzustand. Fehler beim
// Speichern werden nur geloggt; die Pipeline hat keinen Aufrufer mehr, dem
// sie berichten könnte.
func (s *AnalysisService) fail(analysis *models.Analysis, cause error, log *zap.Logger) {
	log.Error("Pipeline fehlgeschlagen", zap.Error(cause), zap.String("status", string(analysis.Status)))

	if !analysis.Status.CanTransition(models.StatusFailed) {
		return
	}
	if err := s.DB.Model(analysis).Updates(map[string]any{
		"status":         models.StatusFailed,
		"failure_reason": cause.Error(),
	}).Error; err != nil {
		log.Error("Fehlerzustand konnte nicht gespeichert werden", zap.Error(err))
		return
	}
	analysis.Status = models.StatusFailed
}

// persist schreibt Teilfelder der Analyse als Checkpoint, damit parallele
// Leser monotonen Fortschritt sehen.
func (s *AnalysisService) persist(analysis *models.Analysis, updates map[string]any) error {
	if err := s.DB.Model(analysis).Updates(updates).Error; err != nil {
		return fmt.Errorf("checkpoint konnte nicht gespeichert werden: %w", err)
	}
	return nil
}

// usableCategory prüft, ob eine Kategorie spezifisch genug ist, um als
// Branche zu dienen.
func usableCategory(category string) bool {
	if category == "" {
		return false
	}
	return !genericCategories[strings.ToLower(category)]
}

// toJSON serialisiert einen Wert für eine JSONB-Spalte. Unsere eigenen
// Typen sind immer serialisierbar.
func toJSON(v any) datatypes.JSON {
	b, _ := json.Marshal(v)
	return datatypes.JSON(b)
}
