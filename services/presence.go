package services

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"bizradar/models"
	"bizradar/providers"
)

// socialPatterns sind die festen Erkennungsmuster pro Plattform.
var socialPatterns = map[string]*regexp.Regexp{
	"facebook":  regexp.MustCompile(`https?://(?:www\.)?facebook\.com/[A-Za-z0-9_.\-]+`),
	"instagram": regexp.MustCompile(`https?://(?:www\.)?instagram\.com/[A-Za-z0-9_.\-]+`),
	"twitter":   regexp.MustCompile(`https?://(?:www\.)?(?:twitter|x)\.com/[A-Za-z0-9_]+`),
	"linkedin":  regexp.MustCompile(`https?://(?:www\.)?linkedin\.com/(?:company|in)/[A-Za-z0-9_\-]+`),
	"youtube":   regexp.MustCompile(`https?://(?:www\.)?youtube\.com/(?:@|channel/|c/|user/)[A-Za-z0-9_\-]+`),
	"tiktok":    regexp.MustCompile(`https?://(?:www\.)?tiktok\.com/@[A-Za-z0-9_.\-]+`),
}

// PresenceService ermittelt Karteneintrag und Social-Media-Profile eines
// Unternehmens. Alle Fehler degradieren zu "nicht gefunden".
type PresenceService struct {
	Maps    providers.Maps
	Fetcher providers.HTMLFetcher
	Logger  *zap.Logger
}

// NewPresenceService erstellt einen neuen Presence-Service.
func NewPresenceService(maps providers.Maps, fetcher providers.HTMLFetcher, logger *zap.Logger) *PresenceService {
	return &PresenceService{Maps: maps, Fetcher: fetcher, Logger: logger}
}

// Analyze löst den Karteneintrag über eine Freitext-Suche auf und scannt
// die Website nach Social-Links. "Nicht gefunden" ist ein gültiges
// Ergebnis, kein Fehler.
func (p *PresenceService) Analyze(ctx context.Context, name, location, websiteURL string) models.PresenceResult {
	log := p.Logger.With(zap.String("business", name), zap.String("location", location))
	result := models.PresenceResult{SocialProfiles: map[string]string{}}

	place, err := p.Maps.FindPlace(ctx, fmt.Sprintf("%s, %s", name, location))
	if err != nil {
		log.Warn("Find-Place fehlgeschlagen, werte als kein Eintrag", zap.Error(err))
	}
	if place != nil {
		result.HasListing = true
		result.Rating = place.Rating
		result.ReviewCount = place.ReviewCount
		if len(place.Types) > 0 {
			result.PrimaryCategory = place.Types[0]
		}

		// Detailabruf nur, wenn die Suche nicht alles geliefert hat.
		if result.Rating == nil || websiteURL == "" {
			details, err := p.Maps.PlaceDetails(ctx, place.PlaceID, nil)
			if err != nil {
				log.Warn("Place-Details fehlgeschlagen", zap.Error(err))
			} else if details != nil {
				if result.Rating == nil {
					result.Rating = details.Rating
				}
				if result.ReviewCount == nil {
					result.ReviewCount = details.ReviewCount
				}
				if websiteURL == "" {
					websiteURL = details.Website
				}
			}
		}
	}

	if websiteURL != "" {
		result.SocialProfiles = p.scanSocialLinks(ctx, websiteURL)
	}

	log.Debug("Präsenz-Analyse abgeschlossen",
		zap.Bool("has_listing", result.HasListing),
		zap.Int("social_profiles", len(result.SocialProfiles)))
	return result
}

// scanSocialLinks sucht im HTML der Startseite nach bekannten
// Social-Media-Links.
func (p *PresenceService) scanSocialLinks(ctx context.Context, websiteURL string) map[string]string {
	profiles := map[string]string{}

	html, err := p.Fetcher.Fetch(ctx, websiteURL)
	if err != nil {
		p.Logger.Debug("Social-Scan: Website nicht erreichbar", zap.String("url", websiteURL), zap.Error(err))
		return profiles
	}

	for platform, pattern := range socialPatterns {
		if match := pattern.FindString(html); match != "" {
			profiles[platform] = match
		}
	}
	return profiles
}
