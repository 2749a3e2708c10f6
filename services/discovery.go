package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"bizradar/models"
	"bizradar/providers"
)

// directoryBlocklist filtert Verzeichnis- und Aggregator-Seiten aus den
// Suchergebnissen. Abgleich per Teilstring auf den kleingeschriebenen
// Namen; die Liste ist bewusst nicht abschließend.
var directoryBlocklist = []string{
	"yelp",
	"tripadvisor",
	"yellow pages",
	"yellowpages",
	"foursquare",
	"groupon",
	"thumbtack",
	"angi",
	"better business bureau",
	"nextdoor",
	"bing places",
}

// DiscoveryService findet Konkurrenten in der Umgebung eines Standorts.
type DiscoveryService struct {
	Maps           providers.Maps
	Logger         *zap.Logger
	MaxCompetitors int
}

// NewDiscoveryService erstellt einen neuen Discovery-Service.
func NewDiscoveryService(maps providers.Maps, logger *zap.Logger, maxCompetitors int) *DiscoveryService {
	if maxCompetitors <= 0 {
		maxCompetitors = 5
	}
	return &DiscoveryService{Maps: maps, Logger: logger, MaxCompetitors: maxCompetitors}
}

// Discover geocodiert den Standort, sucht Orte in der Umgebung und gibt
// bis zu MaxCompetitors gefilterte Kandidaten zurück. Die Reihenfolge der
// Suche bleibt erhalten (kein Re-Ranking). Jeder Geocoding-Fehlschlag,
// auch ein Transportfehler, liefert eine leere Liste, keinen Fehler.
func (d *DiscoveryService) Discover(ctx context.Context, businessName, location, industry string) ([]*models.Competitor, error) {
	log := d.Logger.With(zap.String("business", businessName), zap.String("location", location))

	loc, err := d.Maps.Geocode(ctx, location)
	if err != nil {
		log.Warn("Geocoding fehlgeschlagen, keine Konkurrenten.", zap.Error(err))
		return []*models.Competitor{}, nil
	}
	if loc == nil {
		log.Warn("Standort konnte nicht geocodiert werden, keine Konkurrenten.")
		return []*models.Competitor{}, nil
	}

	query := industry
	if query == "" {
		query = businessName
	}

	places, err := d.Maps.SearchNearby(ctx, *loc, query)
	if err != nil {
		return nil, err
	}

	competitors := []*models.Competitor{}
	for _, place := range places {
		if len(competitors) >= d.MaxCompetitors {
			break
		}
		if isSelfMatch(businessName, place.Name) {
			log.Debug("Eigenes Unternehmen aus Ergebnissen gefiltert", zap.String("name", place.Name))
			continue
		}
		if isDirectory(place.Name) {
			log.Debug("Verzeichnis-Seite aus Ergebnissen gefiltert", zap.String("name", place.Name))
			continue
		}

		competitor := &models.Competitor{
			PlaceID:      place.PlaceID,
			Name:         place.Name,
			Address:      place.Address,
			GoogleRating: place.Rating,
			ReviewCount:  place.ReviewCount,
		}

		// Telefon und Website kommen nur aus dem Detailabruf.
		details, err := d.Maps.PlaceDetails(ctx, place.PlaceID, nil)
		if err != nil {
			log.Warn("Detailabruf für Kandidaten fehlgeschlagen", zap.String("place_id", place.PlaceID), zap.Error(err))
		} else if details != nil {
			competitor.Phone = details.Phone
			competitor.Website = details.Website
			if competitor.GoogleRating == nil {
				competitor.GoogleRating = details.Rating
			}
			if competitor.ReviewCount == nil {
				competitor.ReviewCount = details.ReviewCount
			}
		}

		competitors = append(competitors, competitor)
	}

	log.Info("Konkurrenz-Suche abgeschlossen",
		zap.Int("found", len(places)), zap.Int("kept", len(competitors)))
	return competitors, nil
}

// isSelfMatch prüft, ob ein Kandidat das Zielunternehmen selbst ist:
// case-insensitiver Teilstring-Abgleich in beide Richtungen.
func isSelfMatch(businessName, candidateName string) bool {
	a := strings.ToLower(strings.TrimSpace(businessName))
	b := strings.ToLower(strings.TrimSpace(candidateName))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// isDirectory prüft den Kandidaten gegen die statische Blockliste.
func isDirectory(candidateName string) bool {
	name := strings.ToLower(candidateName)
	for _, blocked := range directoryBlocklist {
		if strings.Contains(name, blocked) {
			return true
		}
	}
	return false
}
