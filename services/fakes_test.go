package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bizradar/config"
	"bizradar/models"
)

// fakeMaps ist ein konfigurierbares Test-Double für providers.Maps.
type fakeMaps struct {
	geocodeResult *models.LatLng
	geocodeErr    error

	nearbyResults []*models.Place
	nearbyErr     error

	findPlaceResult *models.Place
	findPlaceErr    error

	detailsByID map[string]*models.PlaceDetails
	detailsErr  error
}

func (m *fakeMaps) Geocode(ctx context.Context, address string) (*models.LatLng, error) {
	return m.geocodeResult, m.geocodeErr
}

func (m *fakeMaps) SearchNearby(ctx context.Context, loc models.LatLng, query string) ([]*models.Place, error) {
	return m.nearbyResults, m.nearbyErr
}

func (m *fakeMaps) FindPlace(ctx context.Context, query string) (*models.Place, error) {
	return m.findPlaceResult, m.findPlaceErr
}

func (m *fakeMaps) PlaceDetails(ctx context.Context, placeID string, fields []string) (*models.PlaceDetails, error) {
	if m.detailsErr != nil {
		return nil, m.detailsErr
	}
	return m.detailsByID[placeID], nil
}

// fakeFetcher liefert vorkonfiguriertes HTML pro URL-Teilstring. Fetch
// wird von der Pipeline parallel aufgerufen, daher der Mutex.
type fakeFetcher struct {
	pages   map[string]string // URL-Teilstring -> HTML
	failFor []string          // URL-Teilstrings, die einen Fehler auslösen

	mu      sync.Mutex
	fetched []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	f.mu.Unlock()
	for _, marker := range f.failFor {
		if strings.Contains(url, marker) {
			return "", fmt.Errorf("connection refused")
		}
	}
	for marker, html := range f.pages {
		if strings.Contains(url, marker) {
			return html, nil
		}
	}
	return "", fmt.Errorf("no such page: %s", url)
}

// fakeLLM liefert eine feste Antwort oder einen Fehler.
type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (l *fakeLLM) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	l.calls++
	return l.response, l.err
}

// newTestDB öffnet eine In-Memory-SQLite-Datenbank mit migriertem Schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	// In-Memory-SQLite existiert pro Verbindung; Pool auf eine begrenzen.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Analysis{}, &models.Competitor{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

// testConfig liefert eine Konfiguration mit kurzen Timeouts für Tests.
func testConfig() *config.Config {
	return &config.Config{
		MaxCompetitors:      5,
		StageTimeoutSeconds: 5,
		FetchTimeoutSeconds: 2,
	}
}

// newTestService verdrahtet einen AnalysisService mit den Test-Doubles.
func newTestService(t *testing.T, db *gorm.DB, maps *fakeMaps, fetcher *fakeFetcher, llm *fakeLLM) *AnalysisService {
	t.Helper()
	return NewAnalysisService(testConfig(), db, zap.NewNop(), maps, fetcher, llm)
}
