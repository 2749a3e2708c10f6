package googlemaps

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"context"

	"go.uber.org/zap"

	"bizradar/circuit"
	"bizradar/config"
	"bizradar/models"
	"bizradar/ratelimit"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// statusZeroResults bedeutet: gültige Antwort, aber kein Treffer.
const statusZeroResults = "ZERO_RESULTS"

// Client kapselt die Logik zur Interaktion mit der Google-Maps-API.
// Breaker und Limiter gehören der Instanz, nicht dem Prozess.
type Client struct {
	Config  *config.Config
	Logger  *zap.Logger
	Breaker *circuit.Breaker
	Limiter *ratelimit.Limiter
}

// NewClient erstellt einen neuen Maps-Client.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		Config:  cfg,
		Logger:  logger,
		Breaker: circuit.NewBreaker(5, 30*time.Second),
		Limiter: ratelimit.NewLimiter(cfg.MapsRPS, 0.1),
	}
}

// Geocode löst eine Adresse in Koordinaten auf. Kein Treffer liefert
// (nil, nil).
func (c *Client) Geocode(ctx context.Context, address string) (*models.LatLng, error) {
	log := c.Logger.With(zap.String("address", address))
	log.Debug("Rufe Geocoding-API auf.")

	endpoint := fmt.Sprintf("%s/geocode/json?address=%s&key=%s",
		c.Config.MapsBaseURL, url.QueryEscape(address), c.Config.MapsAPIKey)

	var gr geocodeResponse
	if err := c.getJSON(ctx, endpoint, &gr); err != nil {
		return nil, err
	}
	if gr.Status == statusZeroResults || len(gr.Results) == 0 {
		log.Debug("Geocoding ohne Treffer.")
		return nil, nil
	}
	if gr.Status != "OK" {
		return nil, fmt.Errorf("geocode failed: status %s", gr.Status)
	}

	loc := gr.Results[0].Geometry.Location
	return &models.LatLng{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// SearchNearby sucht Orte in der Umgebung der Koordinaten.
func (c *Client) SearchNearby(ctx context.Context, loc models.LatLng, query string) ([]*models.Place, error) {
	log := c.Logger.With(zap.String("query", query))
	log.Debug("Rufe Nearby-Search auf.")

	endpoint := fmt.Sprintf("%s/place/nearbysearch/json?location=%f,%f&radius=5000&keyword=%s&key=%s",
		c.Config.MapsBaseURL, loc.Lat, loc.Lng, url.QueryEscape(query), c.Config.MapsAPIKey)

	var nr nearbyResponse
	if err := c.getJSON(ctx, endpoint, &nr); err != nil {
		return nil, err
	}
	if nr.Status == statusZeroResults {
		return nil, nil
	}
	if nr.Status != "OK" {
		return nil, fmt.Errorf("nearby search failed: status %s", nr.Status)
	}

	places := make([]*models.Place, 0, len(nr.Results))
	for i := range nr.Results {
		places = append(places, mapPlace(&nr.Results[i]))
	}
	log.Debug("Nearby-Search abgeschlossen", zap.Int("count", len(places)))
	return places, nil
}

// FindPlace löst eine Freitext-Suche in genau einen Ort auf.
func (c *Client) FindPlace(ctx context.Context, query string) (*models.Place, error) {
	log := c.Logger.With(zap.String("query", query))
	log.Debug("Rufe Find-Place auf.")

	endpoint := fmt.Sprintf("%s/place/findplacefromtext/json?input=%s&inputtype=textquery&fields=place_id,name,formatted_address,rating,user_ratings_total,types,geometry&key=%s",
		c.Config.MapsBaseURL, url.QueryEscape(query), c.Config.MapsAPIKey)

	var fr findPlaceResponse
	if err := c.getJSON(ctx, endpoint, &fr); err != nil {
		return nil, err
	}
	if fr.Status == statusZeroResults || len(fr.Candidates) == 0 {
		log.Debug("Find-Place ohne Treffer.")
		return nil, nil
	}
	if fr.Status != "OK" {
		return nil, fmt.Errorf("find place failed: status %s", fr.Status)
	}

	return mapPlace(&fr.Candidates[0]), nil
}

// PlaceDetails holt Detailfelder zu einer Place-ID.
func (c *Client) PlaceDetails(ctx context.Context, placeID string, fields []string) (*models.PlaceDetails, error) {
	if len(fields) == 0 {
		fields = []string{"formatted_phone_number", "website", "rating", "user_ratings_total"}
	}

	endpoint := fmt.Sprintf("%s/place/details/json?place_id=%s&fields=%s&key=%s",
		c.Config.MapsBaseURL, url.QueryEscape(placeID), strings.Join(fields, ","), c.Config.MapsAPIKey)

	var dr detailsResponse
	if err := c.getJSON(ctx, endpoint, &dr); err != nil {
		return nil, err
	}
	if dr.Status == statusZeroResults || dr.Status == "NOT_FOUND" {
		return nil, nil
	}
	if dr.Status != "OK" {
		return nil, fmt.Errorf("place details failed: status %s", dr.Status)
	}

	return &models.PlaceDetails{
		Phone:        dr.Result.FormattedPhoneNumber,
		Website:      dr.Result.Website,
		Rating:       dr.Result.Rating,
		ReviewCount:  dr.Result.UserRatingsTotal,
		OpeningHours: dr.Result.OpeningHours.WeekdayText,
	}, nil
}

// getJSON führt einen GET-Request durch Limiter und Breaker aus und
// dekodiert die JSON-Antwort.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	if err := c.Limiter.Wait(ctx); err != nil {
		return err
	}

	return c.Breaker.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("maps api returned status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

// mapPlace konvertiert ein API-Ergebnis in unser internes Place-Modell.
func mapPlace(r *placeResult) *models.Place {
	address := r.Vicinity
	if address == "" {
		address = r.FormattedAddress
	}
	return &models.Place{
		PlaceID:     r.PlaceID,
		Name:        r.Name,
		Address:     address,
		Rating:      r.Rating,
		ReviewCount: r.UserRatingsTotal,
		Types:       r.Types,
		Location:    models.LatLng{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
	}
}
