package googlemaps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bizradar/config"
	"bizradar/models"
)

// newTestClient startet einen Fake-Maps-Server mit festen Antworten pro
// Pfad und hängt den Client daran.
func newTestClient(t *testing.T, responses map[string]string) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for path, body := range responses {
			if r.URL.Path == path {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(body))
				return
			}
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{MapsBaseURL: server.URL, MapsAPIKey: "test-key"}
	return NewClient(cfg, zap.NewNop())
}

func TestGeocode(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/geocode/json": `{"status":"OK","results":[{"geometry":{"location":{"lat":52.52,"lng":13.405}}}]}`,
	})

	loc, err := client.Geocode(context.Background(), "Berlin")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, 52.52, loc.Lat)
	assert.Equal(t, 13.405, loc.Lng)
}

func TestGeocodeZeroResults(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/geocode/json": `{"status":"ZERO_RESULTS","results":[]}`,
	})

	loc, err := client.Geocode(context.Background(), "Nirgendwo")
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestGeocodeErrorStatus(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/geocode/json": `{"status":"REQUEST_DENIED","results":[{"geometry":{"location":{"lat":1,"lng":2}}}]}`,
	})

	_, err := client.Geocode(context.Background(), "Berlin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
}

func TestSearchNearby(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/place/nearbysearch/json": `{"status":"OK","results":[
			{"place_id":"p1","name":"Bean Palace","vicinity":"Beanstr. 1","rating":4.4,"user_ratings_total":120,"types":["cafe"]},
			{"place_id":"p2","name":"Mocha Corner","vicinity":"Mokkaweg 2"}
		]}`,
	})

	places, err := client.SearchNearby(context.Background(), models.LatLng{Lat: 52.5, Lng: 13.4}, "coffee")
	require.NoError(t, err)
	require.Len(t, places, 2)

	first := places[0]
	assert.Equal(t, "p1", first.PlaceID)
	assert.Equal(t, "Bean Palace", first.Name)
	assert.Equal(t, "Beanstr. 1", first.Address)
	require.NotNil(t, first.Rating)
	assert.Equal(t, 4.4, *first.Rating)
	require.NotNil(t, first.ReviewCount)
	assert.Equal(t, 120, *first.ReviewCount)
	assert.Equal(t, []string{"cafe"}, first.Types)

	assert.Nil(t, places[1].Rating)
}

func TestFindPlace(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/place/findplacefromtext/json": `{"status":"OK","candidates":[
			{"place_id":"self","name":"Joe's Coffee","formatted_address":"Hauptstr. 1, Berlin","rating":4.8,"types":["cafe","food"]}
		]}`,
	})

	place, err := client.FindPlace(context.Background(), "Joe's Coffee, Berlin")
	require.NoError(t, err)
	require.NotNil(t, place)
	assert.Equal(t, "self", place.PlaceID)
	// Ohne vicinity greift die formatted_address.
	assert.Equal(t, "Hauptstr. 1, Berlin", place.Address)
	assert.Equal(t, []string{"cafe", "food"}, place.Types)
}

func TestFindPlaceNoCandidates(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/place/findplacefromtext/json": `{"status":"OK","candidates":[]}`,
	})

	place, err := client.FindPlace(context.Background(), "Unbekannt")
	require.NoError(t, err)
	assert.Nil(t, place)
}

func TestPlaceDetails(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/place/details/json": `{"status":"OK","result":{
			"formatted_phone_number":"+49 30 1234567",
			"website":"https://beanpalace.example",
			"rating":4.4,
			"user_ratings_total":120,
			"opening_hours":{"weekday_text":["Monday: 8:00 AM – 6:00 PM"]}
		}}`,
	})

	details, err := client.PlaceDetails(context.Background(), "p1", nil)
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "+49 30 1234567", details.Phone)
	assert.Equal(t, "https://beanpalace.example", details.Website)
	require.NotNil(t, details.Rating)
	assert.Equal(t, 4.4, *details.Rating)
	require.Len(t, details.OpeningHours, 1)
}

func TestPlaceDetailsNotFound(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/place/details/json": `{"status":"NOT_FOUND"}`,
	})

	details, err := client.PlaceDetails(context.Background(), "missing", nil)
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestClientServerErrorTripsBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{MapsBaseURL: server.URL, MapsAPIKey: "test-key"}
	client := NewClient(cfg, zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := client.Geocode(context.Background(), "Berlin")
		require.Error(t, err)
	}

	// Ab jetzt blockt der Breaker, ohne den Server zu treffen.
	_, err := client.Geocode(context.Background(), "Berlin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}
