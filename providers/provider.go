package providers

import (
	"context"

	"bizradar/models"
)

// Maps ist das Interface für den Karten-/Places-Dienst. Alle Methoden
// liefern bei "nicht gefunden" (nil, nil) bzw. eine leere Liste zurück;
// Fehler bedeuten echte Transport- oder API-Probleme.
type Maps interface {
	// Geocode löst eine Adresse in Koordinaten auf.
	Geocode(ctx context.Context, address string) (*models.LatLng, error)

	// SearchNearby sucht Orte in der Umgebung der Koordinaten.
	SearchNearby(ctx context.Context, loc models.LatLng, query string) ([]*models.Place, error)

	// FindPlace löst eine Freitext-Suche ("Name, Ort") in genau einen Ort auf.
	FindPlace(ctx context.Context, query string) (*models.Place, error)

	// PlaceDetails holt Detailfelder zu einer Place-ID.
	PlaceDetails(ctx context.Context, placeID string, fields []string) (*models.PlaceDetails, error)
}

// HTMLFetcher lädt das HTML einer URL. Netzwerkfehler werden als Fehler
// gemeldet; der Aufrufer entscheidet, ob das ein Soft-Failure ist.
type HTMLFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// LLM ist das Interface für den Sprachmodell-Dienst.
type LLM interface {
	// Complete schickt System- und User-Prompt und gibt die Rohantwort zurück.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
