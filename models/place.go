package models

// LatLng ist ein Koordinatenpaar aus der Geocoding-API.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place ist ein standardisiertes Suchergebnis der Places-API.
type Place struct {
	PlaceID     string   `json:"place_id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
	Types       []string `json:"types,omitempty"`
	Location    LatLng   `json:"location"`
}

// PlaceDetails enthält die Detailfelder eines einzelnen Ortes.
type PlaceDetails struct {
	Phone        string   `json:"phone,omitempty"`
	Website      string   `json:"website,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	ReviewCount  *int     `json:"review_count,omitempty"`
	OpeningHours []string `json:"opening_hours,omitempty"`
}
