package googlemaps

// geocodeResponse ist die JSON-Antwort der Geocoding-API.
type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// placeResult ist ein einzelnes Ergebnis der Places-Suche.
type placeResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Vicinity         string   `json:"vicinity"`
	FormattedAddress string   `json:"formatted_address"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	Types            []string `json:"types"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// nearbyResponse ist die JSON-Antwort der Nearby-Search.
type nearbyResponse struct {
	Status  string        `json:"status"`
	Results []placeResult `json:"results"`
}

// findPlaceResponse ist die JSON-Antwort von Find Place From Text.
type findPlaceResponse struct {
	Status     string        `json:"status"`
	Candidates []placeResult `json:"candidates"`
}

// detailsResponse ist die JSON-Antwort der Place-Details-API.
type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		FormattedPhoneNumber string   `json:"formatted_phone_number"`
		Website              string   `json:"website"`
		Rating               *float64 `json:"rating"`
		UserRatingsTotal     *int     `json:"user_ratings_total"`
		OpeningHours         struct {
			WeekdayText []string `json:"weekday_text"`
		} `json:"opening_hours"`
	} `json:"result"`
}
