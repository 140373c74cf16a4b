package models

import "encoding/json"

// WeatherLocation is the place resolved from a coordinate pair by the
// upstream location search. Lat and Lng echo the request coordinates,
// not the resolved place's own position.
type WeatherLocation struct {
	Name    string  `json:"name"`
	State   string  `json:"state"`
	Geohash string  `json:"geohash"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Observations is a loosely typed passthrough of the upstream current
// observations payload. Fields are whatever upstream sends; nothing is
// validated or re-shaped here.
type Observations map[string]any

// Forecast pairs the first upstream forecast entry with the full ordered
// sequence. Entries stay raw so upstream fields pass through untouched.
type Forecast struct {
	Today json.RawMessage   `json:"today"`
	Daily []json.RawMessage `json:"daily"`
}

// WeatherReport is the assembled response for one coordinate pair.
// Observations and Forecast are nil when the corresponding sub-fetch
// failed or returned nothing.
type WeatherReport struct {
	Location     WeatherLocation `json:"location"`
	Observations Observations    `json:"observations"`
	Forecast     *Forecast       `json:"forecast"`
}
