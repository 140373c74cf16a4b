package models

// RadarStation describes one BOM radar site from the static station table.
// The table is loaded at startup and never mutated.
type RadarStation struct {
	BaseID          string  `json:"baseId"`    // e.g. "66"; leading zeros preserved
	ProductID       string  `json:"productId"` // e.g. "IDR66"
	DopplerID       string  `json:"dopplerId,omitempty"`
	Name            string  `json:"name"`
	Location        string  `json:"location"`
	State           string  `json:"state"`
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	SupportsDoppler bool    `json:"supportsDoppler"`
}

// RankedStation is a RadarStation with the great-circle distance from a
// reference point attached.
type RankedStation struct {
	RadarStation
	DistanceKm int `json:"distance"`
}

// RadarImage is one frame of a radar loop: the absolute image URL and the
// acquisition timestamp parsed from the filename (YYYYMMDDHHmm, UTC).
// Timestamp is empty when the filename carries no timestamp segment.
type RadarImage struct {
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
}
