// Package stations holds the static BOM radar station table and
// nearest-station ranking over it.
package stations

import (
	"strings"

	"github.com/ozweather/radar-proxy/internal/geo"
	"github.com/ozweather/radar-proxy/internal/models"
)

// stationTable is the static radar site list. Positions are the radar
// installations themselves, not the towns they are named after.
var stationTable = []models.RadarStation{
	{BaseID: "71", ProductID: "IDR71", DopplerID: "IDR71I", Name: "Sydney (Terrey Hills)", Location: "Terrey Hills", State: "NSW", Lat: -33.701, Lng: 151.210, SupportsDoppler: true},
	{BaseID: "04", ProductID: "IDR04", DopplerID: "IDR04I", Name: "Newcastle", Location: "Lemon Tree Passage", State: "NSW", Lat: -32.730, Lng: 152.025, SupportsDoppler: true},
	{BaseID: "03", ProductID: "IDR03", Name: "Wollongong (Appin)", Location: "Appin", State: "NSW", Lat: -34.264, Lng: 150.874},
	{BaseID: "40", ProductID: "IDR40", Name: "Canberra (Captains Flat)", Location: "Captains Flat", State: "NSW", Lat: -35.662, Lng: 149.512},
	{BaseID: "28", ProductID: "IDR28", Name: "Grafton", Location: "Grafton", State: "NSW", Lat: -29.622, Lng: 152.951},
	{BaseID: "94", ProductID: "IDR94", Name: "Wagga Wagga", Location: "Wagga Wagga", State: "NSW", Lat: -35.158, Lng: 147.456},
	{BaseID: "02", ProductID: "IDR02", DopplerID: "IDR02I", Name: "Melbourne", Location: "Laverton", State: "VIC", Lat: -37.852, Lng: 144.752, SupportsDoppler: true},
	{BaseID: "68", ProductID: "IDR68", Name: "Bairnsdale", Location: "Bairnsdale", State: "VIC", Lat: -37.888, Lng: 147.576},
	{BaseID: "30", ProductID: "IDR30", Name: "Mildura", Location: "Mildura", State: "VIC", Lat: -34.235, Lng: 142.086},
	{BaseID: "66", ProductID: "IDR66", DopplerID: "IDR66I", Name: "Brisbane (Mt Stapylton)", Location: "Mt Stapylton", State: "QLD", Lat: -27.718, Lng: 153.240, SupportsDoppler: true},
	{BaseID: "08", ProductID: "IDR08", Name: "Gympie (Mt Kanigan)", Location: "Mt Kanigan", State: "QLD", Lat: -25.957, Lng: 152.577},
	{BaseID: "22", ProductID: "IDR22", Name: "Mackay", Location: "Mackay", State: "QLD", Lat: -21.117, Lng: 149.217},
	{BaseID: "73", ProductID: "IDR73", Name: "Townsville (Hervey Range)", Location: "Hervey Range", State: "QLD", Lat: -19.420, Lng: 146.551},
	{BaseID: "19", ProductID: "IDR19", Name: "Cairns (Saddle Mountain)", Location: "Saddle Mountain", State: "QLD", Lat: -16.818, Lng: 145.662},
	{BaseID: "72", ProductID: "IDR72", Name: "Emerald", Location: "Emerald", State: "QLD", Lat: -23.549, Lng: 148.239},
	{BaseID: "75", ProductID: "IDR75", Name: "Mount Isa", Location: "Mount Isa", State: "QLD", Lat: -20.711, Lng: 139.555},
	{BaseID: "64", ProductID: "IDR64", DopplerID: "IDR64I", Name: "Adelaide (Buckland Park)", Location: "Buckland Park", State: "SA", Lat: -34.617, Lng: 138.469, SupportsDoppler: true},
	{BaseID: "27", ProductID: "IDR27", Name: "Woomera", Location: "Woomera", State: "SA", Lat: -31.156, Lng: 136.804},
	{BaseID: "70", ProductID: "IDR70", DopplerID: "IDR70I", Name: "Perth (Serpentine)", Location: "Serpentine", State: "WA", Lat: -32.392, Lng: 115.867, SupportsDoppler: true},
	{BaseID: "06", ProductID: "IDR06", Name: "Geraldton", Location: "Geraldton", State: "WA", Lat: -28.804, Lng: 114.697},
	{BaseID: "48", ProductID: "IDR48", Name: "Kalgoorlie", Location: "Kalgoorlie", State: "WA", Lat: -30.784, Lng: 121.454},
	{BaseID: "17", ProductID: "IDR17", Name: "Broome", Location: "Broome", State: "WA", Lat: -17.949, Lng: 122.235},
	{BaseID: "76", ProductID: "IDR76", Name: "Hobart (Mt Koonya)", Location: "Mt Koonya", State: "TAS", Lat: -43.112, Lng: 147.806},
	{BaseID: "52", ProductID: "IDR52", Name: "N.W. Tasmania (West Takone)", Location: "West Takone", State: "TAS", Lat: -41.181, Lng: 145.579},
	{BaseID: "63", ProductID: "IDR63", DopplerID: "IDR63I", Name: "Darwin (Berrimah)", Location: "Berrimah", State: "NT", Lat: -12.457, Lng: 130.925, SupportsDoppler: true},
	{BaseID: "25", ProductID: "IDR25", Name: "Alice Springs", Location: "Alice Springs", State: "NT", Lat: -23.796, Lng: 133.889},
}

// All returns the full station table. Callers must not modify the result.
func All() []models.RadarStation {
	return stationTable
}

// ByBaseID returns the station with the given base id, or false when no
// such station exists.
func ByBaseID(baseID string) (models.RadarStation, bool) {
	for _, s := range stationTable {
		if s.BaseID == baseID {
			return s, true
		}
	}
	return models.RadarStation{}, false
}

// ByState returns all stations in the given state or territory.
func ByState(state string) []models.RadarStation {
	state = strings.ToUpper(strings.TrimSpace(state))
	var out []models.RadarStation
	for _, s := range stationTable {
		if s.State == state {
			out = append(out, s)
		}
	}
	return out
}

// Nearest ranks the station table by distance from (lat, lng), nearest
// first, truncated to limit entries when limit > 0.
func Nearest(lat, lng float64, limit int) []models.RankedStation {
	return geo.Rank(lat, lng, stationTable, limit)
}
