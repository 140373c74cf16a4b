package geo

import (
	"math"
	"sort"

	"github.com/ozweather/radar-proxy/internal/models"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371

// DistanceKm computes the great-circle distance between two points via the
// haversine formula, rounded to the nearest whole kilometre (ties round
// half away from zero).
func DistanceKm(lat1, lng1, lat2, lng2 float64) int {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return int(math.Round(earthRadiusKm * c))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Rank attaches the distance from (lat, lng) to every station and returns
// the stations sorted ascending by distance. Equal distances keep their
// original relative order. A limit <= 0 returns the full ranked list.
func Rank(lat, lng float64, stations []models.RadarStation, limit int) []models.RankedStation {
	ranked := make([]models.RankedStation, 0, len(stations))
	for _, s := range stations {
		ranked = append(ranked, models.RankedStation{
			RadarStation: s,
			DistanceKm:   DistanceKm(lat, lng, s.Lat, s.Lng),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}
