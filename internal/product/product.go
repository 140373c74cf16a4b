// Package product builds BOM radar product identifiers from a station base
// id, a display mode and a range.
package product

import "go.uber.org/zap"

// Mode selects the radar product family.
type Mode string

const (
	ModeRain    Mode = "rain"
	ModeDoppler Mode = "doppler"
)

// rangeSuffix maps a radar range in kilometres to the trailing digit of a
// rain product id. The mapping is fixed by BOM's product numbering.
var rangeSuffix = map[int]string{
	64:  "4",
	128: "3",
	256: "2",
	512: "1",
}

// DefaultRangeKm is used when a caller passes a range outside the product
// numbering. 128 km is the default view in the BOM loop pages.
const DefaultRangeKm = 128

// RainID returns the rain-mode product id for a station base id and range.
// The base id is used verbatim; leading zeros are significant.
func RainID(baseID string, rangeKm int) string {
	suffix, ok := rangeSuffix[rangeKm]
	if !ok {
		suffix = rangeSuffix[DefaultRangeKm]
	}
	return "IDR" + baseID + suffix
}

// Build resolves the product id for the given mode. Doppler mode returns
// dopplerID unchanged when it is non-empty; an empty dopplerID is a
// recoverable condition and falls back to rain-mode construction for the
// same range, reported via the second return value. Build never fails and
// always returns a well-formed id.
func Build(baseID string, mode Mode, rangeKm int, dopplerID string) (id string, fellBack bool) {
	if mode == ModeDoppler {
		if dopplerID != "" {
			return dopplerID, false
		}
		return RainID(baseID, rangeKm), true
	}
	return RainID(baseID, rangeKm), false
}

// BuildLogged is Build with the fallback diagnostic attached: when doppler
// mode is requested without a doppler id, a single warning is logged and
// the rain-mode id is returned.
func BuildLogged(logger *zap.Logger, baseID string, mode Mode, rangeKm int, dopplerID string) string {
	id, fellBack := Build(baseID, mode, rangeKm, dopplerID)
	if fellBack && logger != nil {
		logger.Warn("doppler product requested without doppler id, using rain product",
			zap.String("base_id", baseID),
			zap.Int("range_km", rangeKm),
			zap.String("product_id", id))
	}
	return id
}
