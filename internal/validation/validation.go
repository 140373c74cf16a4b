package validation

import (
	"errors"
	"strconv"
	"strings"
)

// ErrCoordinatesMissing is returned when lat or lng is absent.
var ErrCoordinatesMissing = errors.New("lat and lng query parameters are required")

// ErrCoordinatesInvalid is returned when lat or lng is not a number.
var ErrCoordinatesInvalid = errors.New("lat and lng must be numeric")

// ErrLatitudeOutOfRange is returned when lat is outside [-90, 90].
var ErrLatitudeOutOfRange = errors.New("lat must be between -90 and 90")

// ErrLongitudeOutOfRange is returned when lng is outside [-180, 180].
var ErrLongitudeOutOfRange = errors.New("lng must be between -180 and 180")

// ParseCoordinates parses and bounds-checks a lat/lng query parameter pair.
// Errors are suitable for 400 responses.
func ParseCoordinates(latStr, lngStr string) (lat, lng float64, err error) {
	latStr = strings.TrimSpace(latStr)
	lngStr = strings.TrimSpace(lngStr)
	if latStr == "" || lngStr == "" {
		return 0, 0, ErrCoordinatesMissing
	}

	lat, err = strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, ErrCoordinatesInvalid
	}
	lng, err = strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return 0, 0, ErrCoordinatesInvalid
	}

	if lat < -90 || lat > 90 {
		return 0, 0, ErrLatitudeOutOfRange
	}
	if lng < -180 || lng > 180 {
		return 0, 0, ErrLongitudeOutOfRange
	}
	return lat, lng, nil
}

// ParseLimit parses an optional positive integer limit. Empty input yields
// 0, meaning no limit.
func ParseLimit(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	return n, nil
}

// ParseRange parses an optional radar range in kilometres. Empty input
// yields 0, meaning the caller's default range applies.
func ParseRange(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.New("range must be a positive integer")
	}
	return n, nil
}
