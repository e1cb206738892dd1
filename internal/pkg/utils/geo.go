package utils

// ValidateCoordinates reports whether lat/lon lie inside the WGS-84 domain.
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
