package filter

// Exported aliases for testing internal functions from
// the filter_test package.

// ParseMarkerForTest exposes parseMarker.
var ParseMarkerForTest = parseMarker
