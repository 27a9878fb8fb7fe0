package models

// MatchResult is a scored candidate returned by the search endpoints. Derived
// on every call, never persisted.
type MatchResult struct {
	Profile       MatchingProfile `json:"profile"`
	Compatibility int             `json:"compatibility"` // 0-100
	CommonGames   []string        `json:"commonGames"`
	Reasons       []string        `json:"reasons"`
	DistanceKm    float64         `json:"distanceKm,omitempty"`
}
