package store

// FacilityItem represents a single bed record from the upstream housing
// facilities feed. Name carries the combined label, e.g. "紫荆6栋-302-1".
type FacilityItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RoomCode string `json:"roomCode"`
	BedType  string `json:"bedType"`
	Building string `json:"building"`
}
