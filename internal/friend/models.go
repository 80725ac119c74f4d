package friend

// NearbyPet is an active pet found within the search radius. Distance is in
// kilometres.
type NearbyPet struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ProfileImage *string `json:"profileImage,omitempty"`
	Species      string  `json:"species"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Distance     float64 `json:"distance"`
}
