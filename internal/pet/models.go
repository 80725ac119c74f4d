package pet

// Summary is the public projection of a pet account embedded in other
// resources.
type Summary struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ProfileImage *string `json:"profileImage,omitempty"`
	Species      string  `json:"species"`
}
