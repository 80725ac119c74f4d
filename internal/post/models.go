package post

import "time"

const (
	VisibilityPublic  = "PUBLIC"
	VisibilityFriends = "FRIENDS"
	VisibilityPrivate = "PRIVATE"
)

type Post struct {
	ID           string    `json:"id"`
	PetAccountID string    `json:"petAccountId"`
	Content      string    `json:"content"`
	Images       []string  `json:"images"`
	Visibility   string    `json:"visibility"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Draft is the input for creating a post.
type Draft struct {
	Content    string
	Images     []string
	Visibility string
}
