package activity

import (
	"encoding/json"
	"time"
)

const TypeWalk = "WALK"

// Activity is a historical record kept independently of the record that
// produced it.
type Activity struct {
	ID           string          `json:"id"`
	PetAccountID string          `json:"petAccountId"`
	Type         string          `json:"type"`
	Title        string          `json:"title"`
	Duration     int             `json:"duration"`
	Distance     float64         `json:"distance"`
	RoutePath    json.RawMessage `json:"routePath,omitempty"`
	Latitude     *float64        `json:"latitude,omitempty"`
	Longitude    *float64        `json:"longitude,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type Page struct {
	Activities []Activity `json:"activities"`
	NextCursor *string    `json:"nextCursor"`
}
