package walk

import (
	"time"

	"backend-pettopia/internal/pet"
)

type Status string

const (
	StatusWalking   Status = "WALKING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// RoutePoint is one GPS sample. Timestamp is epoch milliseconds.
type RoutePoint struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp int64   `json:"timestamp"`
}

type Session struct {
	ID             string       `json:"id"`
	PetAccountID   string       `json:"petAccountId"`
	Status         Status       `json:"status"`
	RoutePath      []RoutePoint `json:"routePath"`
	Photos         []string     `json:"photos"`
	StartLatitude  *float64     `json:"startLatitude"`
	StartLongitude *float64     `json:"startLongitude"`
	EndLatitude    *float64     `json:"endLatitude"`
	EndLongitude   *float64     `json:"endLongitude"`
	Duration       *int         `json:"duration"`
	Distance       *float64     `json:"distance"`
	PostID         *string      `json:"postId"`
	StartedAt      time.Time    `json:"startedAt"`
	EndedAt        *time.Time   `json:"endedAt"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`

	PetAccount *pet.Summary `json:"petAccount,omitempty"`
}

type HistoryPage struct {
	Walks      []Session `json:"walks"`
	NextCursor *string   `json:"nextCursor"`
}

type FriendWalking struct {
	PetAccount    pet.Summary `json:"petAccount"`
	WalkSessionID string      `json:"walkSessionId"`
	StartedAt     time.Time   `json:"startedAt"`
}

type StartInput struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

type LocationInput struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

type PhotoInput struct {
	PhotoURL string `json:"photoUrl" validate:"required,max=2048"`
}

type EndInput struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Duration  *int     `json:"duration" validate:"omitempty,gte=0"`
	Distance  *float64 `json:"distance" validate:"omitempty,gte=0"`
}

// LocationEvent is published to stream subscribers of a walk for every
// accepted location update.
type LocationEvent struct {
	WalkSessionID string     `json:"walkSessionId"`
	PetAccountID  string     `json:"petAccountId"`
	Point         RoutePoint `json:"point"`
}
