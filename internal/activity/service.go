package activity

import (
	"context"

	"backend-pettopia/internal/db"
	"backend-pettopia/internal/shared/cursor"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Record writes a through q so callers can make it part of a larger
// transaction.
func (s *Service) Record(ctx context.Context, q db.Querier, a Activity) (Activity, error) {
	if q == nil {
		q = s.db
	}
	a.ID = uuid.NewString()

	var route any
	if len(a.RoutePath) > 0 {
		route = string(a.RoutePath)
	}
	row := q.QueryRow(ctx, `
		INSERT INTO activities (id, pet_account_id, type, title, duration, distance, route_path, latitude, longitude)
		VALUES ($1,$2,$3,$4,$5,$6,$7::jsonb,$8,$9)
		RETURNING created_at
	`, a.ID, a.PetAccountID, a.Type, a.Title, a.Duration, a.Distance, route, a.Latitude, a.Longitude)
	if err := row.Scan(&a.CreatedAt); err != nil {
		return Activity{}, err
	}
	return a, nil
}

// List returns the pet's activities newest first, paginated by cursor.
func (s *Service) List(ctx context.Context, petID string, limit int, rawCursor string) (Page, error) {
	limit = cursor.Limit(limit)
	before, err := cursor.Parse(rawCursor)
	if err != nil {
		return Page{}, err
	}

	const cols = `id, pet_account_id, type, title, duration, distance, route_path, latitude, longitude, created_at`
	var args []any
	sql := `SELECT ` + cols + ` FROM activities WHERE pet_account_id=$1`
	args = append(args, petID)
	if before != nil {
		sql += ` AND created_at < $2 ORDER BY created_at DESC LIMIT $3`
		args = append(args, *before, limit)
	} else {
		sql += ` ORDER BY created_at DESC LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	page := Page{Activities: []Activity{}}
	for rows.Next() {
		var a Activity
		var route []byte
		if err := rows.Scan(&a.ID, &a.PetAccountID, &a.Type, &a.Title, &a.Duration, &a.Distance, &route, &a.Latitude, &a.Longitude, &a.CreatedAt); err != nil {
			return Page{}, err
		}
		if len(route) > 0 {
			a.RoutePath = route
		}
		page.Activities = append(page.Activities, a)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}
	if n := len(page.Activities); n > 0 {
		page.NextCursor = cursor.Next(n, limit, page.Activities[n-1].CreatedAt)
	}
	return page, nil
}
