package friend

import (
	"context"
	"sort"

	"backend-pettopia/internal/db"
	"backend-pettopia/internal/shared/geo"
)

const (
	DefaultRadiusKm = 5.0
	nearbyLimit     = 50
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// AcceptedFriendIDs returns the peers of every accepted friendship the pet
// takes part in, in either direction.
func (s *Service) AcceptedFriendIDs(ctx context.Context, petID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT CASE WHEN requester_id=$1 THEN receiver_id ELSE requester_id END
		FROM friendships
		WHERE status='ACCEPTED' AND (requester_id=$1 OR receiver_id=$1)
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Nearby lists active pets within radiusKm of the coordinate, closest first.
// The query narrows candidates to a bounding box, split in two longitude
// ranges when it crosses the antimeridian, and the exact haversine distance
// decides membership.
func (s *Service) Nearby(ctx context.Context, petID string, lat, lng, radiusKm float64) ([]NearbyPet, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	box := geo.BoundingBox(lat, lng, radiusKm*1000)

	rows, err := s.db.Query(ctx, `
		SELECT id, name, profile_image, species, latitude, longitude
		FROM pet_accounts
		WHERE id <> $1
		  AND status = 'ACTIVE'
		  AND latitude IS NOT NULL AND longitude IS NOT NULL
		  AND latitude BETWEEN $2 AND $3
		  AND (
		    ($4 <= $5 AND longitude BETWEEN $4 AND $5)
		    OR ($4 > $5 AND (longitude BETWEEN $4 AND 180 OR longitude BETWEEN -180 AND $5))
		  )
	`, petID, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pets := []NearbyPet{}
	for rows.Next() {
		var p NearbyPet
		if err := rows.Scan(&p.ID, &p.Name, &p.ProfileImage, &p.Species, &p.Latitude, &p.Longitude); err != nil {
			return nil, err
		}
		p.Distance = geo.HaversineKm(lat, lng, p.Latitude, p.Longitude)
		if p.Distance < radiusKm {
			pets = append(pets, p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(pets, func(i, j int) bool { return pets[i].Distance < pets[j].Distance })
	if len(pets) > nearbyLimit {
		pets = pets[:nearbyLimit]
	}
	return pets, nil
}
