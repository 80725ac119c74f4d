package pet

import (
	"context"
	"errors"

	"backend-pettopia/internal/db"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("pet account not found")

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Summary(ctx context.Context, id string) (Summary, error) {
	var p Summary
	err := s.db.QueryRow(ctx, `
		SELECT id, name, profile_image, species
		FROM pet_accounts WHERE id=$1
	`, id).Scan(&p.ID, &p.Name, &p.ProfileImage, &p.Species)
	if errors.Is(err, pgx.ErrNoRows) {
		return Summary{}, ErrNotFound
	}
	if err != nil {
		return Summary{}, err
	}
	return p, nil
}

// OwnedBy reports whether the guardian manages the pet account.
func (s *Service) OwnedBy(ctx context.Context, petID, guardianID string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pet_accounts WHERE id=$1 AND guardian_id=$2
		)
	`, petID, guardianID).Scan(&ok)
	return ok, err
}
