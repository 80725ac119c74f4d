package post

import (
	"context"
	"errors"
	"strings"

	"backend-pettopia/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrEmpty    = errors.New("post must have content or images")
	ErrNotFound = errors.New("post not found")
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// CreatePost inserts a post using q, which may be a transaction owned by the
// caller.
func (s *Service) CreatePost(ctx context.Context, q db.Querier, petID string, draft Draft) (Post, error) {
	if strings.TrimSpace(draft.Content) == "" && len(draft.Images) == 0 {
		return Post{}, ErrEmpty
	}
	if q == nil {
		q = s.db
	}

	p := Post{
		ID:           uuid.NewString(),
		PetAccountID: petID,
		Content:      draft.Content,
		Images:       draft.Images,
		Visibility:   draft.Visibility,
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Visibility == "" {
		p.Visibility = VisibilityPublic
	}

	row := q.QueryRow(ctx, `
		INSERT INTO posts (id, pet_account_id, content, images, visibility)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, p.ID, p.PetAccountID, p.Content, p.Images, p.Visibility)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *Service) GetPost(ctx context.Context, id string) (Post, error) {
	var p Post
	err := s.db.QueryRow(ctx, `
		SELECT id, pet_account_id, content, images, visibility, created_at
		FROM posts WHERE id=$1
	`, id).Scan(&p.ID, &p.PetAccountID, &p.Content, &p.Images, &p.Visibility, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, err
	}
	return p, nil
}
