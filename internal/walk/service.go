package walk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend-pettopia/internal/activity"
	"backend-pettopia/internal/db"
	"backend-pettopia/internal/logging"
	"backend-pettopia/internal/metrics"
	"backend-pettopia/internal/pet"
	"backend-pettopia/internal/post"
	"backend-pettopia/internal/shared/cursor"
	"backend-pettopia/internal/stream"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// activeIndex is the partial unique index allowing one WALKING session per pet.
const activeIndex = "walk_sessions_one_active"

const sessionColumns = `id, pet_account_id, status, route_path, photos, start_latitude, start_longitude, end_latitude, end_longitude, duration, distance, post_id, started_at, ended_at, created_at, updated_at`

type PostCreator interface {
	CreatePost(ctx context.Context, q db.Querier, petID string, draft post.Draft) (post.Post, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, q db.Querier, a activity.Activity) (activity.Activity, error)
}

type FriendLookup interface {
	AcceptedFriendIDs(ctx context.Context, petID string) ([]string, error)
}

type PetDirectory interface {
	Summary(ctx context.Context, id string) (pet.Summary, error)
}

type Broadcaster interface {
	Broadcast(topic string, payload []byte)
}

// Dependencies are the collaborators of the walk service. Hub and Log are
// optional.
type Dependencies struct {
	Posts      PostCreator
	Activities ActivityRecorder
	Friends    FriendLookup
	Pets       PetDirectory
	Hub        Broadcaster
	Log        *logrus.Entry
}

type Service struct {
	db   db.TxQuerier
	deps Dependencies
	log  *logrus.Entry
	now  func() time.Time
}

func NewService(db db.TxQuerier, deps Dependencies) *Service {
	log := deps.Log
	if log == nil {
		log = logging.NewDefault("walk")
	}
	return &Service{db: db, deps: deps, log: log, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	var status string
	var route []byte
	err := row.Scan(&s.ID, &s.PetAccountID, &status, &route, &s.Photos,
		&s.StartLatitude, &s.StartLongitude, &s.EndLatitude, &s.EndLongitude,
		&s.Duration, &s.Distance, &s.PostID,
		&s.StartedAt, &s.EndedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Session{}, err
	}
	s.Status = Status(status)
	if len(route) > 0 {
		if err := json.Unmarshal(route, &s.RoutePath); err != nil {
			return Session{}, fmt.Errorf("decode route of %s: %w", s.ID, err)
		}
	}
	if s.RoutePath == nil {
		s.RoutePath = []RoutePoint{}
	}
	if s.Photos == nil {
		s.Photos = []string{}
	}
	return s, nil
}

// ownWalk loads a session and checks, in order, that it exists, belongs to
// petID and is still WALKING.
func (s *Service) ownWalk(ctx context.Context, q db.Querier, id, petID string, lock bool) (Session, error) {
	sql := `SELECT ` + sessionColumns + ` FROM walk_sessions WHERE id=$1`
	if lock {
		sql += ` FOR UPDATE`
	}
	w, err := scanSession(q.QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	if w.PetAccountID != petID {
		return Session{}, ErrForbidden
	}
	if w.Status != StatusWalking {
		return Session{}, ErrNotActive
	}
	return w, nil
}

// StartWalk opens a WALKING session. The route is seeded with the start
// coordinate when both latitude and longitude are given.
func (s *Service) StartWalk(ctx context.Context, petID string, in StartInput) (Session, error) {
	var active bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM walk_sessions WHERE pet_account_id=$1 AND status='WALKING'
		)
	`, petID).Scan(&active)
	if err != nil {
		return Session{}, err
	}
	if active {
		return Session{}, ErrAlreadyWalking
	}

	now := s.now()
	w := Session{
		ID:             uuid.NewString(),
		PetAccountID:   petID,
		Status:         StatusWalking,
		RoutePath:      []RoutePoint{},
		Photos:         []string{},
		StartLatitude:  in.Latitude,
		StartLongitude: in.Longitude,
		StartedAt:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.Latitude != nil && in.Longitude != nil {
		w.RoutePath = append(w.RoutePath, RoutePoint{Lat: *in.Latitude, Lng: *in.Longitude, Timestamp: now.UnixMilli()})
	}
	route, err := json.Marshal(w.RoutePath)
	if err != nil {
		return Session{}, err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO walk_sessions (id, pet_account_id, status, route_path, photos, start_latitude, start_longitude, started_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4::jsonb,$5,$6,$7,$8,$8,$8)
	`, w.ID, w.PetAccountID, string(w.Status), string(route), w.Photos, w.StartLatitude, w.StartLongitude, now)
	if db.IsUniqueViolation(err, activeIndex) {
		// lost the race against a concurrent start
		return Session{}, ErrAlreadyWalking
	}
	if err != nil {
		return Session{}, err
	}

	metrics.WalksStarted.Inc()
	s.log.WithFields(logrus.Fields{"walk_id": w.ID, "pet_account_id": petID}).Info("walk started")
	return w, nil
}

// UpdateLocation appends a point stamped with the current time and stores
// the whole route.
func (s *Service) UpdateLocation(ctx context.Context, id, petID string, lat, lng float64) (Session, error) {
	w, err := s.ownWalk(ctx, s.db, id, petID, false)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	point := RoutePoint{Lat: lat, Lng: lng, Timestamp: now.UnixMilli()}
	w.RoutePath = append(w.RoutePath, point)
	route, err := json.Marshal(w.RoutePath)
	if err != nil {
		return Session{}, err
	}

	tag, err := s.db.Exec(ctx, `UPDATE walk_sessions SET route_path=$2::jsonb, updated_at=$3 WHERE id=$1 AND status='WALKING'`, id, string(route), now)
	if err != nil {
		return Session{}, err
	}
	if tag.RowsAffected() == 0 {
		return Session{}, ErrNotActive
	}
	w.UpdatedAt = now

	metrics.LocationUpdates.Inc()
	s.publish(w.ID, LocationEvent{WalkSessionID: w.ID, PetAccountID: petID, Point: point})
	return w, nil
}

func (s *Service) AddPhoto(ctx context.Context, id, petID, url string) (Session, error) {
	w, err := s.ownWalk(ctx, s.db, id, petID, false)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	tag, err := s.db.Exec(ctx, `UPDATE walk_sessions SET photos=array_append(photos, $2), updated_at=$3 WHERE id=$1 AND status='WALKING'`, id, url, now)
	if err != nil {
		return Session{}, err
	}
	if tag.RowsAffected() == 0 {
		return Session{}, ErrNotActive
	}
	w.Photos = append(w.Photos, url)
	w.UpdatedAt = now

	metrics.PhotosAdded.Inc()
	return w, nil
}

// EndWalk completes the session. The optional post, the activity and the
// session update commit together.
func (s *Service) EndWalk(ctx context.Context, id, petID string, in EndInput) (Session, error) {
	duration := 0
	if in.Duration != nil {
		duration = *in.Duration
	}
	distance := 0.0
	if in.Distance != nil {
		distance = *in.Distance
	}

	var out Session
	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		w, err := s.ownWalk(ctx, tx, id, petID, true)
		if err != nil {
			return err
		}
		name := s.petName(ctx, petID)

		if len(w.Photos) > 0 {
			p, err := s.deps.Posts.CreatePost(ctx, tx, petID, post.Draft{
				Content: Caption(name, duration, distance),
				Images:  w.Photos,
			})
			if err != nil {
				return fmt.Errorf("create walk post: %w", err)
			}
			w.PostID = &p.ID
		}

		route, err := json.Marshal(w.RoutePath)
		if err != nil {
			return err
		}
		_, err = s.deps.Activities.Record(ctx, tx, activity.Activity{
			PetAccountID: petID,
			Type:         activity.TypeWalk,
			Title:        Title(name),
			Duration:     duration,
			Distance:     distance,
			RoutePath:    route,
			Latitude:     in.Latitude,
			Longitude:    in.Longitude,
		})
		if err != nil {
			return fmt.Errorf("record walk activity: %w", err)
		}

		now := s.now()
		_, err = tx.Exec(ctx, `
			UPDATE walk_sessions
			SET status=$2, ended_at=$3, end_latitude=$4, end_longitude=$5, duration=$6, distance=$7, post_id=$8, updated_at=$3
			WHERE id=$1
		`, id, string(StatusCompleted), now, in.Latitude, in.Longitude, duration, distance, w.PostID)
		if err != nil {
			return err
		}

		w.Status = StatusCompleted
		w.EndedAt = &now
		w.EndLatitude = in.Latitude
		w.EndLongitude = in.Longitude
		w.Duration = &duration
		w.Distance = &distance
		w.UpdatedAt = now
		out = w
		return nil
	})
	if err != nil {
		return Session{}, err
	}

	metrics.WalksFinished.WithLabelValues(string(StatusCompleted)).Inc()
	s.log.WithFields(logrus.Fields{
		"walk_id":        id,
		"pet_account_id": petID,
		"duration":       duration,
		"distance":       distance,
		"post":           out.PostID != nil,
	}).Info("walk completed")
	return out, nil
}

// CancelWalk closes the session without an activity or post. Photos stay on
// the session record.
func (s *Service) CancelWalk(ctx context.Context, id, petID string) (Session, error) {
	w, err := s.ownWalk(ctx, s.db, id, petID, false)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	tag, err := s.db.Exec(ctx, `UPDATE walk_sessions SET status=$2, ended_at=$3, updated_at=$3 WHERE id=$1 AND status='WALKING'`, id, string(StatusCancelled), now)
	if err != nil {
		return Session{}, err
	}
	if tag.RowsAffected() == 0 {
		return Session{}, ErrNotActive
	}
	w.Status = StatusCancelled
	w.EndedAt = &now
	w.UpdatedAt = now

	metrics.WalksFinished.WithLabelValues(string(StatusCancelled)).Inc()
	s.log.WithFields(logrus.Fields{"walk_id": id, "pet_account_id": petID}).Info("walk cancelled")
	return w, nil
}

// CurrentWalk returns the pet's WALKING session, or nil when there is none.
func (s *Service) CurrentWalk(ctx context.Context, petID string) (*Session, error) {
	w, err := scanSession(s.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM walk_sessions WHERE pet_account_id=$1 AND status='WALKING'`, petID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// History pages through COMPLETED sessions newest first.
func (s *Service) History(ctx context.Context, petID string, limit int, rawCursor string) (HistoryPage, error) {
	limit = cursor.Limit(limit)
	before, err := cursor.Parse(rawCursor)
	if err != nil {
		return HistoryPage{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	sql := `SELECT ` + sessionColumns + ` FROM walk_sessions WHERE pet_account_id=$1 AND status='COMPLETED'`
	args := []any{petID}
	if before != nil {
		sql += ` AND created_at < $2 ORDER BY created_at DESC LIMIT $3`
		args = append(args, *before, limit)
	} else {
		sql += ` ORDER BY created_at DESC LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return HistoryPage{}, err
	}
	defer rows.Close()

	page := HistoryPage{Walks: []Session{}}
	for rows.Next() {
		w, err := scanSession(rows)
		if err != nil {
			return HistoryPage{}, err
		}
		page.Walks = append(page.Walks, w)
	}
	if err := rows.Err(); err != nil {
		return HistoryPage{}, err
	}
	if n := len(page.Walks); n > 0 {
		page.NextCursor = cursor.Next(n, limit, page.Walks[n-1].CreatedAt)
	}
	return page, nil
}

// FriendsWalking lists the WALKING sessions of the pet's accepted friends.
func (s *Service) FriendsWalking(ctx context.Context, petID string) ([]FriendWalking, error) {
	friendIDs, err := s.deps.Friends.AcceptedFriendIDs(ctx, petID)
	if err != nil {
		return nil, err
	}
	out := []FriendWalking{}
	if len(friendIDs) == 0 {
		return out, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT w.id, w.started_at, p.id, p.name, p.profile_image, p.species
		FROM walk_sessions w JOIN pet_accounts p ON p.id = w.pet_account_id
		WHERE w.pet_account_id = ANY($1) AND w.status='WALKING'
		ORDER BY w.started_at DESC
	`, friendIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var f FriendWalking
		if err := rows.Scan(&f.WalkSessionID, &f.StartedAt, &f.PetAccount.ID, &f.PetAccount.Name, &f.PetAccount.ProfileImage, &f.PetAccount.Species); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetWalk returns any session with its pet summary. There is no ownership
// check.
func (s *Service) GetWalk(ctx context.Context, id string) (Session, error) {
	w, err := scanSession(s.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM walk_sessions WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	if s.deps.Pets == nil {
		return w, nil
	}
	summary, err := s.deps.Pets.Summary(ctx, w.PetAccountID)
	switch {
	case errors.Is(err, pet.ErrNotFound):
	case err != nil:
		return Session{}, err
	default:
		w.PetAccount = &summary
	}
	return w, nil
}

// CancelStale cancels WALKING sessions started more than olderThan ago and
// returns how many were closed.
func (s *Service) CancelStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	now := s.now()
	tag, err := s.db.Exec(ctx, `UPDATE walk_sessions SET status=$1, ended_at=$2, updated_at=$2 WHERE status='WALKING' AND started_at < $3`, string(StatusCancelled), now, now.Add(-olderThan))
	if err != nil {
		return 0, err
	}
	n := tag.RowsAffected()
	if n > 0 {
		metrics.WalksFinished.WithLabelValues(string(StatusCancelled)).Add(float64(n))
	}
	return n, nil
}

func (s *Service) petName(ctx context.Context, petID string) string {
	if s.deps.Pets == nil {
		return ""
	}
	p, err := s.deps.Pets.Summary(ctx, petID)
	if err != nil {
		if !errors.Is(err, pet.ErrNotFound) {
			s.log.WithError(err).WithField("pet_account_id", petID).Warn("pet name lookup failed")
		}
		return ""
	}
	return p.Name
}

func (s *Service) publish(walkID string, event LocationEvent) {
	if s.deps.Hub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.log.WithError(err).Warn("encode location event")
		return
	}
	s.deps.Hub.Broadcast(stream.WalkTopic(walkID), payload)
}
