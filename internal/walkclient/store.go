// Package walkclient is the client side of a walk: a state store that keeps
// elapsed time and distance locally and syncs with the walk API.
package walkclient

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"backend-pettopia/internal/logging"
	"backend-pettopia/internal/shared/geo"
	"backend-pettopia/internal/walk"

	"github.com/sirupsen/logrus"
)

// SyncEvery is how many location fixes pass between server pushes.
const SyncEvery = 5

var ErrNotWalking = errors.New("no active walk")

type Coord struct {
	Lat float64
	Lng float64
}

// API is the server surface the store talks to.
type API interface {
	StartWalk(ctx context.Context, in walk.StartInput) (walk.Session, error)
	UpdateLocation(ctx context.Context, id string, lat, lng float64) (walk.Session, error)
	AddPhoto(ctx context.Context, id, photoURL string) (walk.Session, error)
	EndWalk(ctx context.Context, id string, in walk.EndInput) (walk.Session, error)
	CancelWalk(ctx context.Context, id string) (walk.Session, error)
	CurrentWalk(ctx context.Context) (*walk.Session, error)
	UploadImage(ctx context.Context, filename string, data []byte) (string, error)
}

// State is the client's view of the walk. Walking is false in the idle
// state, where every other field is zero.
type State struct {
	Current        *walk.Session
	Walking        bool
	Route          []walk.RoutePoint
	Photos         []string
	ElapsedSeconds int
	Distance       float64
	Fixes          int
}

func (s State) clone() State {
	out := s
	if s.Current != nil {
		cur := *s.Current
		out.Current = &cur
	}
	out.Route = append([]walk.RoutePoint(nil), s.Route...)
	out.Photos = append([]string(nil), s.Photos...)
	return out
}

// Store owns one walk state. Every action replaces the state as a whole and
// then notifies subscribers with a copy. Notifications arrive in the order
// the replacements happened; subscribers may read Snapshot but must not call
// actions on the store.
type Store struct {
	api API
	log *logrus.Entry
	now func() time.Time

	// notifyMu is held from replacement through fan-out.
	notifyMu sync.Mutex
	mu       sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int

	pushTimeout time.Duration
	pending     sync.WaitGroup
}

func NewStore(api API) *Store {
	return &Store{
		api:         api,
		log:         logging.NewDefault("walkclient"),
		now:         time.Now,
		subs:        map[int]func(State){},
		pushTimeout: 10 * time.Second,
	}
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn for state changes and returns a function removing it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// update applies fn to a copy of the state. fn reports whether the copy
// should replace the current state.
func (s *Store) update(fn func(*State) bool) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	next := s.state.clone()
	if !fn(&next) {
		s.mu.Unlock()
		return false
	}
	s.state = next
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(next.clone())
	}
	return true
}

func (s *Store) replace(st State) {
	s.update(func(cur *State) bool {
		*cur = st
		return true
	})
}

func (s *Store) current() (walk.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Walking || s.state.Current == nil {
		return walk.Session{}, false
	}
	return *s.state.Current, true
}

// StartWalk opens a walk on the server. start may be nil when no fix is
// available yet.
func (s *Store) StartWalk(ctx context.Context, start *Coord) error {
	var in walk.StartInput
	if start != nil {
		in.Latitude, in.Longitude = &start.Lat, &start.Lng
	}
	w, err := s.api.StartWalk(ctx, in)
	if err != nil {
		return err
	}

	route := []walk.RoutePoint{}
	if start != nil {
		route = append(route, walk.RoutePoint{Lat: start.Lat, Lng: start.Lng, Timestamp: s.now().UnixMilli()})
	}
	s.replace(State{Current: &w, Walking: true, Route: route, Photos: []string{}})
	return nil
}

// Tick advances the walk clock by one second.
func (s *Store) Tick() {
	s.update(func(st *State) bool {
		if !st.Walking {
			return false
		}
		st.ElapsedSeconds++
		return true
	})
}

// OnLocationFix records a device fix. Distance grows immediately; every
// SyncEvery-th fix is pushed to the server in the background and failures
// are dropped.
func (s *Store) OnLocationFix(lat, lng float64) {
	var walkID string
	push := false
	s.update(func(st *State) bool {
		if !st.Walking || st.Current == nil {
			return false
		}
		if n := len(st.Route); n > 0 {
			last := st.Route[n-1]
			st.Distance += geo.HaversineMeters(last.Lat, last.Lng, lat, lng)
		}
		st.Route = append(st.Route, walk.RoutePoint{Lat: lat, Lng: lng, Timestamp: s.now().UnixMilli()})
		st.Fixes++
		if st.Fixes%SyncEvery == 0 {
			walkID, push = st.Current.ID, true
		}
		return true
	})
	if !push {
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.pushTimeout)
		defer cancel()
		if _, err := s.api.UpdateLocation(ctx, walkID, lat, lng); err != nil {
			s.log.WithError(err).WithField("walk_id", walkID).Debug("location sync dropped")
		}
	}()
}

// AddPhoto uploads the image and attaches it to the walk. The local photo
// list only changes once both calls succeed.
func (s *Store) AddPhoto(ctx context.Context, filename string, data []byte) error {
	cur, ok := s.current()
	if !ok {
		return ErrNotWalking
	}
	url, err := s.api.UploadImage(ctx, filename, data)
	if err != nil {
		return err
	}
	if _, err := s.api.AddPhoto(ctx, cur.ID, url); err != nil {
		return err
	}
	s.update(func(st *State) bool {
		if !st.Walking || st.Current == nil || st.Current.ID != cur.ID {
			return false
		}
		st.Photos = append(st.Photos, url)
		return true
	})
	return nil
}

// EndWalk sends the locally measured duration, distance and last position
// and returns the completed session.
func (s *Store) EndWalk(ctx context.Context) (walk.Session, error) {
	snap := s.Snapshot()
	if !snap.Walking || snap.Current == nil {
		return walk.Session{}, ErrNotWalking
	}

	duration := snap.ElapsedSeconds
	distance := math.Round(snap.Distance)
	in := walk.EndInput{Duration: &duration, Distance: &distance}
	if n := len(snap.Route); n > 0 {
		last := snap.Route[n-1]
		in.Latitude, in.Longitude = &last.Lat, &last.Lng
	}

	w, err := s.api.EndWalk(ctx, snap.Current.ID, in)
	if err != nil {
		return walk.Session{}, err
	}
	s.Reset()
	return w, nil
}

// CancelWalk abandons the walk on the server. Confirmation is the caller's
// concern.
func (s *Store) CancelWalk(ctx context.Context) error {
	cur, ok := s.current()
	if !ok {
		return nil
	}
	if _, err := s.api.CancelWalk(ctx, cur.ID); err != nil {
		return err
	}
	s.Reset()
	return nil
}

// Resume rebuilds the state from the server's current walk. Distance is
// recomputed from the stored route and elapsed time from startedAt. On
// failure the store falls back to idle.
func (s *Store) Resume(ctx context.Context) error {
	w, err := s.api.CurrentWalk(ctx)
	if err != nil {
		s.Reset()
		return err
	}
	if w == nil {
		s.Reset()
		return nil
	}

	route := append([]walk.RoutePoint{}, w.RoutePath...)
	photos := append([]string{}, w.Photos...)
	elapsed := int(s.now().Sub(w.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	s.replace(State{
		Current:        w,
		Walking:        true,
		Route:          route,
		Photos:         photos,
		ElapsedSeconds: elapsed,
		Distance:       walk.RouteDistance(route),
	})
	return nil
}

func (s *Store) Reset() {
	s.replace(State{})
}

// RunClock ticks once a second until ctx is done. Ticks while idle are
// ignored.
func (s *Store) RunClock(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}
