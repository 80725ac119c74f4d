package walk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var errUnsupported = errors.New("unsupported statement")

type boolRow struct {
	v   bool
	err error
}

func (r boolRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*bool) = r.v
	return nil
}

// activeWalkDB keeps the active walk per pet in memory and rejects a second
// WALKING row for the same pet the way the partial unique index does. When
// barrier is set every existence check waits for the others before
// returning, so all callers race on the insert.
type activeWalkDB struct {
	mu      sync.Mutex
	active  map[string]string
	barrier *sync.WaitGroup
}

func (d *activeWalkDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	d.mu.Lock()
	_, exists := d.active[args[0].(string)]
	d.mu.Unlock()

	if d.barrier != nil {
		d.barrier.Done()
		d.barrier.Wait()
	}
	return boolRow{v: exists}
}

func (d *activeWalkDB) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	id, petID, status := args[0].(string), args[1].(string), args[2].(string)
	d.mu.Lock()
	defer d.mu.Unlock()
	if status == string(StatusWalking) {
		if _, taken := d.active[petID]; taken {
			return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505", ConstraintName: activeIndex}
		}
		d.active[petID] = id
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (d *activeWalkDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errUnsupported
}

func (d *activeWalkDB) Begin(context.Context) (pgx.Tx, error) {
	return nil, errUnsupported
}

func TestConcurrentStartWalkSingleWinner(t *testing.T) {
	const callers = 16

	barrier := &sync.WaitGroup{}
	barrier.Add(callers)
	store := &activeWalkDB{active: map[string]string{}, barrier: barrier}
	svc := NewService(store, Dependencies{})
	svc.now = func() time.Time { return fixedNow }

	type result struct {
		w   Session
		err error
	}
	results := make(chan result, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := svc.StartWalk(context.Background(), "pet-a", StartInput{})
			results <- result{w, err}
		}()
	}
	wg.Wait()
	close(results)

	var winners []Session
	for r := range results {
		switch {
		case r.err == nil:
			winners = append(winners, r.w)
		case !errors.Is(r.err, ErrConflict):
			t.Fatalf("expected conflict for losing callers, got %v", r.err)
		}
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly one started walk, got %d", len(winners))
	}
	if store.active["pet-a"] != winners[0].ID {
		t.Fatalf("stored walk %s does not match winner %s", store.active["pet-a"], winners[0].ID)
	}

	store.barrier = nil
	if _, err := svc.StartWalk(context.Background(), "pet-a", StartInput{}); !errors.Is(err, ErrAlreadyWalking) {
		t.Fatalf("expected existing walk to block a later start, got %v", err)
	}
	if _, err := svc.StartWalk(context.Background(), "pet-b", StartInput{}); err != nil {
		t.Fatalf("other pets must start independently: %v", err)
	}
}
