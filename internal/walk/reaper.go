package walk

import (
	"context"
	"time"

	"backend-pettopia/internal/logging"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type staleCanceller interface {
	CancelStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Reaper periodically cancels walks that were never ended, so a pet whose
// client vanished mid-walk can start a new one.
type Reaper struct {
	cron       *cron.Cron
	svc        staleCanceller
	staleAfter time.Duration
	log        *logrus.Entry
}

func NewReaper(svc staleCanceller, schedule string, staleAfter time.Duration) (*Reaper, error) {
	r := &Reaper{
		cron:       cron.New(),
		svc:        svc,
		staleAfter: staleAfter,
		log:        logging.NewDefault("walk-reaper"),
	}
	if _, err := r.cron.AddFunc(schedule, r.Run); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reaper) Start() { r.cron.Start() }

// Stop halts scheduling and waits for a running sweep to finish or ctx to
// expire.
func (r *Reaper) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Run performs one sweep.
func (r *Reaper) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := r.svc.CancelStale(ctx, r.staleAfter)
	if err != nil {
		r.log.WithError(err).Error("cancel stale walks")
		return
	}
	if n > 0 {
		r.log.WithField("count", n).Info("cancelled stale walks")
	}
}
