package walk

import (
	"context"
	"fmt"
	"testing"
	"time"

	"backend-pettopia/internal/shared/cursor"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/pashagolub/pgxmock/v3"
)

// pageOf emulates the history query: items strictly older than before,
// newest first, at most limit.
func pageOf(items []Session, before *time.Time, limit int) []Session {
	var out []Session
	for _, s := range items {
		if before != nil && !s.CreatedAt.Before(*before) {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}

func TestHistoryPaginationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("pages are bounded, descending, disjoint and complete", prop.ForAll(
		func(total, limit int) bool {
			mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
			if err != nil {
				return false
			}
			defer mock.Close()
			svc := newTestService(mock, nil)

			items := make([]Session, total)
			for i := range items {
				items[i] = completedAt(fmt.Sprintf("w%d", i), fixedNow.Add(-time.Duration(i+1)*time.Minute))
			}

			seen := map[string]bool{}
			raw := ""
			for pages := 0; pages <= total+1; pages++ {
				before, err := cursor.Parse(raw)
				if err != nil {
					return false
				}
				want := pageOf(items, before, limit)
				if before == nil {
					mock.ExpectQuery(`ORDER BY created_at DESC LIMIT \$2`).
						WithArgs("pet-a", limit).
						WillReturnRows(sessionRows(want...))
				} else {
					mock.ExpectQuery(`AND created_at < \$2 ORDER BY created_at DESC LIMIT \$3`).
						WithArgs("pet-a", timeEq{*before}, limit).
						WillReturnRows(sessionRows(want...))
				}

				page, err := svc.History(context.Background(), "pet-a", limit, raw)
				if err != nil || len(page.Walks) > limit {
					return false
				}
				if (page.NextCursor != nil) != (len(page.Walks) == limit) {
					return false
				}
				for i, w := range page.Walks {
					if seen[w.ID] {
						return false
					}
					seen[w.ID] = true
					if i > 0 && !w.CreatedAt.Before(page.Walks[i-1].CreatedAt) {
						return false
					}
				}
				if page.NextCursor == nil {
					return len(seen) == total
				}
				raw = *page.NextCursor
			}
			return false
		},
		gen.IntRange(0, 60), gen.IntRange(1, 25),
	))

	properties.TestingRun(t)
}
