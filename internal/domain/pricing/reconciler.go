package pricing

import (
	"time"

	"staybook/internal/domain/shared/daterange"
)

// Plan is the three-way outcome of reconciling an incoming override against a
// listing's existing periods. The reconciler is pure; the caller applies the
// plan in one write batch, transactionally where the store allows it.
type Plan struct {
	ToAdd    []Period
	ToUpdate []Period
	ToDelete []string // period ids
}

// IDGenerator mints ids for right-fragment clones produced by a split.
type IDGenerator func() string

// Reconcile inserts an incoming period into a listing's override set while
// preserving the no-overlap invariant. The incoming period always wins over
// anything it intersects:
//
//   - disjoint existing periods are untouched
//   - fully covered existing periods are deleted
//   - a period strictly containing the incoming one is split into a trimmed
//     left fragment (update) and a cloned right fragment (add)
//   - partial overlaps are trimmed away from the incoming range
func Reconcile(existing []Period, incoming Period, nextID IDGenerator) Plan {
	plan := Plan{ToAdd: []Period{incoming}}
	for _, e := range existing {
		if e.ID == incoming.ID {
			continue
		}
		if !e.overlaps(incoming) {
			continue
		}
		switch {
		case incoming.contains(e):
			plan.ToDelete = append(plan.ToDelete, e.ID)
		case e.strictlyContains(incoming):
			right := e.cloneAdjustment(nextID(), dayAfter(incoming.EndDate), e.EndDate)
			e.EndDate = dayBefore(incoming.StartDate)
			plan.ToUpdate = append(plan.ToUpdate, e)
			plan.ToAdd = append(plan.ToAdd, right)
		case e.StartDate.Before(incoming.StartDate):
			// Left overlap: existing period runs into the incoming range.
			e.EndDate = dayBefore(incoming.StartDate)
			plan.ToUpdate = append(plan.ToUpdate, e)
		default:
			// Right overlap: existing period starts inside the incoming range.
			e.StartDate = dayAfter(incoming.EndDate)
			plan.ToUpdate = append(plan.ToUpdate, e)
		}
	}
	return plan
}

func dayAfter(d time.Time) time.Time  { return daterange.Day(d).AddDate(0, 0, 1) }
func dayBefore(d time.Time) time.Time { return daterange.Day(d).AddDate(0, 0, -1) }
