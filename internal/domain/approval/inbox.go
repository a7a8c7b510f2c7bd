package approval

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/agency-hub/agency-hub/internal/domain/task"
)

// NeedsMyApproval reports whether a task is currently awaiting action from
// the given user. Pure function of its inputs.
//
// The blocking row for this query is the lowest-level row whose status is
// PENDING or WAITING, found by linear scan in level order. A WAITING row
// belonging to the user never counts: it is not their turn yet.
func NeedsMyApproval(t *task.Task, userID uuid.UUID, steps []*Step) bool {
	if t == nil || t.IsClosed() {
		return false
	}
	mine := make([]*Step, 0, len(steps))
	for _, s := range steps {
		if s.TaskID == t.TaskID {
			mine = append(mine, s)
		}
	}
	if len(mine) == 0 {
		return false
	}
	SortByLevel(mine)
	for _, s := range mine {
		if s.Status == StatusPending || s.Status == StatusWaiting {
			return s.Status == StatusPending && s.ApproverID == userID
		}
	}
	return false
}

// SortByUrgency orders tasks for approval dashboards: overdue tasks first
// (earliest due date first), then non-overdue by ascending due date, with
// undated tasks last; newest CreatedAt breaks every remaining tie. The
// result is a strict total order so widget output is deterministic.
func SortByUrgency(tasks []*task.Task, now time.Time) {
	rank := func(t *task.Task) int {
		if t.DueDate == nil {
			return 2
		}
		if t.DueDate.Before(now) {
			return 0
		}
		return 1
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		ra, rb := rank(a), rank(b)
		if ra != rb {
			return ra < rb
		}
		if ra != 2 && !a.DueDate.Equal(*b.DueDate) {
			return a.DueDate.Before(*b.DueDate)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
