package planner

import (
	"context"
	"math"
	"strings"
	"time"

	"taskbridge/internal/apierror"
	"taskbridge/internal/service"
)

// PlannableTasks returns open tasks in planning order, truncated to MaxItems.
//
// Scoped to one list, the remote API sorts by priority and its order is kept.
// Unscoped, tasks from every list are merged and sorted locally.
func (p *Planner) PlannableTasks(ctx context.Context, q PlannableQuery) (PlannableResult, error) {
	now := p.snapshot()
	limit := q.MaxItems
	if limit <= 0 {
		limit = p.cfg.DefaultMaxItems
	}
	statuses := activeStatuses(q.ExcludeBlocked)

	var (
		tasks   []service.Task
		scanned int
	)
	if q.ListID != "" {
		page, err := p.svc.ListItems(ctx, q.ListID, service.ItemQuery{
			PageQuery: service.PageQuery{PageSize: p.cfg.PerListLimit},
			Status:    statuses,
			SortBy:    "priority",
			SortOrder: "desc",
		})
		if err != nil {
			return PlannableResult{}, err
		}
		tasks, scanned = filterStatus(page.Items, statuses), 1
	} else {
		var err error
		tasks, scanned, err = p.collect(ctx, "", statuses)
		if err != nil {
			return PlannableResult{}, err
		}
		sortByPriority(tasks)
	}

	total := len(tasks)
	if len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return PlannableResult{
		TaskSet:         newTaskSet(tasks, scanned, now),
		TotalCandidates: total,
		Truncated:       total > len(tasks),
	}, nil
}

// OverdueTasks returns open tasks due strictly before now, earliest first.
func (p *Planner) OverdueTasks(ctx context.Context, q ScopeQuery) (TaskSet, error) {
	now := p.snapshot()
	tasks, scanned, err := p.collect(ctx, q.ListID, activeStatuses(false))
	if err != nil {
		return TaskSet{}, err
	}

	overdue := filterTasks(tasks, func(t service.Task) bool {
		due, ok := t.Due()
		return ok && due.Before(now)
	})
	sortByDue(overdue)
	return newTaskSet(overdue, scanned, now), nil
}

// DueSoon returns open tasks due in [now, now+DaysAhead days], earliest first.
func (p *Planner) DueSoon(ctx context.Context, q DueSoonQuery) (DueSoonResult, error) {
	now := p.snapshot()
	days := q.DaysAhead
	if days <= 0 {
		days = p.cfg.DueSoonDays
	}
	end := now.Add(time.Duration(days) * 24 * time.Hour)

	tasks, scanned, err := p.collect(ctx, q.ListID, activeStatuses(false))
	if err != nil {
		return DueSoonResult{}, err
	}

	soon := filterTasks(tasks, func(t service.Task) bool {
		due, ok := t.Due()
		return ok && inWindow(due, now, end)
	})
	sortByDue(soon)
	return DueSoonResult{
		TaskSet:   newTaskSet(soon, scanned, now),
		DaysAhead: days,
		WindowEnd: end.Format(service.TimestampLayout),
	}, nil
}

// TasksByTag returns open tasks carrying the tag, in planning order.
func (p *Planner) TasksByTag(ctx context.Context, q TagQuery) (TagResult, error) {
	tag := strings.TrimSpace(q.Tag)
	if tag == "" {
		return TagResult{}, &apierror.InputError{Field: "tag", Issue: "must not be empty"}
	}
	now := p.snapshot()

	tasks, scanned, err := p.collect(ctx, q.ListID, activeStatuses(false))
	if err != nil {
		return TagResult{}, err
	}

	tagged := filterTasks(tasks, func(t service.Task) bool { return t.HasTag(tag) })
	sortByPriority(tagged)
	return TagResult{
		TaskSet: newTaskSet(tagged, scanned, now),
		Tag:     tag,
	}, nil
}

// WorkloadSummary aggregates counts and estimated hours over open tasks.
func (p *Planner) WorkloadSummary(ctx context.Context, q ScopeQuery) (WorkloadSummary, error) {
	now := p.snapshot()
	tasks, scanned, err := p.collect(ctx, q.ListID, activeStatuses(false))
	if err != nil {
		return WorkloadSummary{}, err
	}

	end := now.Add(time.Duration(p.cfg.DueSoonDays) * 24 * time.Hour)
	sum := WorkloadSummary{
		TotalTasks:   len(tasks),
		ByPriority:   map[string]Bucket{},
		ByTag:        map[string]Bucket{},
		ByStatus:     map[string]int{},
		DueSoonDays:  p.cfg.DueSoonDays,
		ListsScanned: scanned,
		GeneratedAt:  now.Format(service.TimestampLayout),
	}

	var total float64
	for _, t := range tasks {
		hours, ok := ParseHours(t.EstimatedDuration)
		if !ok {
			sum.UnestimatedCount++
		}
		total += hours

		addTo(sum.ByPriority, string(t.Priority.OrDefault()), hours)
		for _, tag := range uniqueTags(t.Tags) {
			addTo(sum.ByTag, tag, hours)
		}
		sum.ByStatus[string(t.Status)]++

		if due, ok := t.Due(); ok {
			if due.Before(now) {
				sum.OverdueCount++
			} else if inWindow(due, now, end) {
				sum.DueSoonCount++
			}
		}
	}

	sum.TotalHours = roundTenth(total)
	roundBuckets(sum.ByPriority)
	roundBuckets(sum.ByTag)
	return sum, nil
}

// QuickAdd creates a task with medium priority unless one is given.
func (p *Planner) QuickAdd(ctx context.Context, in QuickAddInput) (service.Task, error) {
	if strings.TrimSpace(in.ListID) == "" {
		return service.Task{}, &apierror.InputError{Field: "list_id", Issue: "is required"}
	}
	if strings.TrimSpace(in.Title) == "" {
		return service.Task{}, &apierror.InputError{Field: "title", Issue: "is required"}
	}
	due, err := service.NormalizeTimestamp(in.DueAt)
	if err != nil {
		return service.Task{}, &apierror.InputError{Field: "due_at", Issue: "must be an ISO 8601 timestamp"}
	}

	return p.svc.CreateItem(ctx, in.ListID, service.TaskInput{
		Title:             in.Title,
		Description:       in.Description,
		Status:            service.StatusTodo,
		Priority:          in.Priority.OrDefault(),
		DueAt:             due,
		Tags:              in.Tags,
		EstimatedDuration: in.EstimatedDuration,
	})
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func filterTasks(tasks []service.Task, keep func(service.Task) bool) []service.Task {
	out := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func addTo(buckets map[string]Bucket, key string, hours float64) {
	b := buckets[key]
	b.Count++
	b.EstimatedHours += hours
	buckets[key] = b
}

func roundBuckets(buckets map[string]Bucket) {
	for k, b := range buckets {
		b.EstimatedHours = roundTenth(b.EstimatedHours)
		buckets[k] = b
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func uniqueTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := tags[:0:0]
	for _, tag := range tags {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
