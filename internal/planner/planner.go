// Package planner answers planning questions across lists that the remote
// API can only answer one list and one page at a time.
//
// Every operation captures a single "now" and uses it for all of its time
// comparisons. Unscoped operations read the whole list catalog and then one
// bounded page of items per list; any failure aborts the operation and is
// returned unchanged, carrying the request context of the call that failed.
package planner

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"taskbridge/internal/metrics"
	"taskbridge/internal/service"
)

// Config holds planner limits.
type Config struct {
	// DefaultMaxItems caps plannable results when the caller gives no limit.
	DefaultMaxItems int

	// PerListLimit is the page size requested from each list.
	PerListLimit int

	// DueSoonDays is the default look-ahead window.
	DueSoonDays int

	// FanOutConcurrency bounds concurrent per-list requests (<= 0 means unbounded).
	FanOutConcurrency int
}

// DefaultConfig holds the default planner limits.
var DefaultConfig = Config{
	DefaultMaxItems:   50,
	PerListLimit:      100,
	DueSoonDays:       7,
	FanOutConcurrency: 5,
}

// catalogPageSize is the page size used to walk the list catalog.
const catalogPageSize = 100

// Planner aggregates tasks across lists.
type Planner struct {
	svc    service.Service
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Planner. Zero config fields fall back to DefaultConfig.
func New(svc service.Service, cfg Config, logger *slog.Logger) *Planner {
	if cfg.DefaultMaxItems <= 0 {
		cfg.DefaultMaxItems = DefaultConfig.DefaultMaxItems
	}
	if cfg.PerListLimit <= 0 {
		cfg.PerListLimit = DefaultConfig.PerListLimit
	}
	if cfg.DueSoonDays <= 0 {
		cfg.DueSoonDays = DefaultConfig.DueSoonDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// activeStatuses returns the statuses considered open work.
func activeStatuses(excludeBlocked bool) []service.Status {
	if excludeBlocked {
		return []service.Status{service.StatusTodo, service.StatusInProgress}
	}
	return []service.Status{service.StatusTodo, service.StatusInProgress, service.StatusBlocked}
}

// collect returns the open tasks in scope and the number of lists read.
// A non-empty listID reads that list only.
func (p *Planner) collect(ctx context.Context, listID string, statuses []service.Status) ([]service.Task, int, error) {
	query := service.ItemQuery{
		PageQuery: service.PageQuery{PageSize: p.cfg.PerListLimit},
		Status:    statuses,
	}

	if listID != "" {
		page, err := p.svc.ListItems(ctx, listID, query)
		if err != nil {
			return nil, 1, err
		}
		return filterStatus(page.Items, statuses), 1, nil
	}

	lists, err := p.allLists(ctx)
	if err != nil {
		return nil, 0, err
	}

	start := time.Now()
	slots := make([][]service.Task, len(lists))

	g, gctx := errgroup.WithContext(ctx)
	if p.cfg.FanOutConcurrency > 0 {
		g.SetLimit(p.cfg.FanOutConcurrency)
	}
	for i, list := range lists {
		g.Go(func() error {
			page, err := p.svc.ListItems(gctx, list.ID, query)
			if err != nil {
				return err
			}
			slots[i] = page.Items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, len(lists), err
	}

	var merged []service.Task
	for _, items := range slots {
		merged = append(merged, items...)
	}
	merged = filterStatus(merged, statuses)

	metrics.FanOutLists.Observe(float64(len(lists)))
	p.logger.DebugContext(ctx, "fan-out complete",
		slog.Int("lists", len(lists)),
		slog.Int("tasks", len(merged)),
		slog.Duration("duration", time.Since(start)),
	)
	return merged, len(lists), nil
}

// allLists walks the paginated list catalog.
func (p *Planner) allLists(ctx context.Context) ([]service.TaskList, error) {
	var (
		lists []service.TaskList
		token string
		seen  = map[string]bool{}
	)
	for {
		page, err := p.svc.ListLists(ctx, service.PageQuery{PageSize: catalogPageSize, PageToken: token})
		if err != nil {
			return nil, err
		}
		lists = append(lists, page.Items...)

		token = page.NextPageToken
		if token == "" || seen[token] {
			return lists, nil
		}
		seen[token] = true
	}
}

func filterStatus(tasks []service.Task, statuses []service.Status) []service.Task {
	out := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if slices.Contains(statuses, t.Status) {
			out = append(out, t)
		}
	}
	return out
}

func (p *Planner) snapshot() time.Time {
	return p.now().UTC()
}

func newTaskSet(tasks []service.Task, listsScanned int, now time.Time) TaskSet {
	if tasks == nil {
		tasks = []service.Task{}
	}
	return TaskSet{
		Tasks:        tasks,
		Count:        len(tasks),
		ListsScanned: listsScanned,
		GeneratedAt:  now.Format(service.TimestampLayout),
	}
}
