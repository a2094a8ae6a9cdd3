// Package coord runs fetch cycles for keywatch.
//
// A cycle fans out one fetch per (source, keyword) pair, waits for every
// task to settle, then pushes the results through the dedup → match →
// limit → rank pipeline. At most one cycle runs at a time; requests that
// arrive while a cycle is in flight are dropped, not queued.
package coord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/keywatch/internal/config"
	"github.com/abelbrown/keywatch/internal/fetch"
	"github.com/abelbrown/keywatch/internal/filter"
	"github.com/abelbrown/keywatch/internal/logging"
	"github.com/abelbrown/keywatch/internal/store"
	"github.com/abelbrown/keywatch/internal/ui"
)

// fetchTimeout bounds each individual (source, keyword) fetch.
const fetchTimeout = 30 * time.Second

// maxConcurrentFetches limits parallel fetch operations.
const maxConcurrentFetches = 5

var (
	// ErrNoKeywords means no source has any keyword: nothing to monitor.
	// The cycle short-circuits without invoking any adapter.
	ErrNoKeywords = errors.New("nothing to monitor, add keywords first")
	// ErrCycleInFlight means a cycle was already running; the request
	// is dropped rather than queued.
	ErrCycleInFlight = errors.New("fetch cycle already in flight")
)

// cycleState is the re-entrancy guard: Idle or Fetching.
type cycleState int

const (
	stateIdle cycleState = iota
	stateFetching
)

// archive is the subset of store.Store the coordinator needs.
type archive interface {
	SaveItems(items []store.Item) (int, error)
}

// TaskError records one soft-failed (source, keyword) fetch.
type TaskError struct {
	Source  fetch.Source
	Keyword string
	Err     error
}

func (e TaskError) String() string {
	return fmt.Sprintf("%s/%q: %v", e.Source, e.Keyword, e.Err)
}

// Report is the outcome of one completed cycle.
type Report struct {
	Items    []filter.Matched
	NewItems int
	Tasks    int
	Failures []TaskError
}

// Coordinator owns the cycle state machine and the periodic timer.
type Coordinator struct {
	cfg      *config.Manager
	adapters map[fetch.Source]fetch.Adapter
	archive  archive // optional: nil disables seen/new accounting

	mu    sync.Mutex
	state cycleState

	ctx        context.Context
	program    *tea.Program
	intervalCh chan time.Duration
	wg         sync.WaitGroup
}

// New creates a Coordinator. The archive may be nil.
func New(cfg *config.Manager, adapters []fetch.Adapter, arc *store.Store) *Coordinator {
	c := &Coordinator{
		cfg:        cfg,
		adapters:   make(map[fetch.Source]fetch.Adapter, len(adapters)),
		intervalCh: make(chan time.Duration, 1),
	}
	if arc != nil {
		c.archive = arc
	}
	for _, a := range adapters {
		c.adapters[a.Source()] = a
	}
	return c
}

// Start begins the periodic fetch loop. Cycle results are delivered to
// the program as ui messages. Cancel the context to stop; no in-flight
// adapter call is cancelled early beyond its own timeout.
func (c *Coordinator) Start(ctx context.Context, program *tea.Program) {
	c.ctx = ctx
	c.program = program

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		// First cycle runs immediately when there is anything to fetch.
		if !c.cfg.Keywords().Empty() {
			c.cycle()
		}

		ticker := time.NewTicker(c.cfg.Interval())
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case d := <-c.intervalCh:
				ticker.Stop()
				ticker = time.NewTicker(d)
				logging.Info("fetch timer rescheduled", "interval", d)
			case <-ticker.C:
				c.cycle()
			}
		}
	}()
}

// Wait blocks until the timer goroutine exits. Call after cancelling the
// context passed to Start.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Reschedule restarts the periodic timer with a new interval, measured
// from now. No drift compensation.
func (c *Coordinator) Reschedule(d time.Duration) {
	// Replace any pending reschedule rather than queueing behind it.
	select {
	case <-c.intervalCh:
	default:
	}
	c.intervalCh <- d
}

// Trigger requests an immediate cycle without blocking the caller.
// Dropped (with a CycleDropped message) if a cycle is already in flight.
func (c *Coordinator) Trigger() {
	go c.cycle()
}

// cycle runs one guarded cycle and delivers the outcome to the UI.
func (c *Coordinator) cycle() {
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	report, err := c.RunCycle(ctx)
	switch {
	case errors.Is(err, ErrCycleInFlight):
		logging.Debug("cycle request dropped, already fetching")
		c.send(ui.CycleDropped{})
	case err != nil:
		c.send(ui.CycleComplete{Err: err})
	default:
		failures := make([]string, len(report.Failures))
		for i, f := range report.Failures {
			failures[i] = f.String()
		}
		c.send(ui.CycleComplete{
			Items:    report.Items,
			NewItems: report.NewItems,
			Tasks:    report.Tasks,
			Failures: failures,
		})
	}
}

// send delivers a message to the program, if one is attached.
func (c *Coordinator) send(msg tea.Msg) {
	if c.program != nil {
		c.program.Send(msg)
	}
}

// begin flips Idle → Fetching, failing when a cycle is already running.
func (c *Coordinator) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateFetching {
		return ErrCycleInFlight
	}
	c.state = stateFetching
	return nil
}

func (c *Coordinator) end() {
	c.mu.Lock()
	c.state = stateIdle
	c.mu.Unlock()
}

// RunCycle executes one full fetch cycle: fan-out over every
// (source, keyword) pair present at cycle start, fan-in with soft-failure
// tolerance, then dedup, match against the full keyword union, per-source
// limiting, and recency sort. Keyword edits made while the cycle runs do
// not change its scope.
func (c *Coordinator) RunCycle(ctx context.Context) (*Report, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()

	scope := c.cfg.Keywords().Snapshot()
	if len(scope) == 0 {
		return nil, ErrNoKeywords
	}

	c.send(ui.CycleStarted{})
	start := time.Now()

	type task struct {
		src fetch.Source
		kw  string
	}
	var tasks []task
	for src, kws := range scope {
		if _, ok := c.adapters[src]; !ok {
			continue
		}
		for _, kw := range kws {
			tasks = append(tasks, task{src: src, kw: kw})
		}
	}
	logging.Info("cycle started", "tasks", len(tasks))

	var (
		resultMu sync.Mutex
		raw      []fetch.Item
		failures []TaskError
	)

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	for _, t := range tasks {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()

			items, err := c.adapters[t.src].Fetch(fetchCtx, t.kw)

			resultMu.Lock()
			defer resultMu.Unlock()
			if err != nil {
				logging.Warn("fetch failed", "source", t.src, "keyword", t.kw, "error", err)
				failures = append(failures, TaskError{Source: t.src, Keyword: t.kw, Err: err})
				return nil // never fail the group - errors reported per-task
			}
			raw = append(raw, items...)
			return nil
		})
	}
	_ = g.Wait()

	deduped := filter.Dedup(raw)
	matched := filter.Match(deduped, unionOf(scope))
	limited := filter.LimitPerSource(matched, c.cfg.Limits())
	final := filter.SortByPublished(limited)

	report := &Report{
		Items:    final,
		Tasks:    len(tasks),
		Failures: failures,
	}

	if c.archive != nil {
		newItems, err := c.archive.SaveItems(toStoreItems(final))
		if err != nil {
			logging.Warn("archive save failed", "error", err)
		} else {
			report.NewItems = newItems
		}
	}

	logging.Info("cycle complete",
		"raw", len(raw), "deduped", len(deduped), "matched", len(matched),
		"final", len(final), "failed", len(failures),
		"elapsed", time.Since(start))

	return report, nil
}

// unionOf collapses the pinned cycle scope into one keyword list,
// duplicates dropped case-insensitively, in source-then-insertion order.
func unionOf(scope map[fetch.Source][]string) []string {
	var union []string
	seen := make(map[string]bool)
	for _, src := range fetch.AllSources() {
		for _, kw := range scope[src] {
			key := strings.ToLower(kw)
			if seen[key] {
				continue
			}
			seen[key] = true
			union = append(union, kw)
		}
	}
	return union
}

// toStoreItems converts matched items into archive rows.
func toStoreItems(items []filter.Matched) []store.Item {
	rows := make([]store.Item, 0, len(items))
	for _, item := range items {
		rows = append(rows, store.Item{
			URL:       item.URL,
			Source:    string(item.Source),
			Title:     item.Title,
			Snippet:   item.Snippet,
			Keywords:  item.Keywords,
			Published: item.Published,
		})
	}
	return rows
}
