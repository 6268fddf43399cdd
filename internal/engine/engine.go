package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rkhanna/amulwatch/internal/amul"
	"github.com/rkhanna/amulwatch/internal/metrics"
	"github.com/rkhanna/amulwatch/internal/notify"
	"github.com/rkhanna/amulwatch/internal/store"
	domain "github.com/rkhanna/amulwatch/pkg/types"
)

// ErrStageFailed marks a run aborted before any state mutation
// (bootstrap or fetch exhausted). Callers treat it as "try again next
// schedule", not a crash: the previous snapshot stays authoritative.
var ErrStageFailed = errors.New("run stage failed")

// istZone renders alert timestamps the way the audience reads them.
var istZone = time.FixedZone("IST", 5*3600+30*60)

// Catalog is the slice of the site client the engine needs.
type Catalog interface {
	Bootstrap(ctx context.Context) (*amul.Session, error)
	FetchByAliases(ctx context.Context, sess *amul.Session, aliases []string) (map[string]amul.ProductRecord, error)
}

// Engine orchestrates one poll cycle.
type Engine struct {
	store    store.Store
	catalog  Catalog
	notifier *notify.Multi
	decider  Decider
	aliases  []string

	log     *slog.Logger
	nowFunc func() time.Time
	idFunc  func() string
	force   bool
	dryRun  bool
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(e *Engine) {
		e.nowFunc = f
	}
}

// WithIDFunc overrides history entry ID generation for testing.
func WithIDFunc(f func() string) Option {
	return func(e *Engine) {
		e.idFunc = f
	}
}

// WithForce triggers an alert for every fetched item this run,
// regardless of detected changes.
func WithForce(force bool) Option {
	return func(e *Engine) {
		e.force = force
	}
}

// WithDryRun fetches and diffs but neither persists state nor sends
// notifications.
func WithDryRun(dry bool) Option {
	return func(e *Engine) {
		e.dryRun = dry
	}
}

// New creates an Engine with injected dependencies.
func New(s store.Store, c Catalog, n *notify.Multi, aliases []string, d Decider, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		catalog:  c,
		notifier: n,
		decider:  d,
		aliases:  aliases,
		log:      slog.Default(),
		nowFunc:  time.Now,
		idFunc:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one poll cycle: bootstrap, fetch, diff, persist,
// notify. Any failure before or during fetch aborts without touching
// state, so "we couldn't ask" is never mistaken for "it is
// unavailable".
func (e *Engine) Run(ctx context.Context) error {
	start := e.nowFunc()
	defer func() {
		metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()

	sess, err := e.catalog.Bootstrap(ctx)
	if err != nil {
		metrics.RunsAbortedTotal.Inc()
		return fmt.Errorf("%w: bootstrapping session: %v", ErrStageFailed, err)
	}
	e.log.Info("session ready", "state", sess.State().String(), "substore", sess.Substore())

	records, err := e.catalog.FetchByAliases(ctx, sess, e.aliases)
	if err != nil {
		metrics.RunsAbortedTotal.Inc()
		return fmt.Errorf("%w: fetching products: %v", ErrStageFailed, err)
	}

	st, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}

	now := e.nowFunc()
	var blocks []string

	for _, alias := range e.aliases {
		key := domain.NormalizeAlias(alias)
		rec, ok := records[key]
		if !ok {
			e.log.Warn("alias missing from fetch result, snapshot untouched", "alias", key)
			metrics.FetchMissingKeysTotal.Inc()
			continue
		}

		prev := st.Snapshot(key)
		shouldAlert, changes := e.decider.Decide(prev, rec, e.force, now)

		snap := SnapshotOf(rec, now)
		if prev != nil {
			snap.LastAlertAt = prev.LastAlertAt
		}

		if shouldAlert {
			alertAt := now
			snap.LastAlertAt = &alertAt

			entry := domain.HistoryEntry{
				ID:        e.idFunc(),
				Timestamp: now,
				Alias:     key,
				Name:      snap.Name,
				Changes:   changes,
				Snapshot:  snap,
				Substore:  sess.Substore(),
			}
			st.AppendHistory(entry)
			blocks = append(blocks, renderBlock(entry))
			metrics.AlertsFiredTotal.Inc()
			e.log.Info("alert", "alias", key, "changes", strings.Join(changes, "; "))
		} else {
			e.log.Debug("no alert", "alias", key)
		}

		// Snapshot is updated unconditionally on every successful
		// fetch, independent of the alert outcome.
		st.SetSnapshot(key, snap)
	}

	if e.dryRun {
		e.log.Info("dry run, skipping persistence and notifications", "alerts", len(blocks))
		return nil
	}

	if err := e.store.Save(ctx, st); err != nil {
		return fmt.Errorf("persisting state: %w", err)
	}

	if len(blocks) > 0 && e.notifier != nil && e.notifier.Len() > 0 {
		alert := notify.Alert{
			Subject: fmt.Sprintf("Amul stock alert (%d item(s))", len(blocks)),
			Body:    strings.Join(blocks, "\n\n"),
		}
		delivered := e.notifier.Dispatch(ctx, alert)
		e.log.Info("alerts dispatched", "items", len(blocks), "channels_delivered", delivered)
	}

	return nil
}

// renderBlock formats one alert as a text block shared by all
// channels.
func renderBlock(entry domain.HistoryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", entry.Name, entry.Alias)
	for _, change := range entry.Changes {
		fmt.Fprintf(&b, "  - %s\n", change)
	}

	snap := entry.Snapshot
	if snap.Available != nil {
		fmt.Fprintf(&b, "  available: %v", *snap.Available)
		if snap.Inventory != nil {
			fmt.Fprintf(&b, ", inventory: %d", *snap.Inventory)
		}
		if snap.Price != nil {
			fmt.Fprintf(&b, ", price: %s", formatPrice(*snap.Price))
		}
		b.WriteString("\n")
	}
	if entry.Substore != "" {
		fmt.Fprintf(&b, "  substore: %s\n", entry.Substore)
	}
	fmt.Fprintf(&b, "  time: %s", entry.Timestamp.In(istZone).Format("2006-01-02 15:04:05 MST"))
	return b.String()
}
