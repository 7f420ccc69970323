// Package discovery drives the oracle over untried pairs of known items and
// folds the answers back into the store.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeanpaul/cookbook/internal/item"
	"github.com/jeanpaul/cookbook/internal/oracle"
	"github.com/jeanpaul/cookbook/internal/store"
)

const (
	DefaultCooldown      = 300 * time.Millisecond
	DefaultSnapshotEvery = 1000

	// typicalLatency is only used for the ETA in the scan log line.
	typicalLatency = 150 * time.Millisecond
)

// ErrUnknownItem is returned when a scoped scan names an item the store does
// not hold.
var ErrUnknownItem = errors.New("unknown item")

// Saver persists a full snapshot of the store. *codec.File satisfies it.
type Saver interface {
	Save(st *store.Store) error
}

// Outcome describes one processed pair, handed to the Observer.
type Outcome struct {
	Index   int // 1-based
	Total   int
	Pair    item.Pair
	Result  oracle.Result
	Created bool   // a new item entered the store
	Action  Action // meaningful only for failures
}

// Observer is called synchronously after every pair.
type Observer func(Outcome)

type Options struct {
	Cooldown        time.Duration
	SnapshotEvery   int // zero disables periodic snapshots
	RememberNothing bool
	Policy          Policy // nil means DefaultPolicy
	Saver           Saver  // nil disables snapshots
	Observer        Observer
	Logger          *zap.Logger
}

// Report summarises a scan.
type Report struct {
	ScanID     string
	Candidates int
	Completed  int // pairs that got an answer
	Discovered int // genuinely new items
	Nothing    int
	Skipped    int
	NewItems   []string
	Duration   time.Duration
	Passes     int
}

// Processed is the number of pairs the scan got through, answered or skipped.
func (r Report) Processed() int { return r.Completed + r.Skipped }

// add folds o into r. The first pass's ScanID is kept.
func (r *Report) add(o Report) {
	if r.ScanID == "" {
		r.ScanID = o.ScanID
	}
	r.Candidates += o.Candidates
	r.Completed += o.Completed
	r.Discovered += o.Discovered
	r.Nothing += o.Nothing
	r.Skipped += o.Skipped
	r.NewItems = append(r.NewItems, o.NewItems...)
	r.Duration += o.Duration
	r.Passes += o.Passes
}

// Engine owns the scan loop. It is the store's only writer while a scan runs;
// readers may look at the store concurrently.
type Engine struct {
	store  *store.Store
	oracle oracle.Combiner
	opts   Options
	log    *zap.Logger
}

func New(st *store.Store, orc oracle.Combiner, opts Options) *Engine {
	if opts.Policy == nil {
		opts.Policy = DefaultPolicy()
	}
	if opts.Cooldown < 0 {
		opts.Cooldown = 0
	}
	if opts.SnapshotEvery < 0 {
		opts.SnapshotEvery = 0
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: st, oracle: orc, opts: opts, log: log.Named("discovery")}
}

// Candidates returns the sorted, de-duplicated pairs over names that still
// need an oracle call. A pair already recorded on any item in the store is
// dropped, even when that item is outside names.
func (e *Engine) Candidates(names []string) []item.Pair {
	seen := make(map[item.Pair]struct{}, len(names)*len(names)/2)
	var out []item.Pair
	for _, a := range names {
		for _, b := range names {
			p := item.Canonical(a, b)
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			if p.HasNothing() {
				continue
			}
			if e.store.AnyItemHasPair(p.First, p.Second) {
				continue
			}
			if e.opts.RememberNothing && e.store.IsExhausted(p.First, p.Second) {
				continue
			}
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// ScanAll scans every item currently in the store. Items discovered during
// the scan are combined on the next one.
func (e *Engine) ScanAll(ctx context.Context) (Report, error) {
	return e.scan(ctx, e.store.Names())
}

// ScanPasses runs ScanAll again and again, so items found in one pass are
// combined in the next. It stops after a pass that creates no item, or after
// maxPasses passes when maxPasses > 0. afterPass, when set, runs after every
// finished pass and an error from it ends the loop. The report totals every
// pass, including a failed one.
func (e *Engine) ScanPasses(ctx context.Context, maxPasses int, afterPass func(Report) error) (Report, error) {
	var total Report
	for maxPasses <= 0 || total.Passes < maxPasses {
		rep, err := e.ScanAll(ctx)
		total.add(rep)
		if err != nil {
			return total, err
		}
		if afterPass != nil {
			if err := afterPass(rep); err != nil {
				return total, err
			}
		}
		if rep.Discovered == 0 {
			break
		}
		e.log.Info("pass found new items, scanning again",
			zap.Int("pass", total.Passes),
			zap.Int("discovered", rep.Discovered))
	}
	return total, nil
}

// Scan restricts the candidate list to names, which must all be in the store.
func (e *Engine) Scan(ctx context.Context, names []string) (Report, error) {
	for _, n := range names {
		if !e.store.Has(n) {
			return Report{}, fmt.Errorf("%w: %q", ErrUnknownItem, n)
		}
	}
	return e.scan(ctx, names)
}

func (e *Engine) scan(ctx context.Context, names []string) (Report, error) {
	start := time.Now()
	pairs := e.Candidates(names)
	rep := Report{ScanID: uuid.NewString(), Candidates: len(pairs), Passes: 1}
	log := e.log.With(zap.String("scan_id", rep.ScanID))

	log.Info("scan starting",
		zap.Int("items", len(names)),
		zap.Int("candidates", len(pairs)),
		zap.Duration("eta", Estimate(len(pairs), e.opts.Cooldown)))

	pace := newPacer(e.opts.Cooldown)
	for i, p := range pairs {
		if err := pace.Wait(ctx); err != nil {
			return e.stop(log, &rep, start, p, err)
		}
		res := e.oracle.Combine(ctx, p.First, p.Second)
		pace.rest(time.Now())

		out := Outcome{Index: i + 1, Total: len(pairs), Pair: p, Result: res}
		switch res.Kind {
		case oracle.KindProduced:
			out.Created = e.store.InsertOrUpdate(res.Name, res.Emoji, res.IsNew, p)
			rep.Completed++
			if out.Created {
				rep.Discovered++
				rep.NewItems = append(rep.NewItems, res.Name)
			}
			log.Debug("pair resolved",
				zap.String("first", p.First),
				zap.String("second", p.Second),
				zap.String("result", res.Name),
				zap.Bool("created", out.Created))

		case oracle.KindNothing:
			rep.Completed++
			rep.Nothing++
			if e.opts.RememberNothing {
				e.store.MarkExhausted(p.First, p.Second)
			}
			log.Debug("pair yields nothing", zap.String("first", p.First), zap.String("second", p.Second))

		default:
			// A call cut short by cancellation is not the oracle's fault.
			if ctx.Err() != nil {
				return e.stop(log, &rep, start, p, ctx.Err())
			}
			f := res.Failure
			if f == nil {
				f = &oracle.Failure{Kind: oracle.MalformedResponse, Message: "failure without details"}
			}
			out.Action = e.opts.Policy.For(f.Kind)
			if out.Action == Abort {
				e.notify(out)
				return e.stop(log, &rep, start, p, f)
			}
			rep.Skipped++
			log.Warn("pair skipped",
				zap.String("first", p.First),
				zap.String("second", p.Second),
				zap.Stringer("kind", f.Kind),
				zap.Error(f))
		}
		e.notify(out)

		if n := rep.Processed(); e.opts.SnapshotEvery > 0 && n%e.opts.SnapshotEvery == 0 {
			if err := e.snapshot(); err != nil {
				rep.Duration = time.Since(start)
				return rep, fmt.Errorf("snapshot after %d pairs: %w", n, err)
			}
			log.Info("snapshot written", zap.Int("completed", n), zap.Int("items", e.store.Len()))
		}
	}

	rep.Duration = time.Since(start)
	log.Info("scan finished",
		zap.Int("completed", rep.Completed),
		zap.Int("discovered", rep.Discovered),
		zap.Int("nothing", rep.Nothing),
		zap.Int("skipped", rep.Skipped),
		zap.Duration("took", rep.Duration))
	return rep, nil
}

// stop writes an out-of-band snapshot reflecting every completed pair and
// wraps cause into a *ScanError.
func (e *Engine) stop(log *zap.Logger, rep *Report, start time.Time, p item.Pair, cause error) (Report, error) {
	rep.Duration = time.Since(start)
	serr := &ScanError{Pair: p, Completed: rep.Completed, Cause: cause}
	serr.SnapshotErr = e.snapshot()

	log.Error("scan aborted",
		zap.String("first", p.First),
		zap.String("second", p.Second),
		zap.Int("completed", rep.Completed),
		zap.Error(cause),
		zap.NamedError("snapshot_error", serr.SnapshotErr))
	return *rep, serr
}

func (e *Engine) snapshot() error {
	if e.opts.Saver == nil {
		return nil
	}
	return e.opts.Saver.Save(e.store)
}

func (e *Engine) notify(out Outcome) {
	if e.opts.Observer != nil {
		e.opts.Observer(out)
	}
}

// Estimate is a rough duration for n oracle calls at the given cooldown.
func Estimate(n int, cooldown time.Duration) time.Duration {
	return time.Duration(n) * (cooldown + typicalLatency)
}
