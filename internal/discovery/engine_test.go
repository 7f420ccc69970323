package discovery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeanpaul/cookbook/internal/item"
	"github.com/jeanpaul/cookbook/internal/oracle"
	"github.com/jeanpaul/cookbook/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeOracle answers from a table keyed by canonical pair; anything else is
// Nothing.
type fakeOracle struct {
	mu      sync.Mutex
	answers map[item.Pair]oracle.Result
	calls   []item.Pair
	times   []time.Time
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{answers: map[item.Pair]oracle.Result{}}
}

func (f *fakeOracle) on(a, b string, res oracle.Result) *fakeOracle {
	f.answers[item.Canonical(a, b)] = res
	return f
}

func (f *fakeOracle) Combine(_ context.Context, first, second string) oracle.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := item.Pair{First: first, Second: second}
	f.calls = append(f.calls, p)
	f.times = append(f.times, time.Now())
	if res, ok := f.answers[p.Canonical()]; ok {
		return res
	}
	return oracle.Nothing()
}

func (f *fakeOracle) Calls() []item.Pair {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]item.Pair(nil), f.calls...)
}

// fakeSaver records what the store looked like at every save.
type fakeSaver struct {
	err   error
	saves []int // store size per save
	pairs [][]item.Pair
}

func (s *fakeSaver) Save(st *store.Store) error {
	s.saves = append(s.saves, st.Len())
	var known []item.Pair
	for _, it := range st.Items() {
		known = append(known, it.Parents...)
	}
	s.pairs = append(s.pairs, known)
	return s.err
}

func forbidden() oracle.Result {
	return oracle.Failed(&oracle.Failure{Kind: oracle.Forbidden, Status: 403, Message: "access denied"})
}

func network() oracle.Result {
	return oracle.Failed(&oracle.Failure{Kind: oracle.Network, Message: "connection reset"})
}

func seedNames() []string {
	return []string{"Earth", "Fire", "Water", "Wind"}
}

func TestScanAll_SteamScenario(t *testing.T) {
	st := store.New()
	orc := newFakeOracle().on("Water", "Fire", oracle.Produced("Steam", "💨", true))
	eng := New(st, orc, Options{})

	rep, err := eng.ScanAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, st.Len())
	steam, ok := st.Get("Steam")
	require.True(t, ok)
	assert.Equal(t, []item.Pair{{First: "Fire", Second: "Water"}}, steam.Parents)
	assert.True(t, steam.IsNew)

	assert.Equal(t, 10, rep.Candidates)
	assert.Equal(t, 10, rep.Completed)
	assert.Equal(t, 1, rep.Discovered)
	assert.Equal(t, 9, rep.Nothing)
	assert.Equal(t, []string{"Steam"}, rep.NewItems)
	assert.NotEmpty(t, rep.ScanID)
}

func TestScan_RepeatReissuesNothingPairs(t *testing.T) {
	st := store.New()
	orc := newFakeOracle().on("Water", "Fire", oracle.Produced("Steam", "💨", true))
	eng := New(st, orc, Options{RememberNothing: false})

	_, err := eng.Scan(context.Background(), seedNames())
	require.NoError(t, err)
	first := len(orc.Calls())

	rep, err := eng.Scan(context.Background(), seedNames())
	require.NoError(t, err)

	assert.Equal(t, 0, rep.Discovered)
	assert.Equal(t, 9, len(orc.Calls())-first, "every Nothing pair is asked again")
	for _, p := range orc.Calls()[first:] {
		assert.NotEqual(t, item.Canonical("Fire", "Water"), p, "known pair must not be re-issued")
	}
}

func TestScan_RepeatWithRememberedNothing(t *testing.T) {
	st := store.New()
	orc := newFakeOracle().on("Water", "Fire", oracle.Produced("Steam", "💨", true))
	eng := New(st, orc, Options{RememberNothing: true})

	_, err := eng.Scan(context.Background(), seedNames())
	require.NoError(t, err)
	assert.Len(t, st.Exhausted(), 9)
	first := len(orc.Calls())

	rep, err := eng.Scan(context.Background(), seedNames())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Candidates)
	assert.Equal(t, 0, rep.Discovered)
	assert.Len(t, orc.Calls(), first)
}

func TestCandidates_Deterministic(t *testing.T) {
	st := store.New()
	st.Add("Mud", "")
	st.Add("Lava", "")
	eng := New(st, newFakeOracle(), Options{})

	a := eng.Candidates(st.Names())
	b := eng.Candidates([]string{"Wind", "Mud", "Fire", "Lava", "Water", "Earth", "Fire"})
	assert.Equal(t, a, b)
	assert.Len(t, a, 21)
	for i := 1; i < len(a); i++ {
		assert.True(t, a[i-1].Less(a[i]), "%v before %v", a[i-1], a[i])
	}
	for _, p := range a {
		assert.Equal(t, p, p.Canonical())
	}
}

func TestCandidates_KnownPairFilterIsGlobal(t *testing.T) {
	st := store.New()
	st.InsertOrUpdate("Steam", "💨", false, item.Canonical("Water", "Fire"))
	eng := New(st, newFakeOracle(), Options{})

	got := eng.Candidates([]string{"Fire", "Water"})
	assert.Equal(t, []item.Pair{
		{First: "Fire", Second: "Fire"},
		{First: "Water", Second: "Water"},
	}, got)
}

func TestScan_NothingIsNeverSent(t *testing.T) {
	st := store.New()
	st.Add(item.Nothing, "")
	orc := newFakeOracle()
	eng := New(st, orc, Options{})

	_, err := eng.ScanAll(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, orc.Calls())
	for _, p := range orc.Calls() {
		assert.False(t, p.HasNothing(), "sent %v", p)
	}
}

func TestScan_PlaceholderEmoji(t *testing.T) {
	st := store.New()
	orc := newFakeOracle().on("Water", "Fire", oracle.Produced("Steam", "", false))

	_, err := New(st, orc, Options{}).ScanAll(context.Background())
	require.NoError(t, err)

	steam, ok := st.Get("Steam")
	require.True(t, ok)
	assert.Equal(t, item.Placeholder, steam.Emoji)
	assert.False(t, steam.IsNew)
}

func TestScan_ExistingResultGainsRecipe(t *testing.T) {
	st := store.New()
	orc := newFakeOracle().
		on("Water", "Fire", oracle.Produced("Steam", "💨", true)).
		on("Water", "Water", oracle.Produced("Water", "🌊", true))

	rep, err := New(st, orc, Options{}).ScanAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Discovered)

	water, _ := st.Get("Water")
	assert.Equal(t, "💧", water.Emoji, "existing emoji is kept")
	assert.False(t, water.IsNew)
	assert.True(t, water.HasParents("Water", "Water"))
}

func TestScan_AbortSnapshotsCompletedPairs(t *testing.T) {
	st := store.New()
	// Sorted order: Earth+Earth, Earth+Fire, Earth+Water, ...
	orc := newFakeOracle().
		on("Earth", "Earth", oracle.Produced("Mountain", "⛰️", false)).
		on("Earth", "Water", forbidden())
	saver := &fakeSaver{}
	eng := New(st, orc, Options{Saver: saver, SnapshotEvery: 1000})

	rep, err := eng.ScanAll(context.Background())
	require.Error(t, err)

	var serr *ScanError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, 2, serr.Completed)
	assert.Equal(t, item.Pair{First: "Earth", Second: "Water"}, serr.Pair)
	require.NotNil(t, serr.Failure())
	assert.Equal(t, oracle.Forbidden, serr.Failure().Kind)
	assert.NoError(t, serr.SnapshotErr)

	var f *oracle.Failure
	assert.True(t, errors.As(err, &f))

	assert.Equal(t, 2, rep.Completed)
	require.Len(t, saver.saves, 1)
	assert.Equal(t, 5, saver.saves[0])
	assert.Len(t, orc.Calls(), 3, "nothing is called after the failing pair")
}

func TestScan_AbortReportsSnapshotFailure(t *testing.T) {
	diskFull := errors.New("disk full")
	orc := newFakeOracle().on("Earth", "Earth", forbidden())
	eng := New(store.New(), orc, Options{Saver: &fakeSaver{err: diskFull}})

	_, err := eng.ScanAll(context.Background())

	var serr *ScanError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, 0, serr.Completed)
	assert.ErrorIs(t, err, diskFull)
	assert.Contains(t, err.Error(), "snapshot failed")
}

func TestScan_NetworkSkipsByDefault(t *testing.T) {
	st := store.New()
	orc := newFakeOracle().
		on("Earth", "Fire", network()).
		on("Water", "Fire", oracle.Produced("Steam", "💨", true))
	var skipped []Outcome
	eng := New(st, orc, Options{Observer: func(o Outcome) {
		if o.Result.Kind == oracle.KindFailure {
			skipped = append(skipped, o)
		}
	}})

	rep, err := eng.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 9, rep.Completed)
	assert.Equal(t, 1, rep.Discovered)
	require.Len(t, skipped, 1)
	assert.Equal(t, Skip, skipped[0].Action)
	assert.False(t, st.AnyItemHasPair("Earth", "Fire"))
}

func TestScan_CustomPolicy(t *testing.T) {
	orc := newFakeOracle().on("Earth", "Fire", network())
	policy := DefaultPolicy()
	policy[oracle.Network] = Abort

	_, err := New(store.New(), orc, Options{Policy: policy}).ScanAll(context.Background())

	var serr *ScanError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, oracle.Network, serr.Failure().Kind)
	assert.Equal(t, 1, serr.Completed)
}

func TestScan_PeriodicSnapshots(t *testing.T) {
	saver := &fakeSaver{}
	eng := New(store.New(), newFakeOracle(), Options{Saver: saver, SnapshotEvery: 3})

	rep, err := eng.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, rep.Processed())
	assert.Len(t, saver.saves, 3)
}

func TestScan_PeriodicSnapshotErrorPropagates(t *testing.T) {
	diskFull := errors.New("disk full")
	orc := newFakeOracle()
	eng := New(store.New(), orc, Options{Saver: &fakeSaver{err: diskFull}, SnapshotEvery: 2})

	rep, err := eng.ScanAll(context.Background())
	assert.ErrorIs(t, err, diskFull)
	assert.Equal(t, 2, rep.Completed)
	assert.Len(t, orc.Calls(), 2)
}

func TestScan_ObserverSeesEveryPair(t *testing.T) {
	var seen []Outcome
	eng := New(store.New(), newFakeOracle(), Options{Observer: func(o Outcome) { seen = append(seen, o) }})

	_, err := eng.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, seen, 10)
	for i, o := range seen {
		assert.Equal(t, i+1, o.Index)
		assert.Equal(t, 10, o.Total)
	}
}

func TestScan_CancelStopsBetweenPairs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	saver := &fakeSaver{}
	orc := newFakeOracle()
	eng := New(store.New(), orc, Options{Saver: saver, Observer: func(Outcome) { cancel() }})

	_, err := eng.ScanAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	var serr *ScanError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, 1, serr.Completed)
	assert.Nil(t, serr.Failure())
	assert.Len(t, orc.Calls(), 1)
	assert.Len(t, saver.saves, 1)
}

func TestScan_UnknownItem(t *testing.T) {
	_, err := New(store.New(), newFakeOracle(), Options{}).Scan(context.Background(), []string{"Fire", "Plasma"})
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestScan_Cooldown(t *testing.T) {
	const cooldown = 15 * time.Millisecond
	st := store.Empty()
	st.Add("A", "")
	st.Add("B", "")
	orc := newFakeOracle()

	start := time.Now()
	rep, err := New(st, orc, Options{Cooldown: cooldown}).ScanAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, rep.Completed)

	slack := time.Millisecond
	assert.GreaterOrEqual(t, orc.times[0].Sub(start), cooldown-slack, "first call waits too")
	for i := 1; i < len(orc.times); i++ {
		assert.GreaterOrEqual(t, orc.times[i].Sub(orc.times[i-1]), cooldown-slack)
	}
}

func TestScan_CooldownRespectsCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	orc := newFakeOracle()
	_, err := New(store.New(), orc, Options{Cooldown: time.Hour}).ScanAll(ctx)
	require.Error(t, err)

	var serr *ScanError
	assert.True(t, errors.As(err, &serr))
	assert.Empty(t, orc.Calls())
}

func TestEstimate(t *testing.T) {
	assert.Equal(t, 10*450*time.Millisecond, Estimate(10, DefaultCooldown))
	assert.Zero(t, Estimate(0, DefaultCooldown))
}

func weatherOracle() *fakeOracle {
	return newFakeOracle().
		on("Water", "Fire", oracle.Produced("Steam", "💨", true)).
		on("Steam", "Wind", oracle.Produced("Cloud", "☁️", false))
}

func TestScanPasses_UntilStable(t *testing.T) {
	st := store.New()
	orc := weatherOracle()
	var perPass []Report

	rep, err := New(st, orc, Options{RememberNothing: true}).
		ScanPasses(context.Background(), 0, func(r Report) error {
			perPass = append(perPass, r)
			return nil
		})
	require.NoError(t, err)

	require.Len(t, perPass, 3)
	assert.Equal(t, []int{10, 5, 6}, []int{perPass[0].Candidates, perPass[1].Candidates, perPass[2].Candidates})
	assert.Equal(t, 3, rep.Passes)
	assert.Equal(t, 21, rep.Candidates)
	assert.Equal(t, 2, rep.Discovered)
	assert.Equal(t, []string{"Steam", "Cloud"}, rep.NewItems)
	assert.Equal(t, perPass[0].ScanID, rep.ScanID)

	// The second pass combines Steam with the seeds and itself.
	calls := orc.Calls()
	require.Len(t, calls, 21)
	for _, p := range calls[10:15] {
		assert.True(t, p.First == "Steam" || p.Second == "Steam", "second pass call %s", p)
	}
	assert.True(t, st.ContainsPair("Cloud", "Steam", "Wind"))
}

func TestScanPasses_MaxPasses(t *testing.T) {
	st := store.New()
	orc := weatherOracle()

	rep, err := New(st, orc, Options{RememberNothing: true}).ScanPasses(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Passes)
	assert.Equal(t, 5, st.Len())
	assert.Len(t, orc.Calls(), 10)
}

func TestScanPasses_AfterPassErrorStops(t *testing.T) {
	boom := errors.New("disk full")
	orc := weatherOracle()

	rep, err := New(store.New(), orc, Options{RememberNothing: true}).
		ScanPasses(context.Background(), 0, func(Report) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, rep.Passes)
	assert.Len(t, orc.Calls(), 10)
}

func TestScanPasses_AbortInLaterPass(t *testing.T) {
	st := store.New()
	orc := weatherOracle().on("Earth", "Steam", forbidden())
	saver := &fakeSaver{}

	rep, err := New(st, orc, Options{RememberNothing: true, Saver: saver}).ScanPasses(context.Background(), 0, nil)
	var serr *ScanError
	require.True(t, errors.As(err, &serr), "got %v", err)
	assert.Equal(t, item.Canonical("Earth", "Steam"), serr.Pair)
	assert.Equal(t, 2, rep.Passes)
	assert.Equal(t, 10, rep.Completed)
	assert.Len(t, saver.saves, 1)
}
