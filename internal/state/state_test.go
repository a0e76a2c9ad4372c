package state_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/state"
)

type listState struct {
	Items state.Resource[[]string]
	Count int
}

var itemsLens = state.Lens[listState, []string]{
	Get: func(s listState) state.Resource[[]string] { return s.Items },
	Set: func(s listState, r state.Resource[[]string]) listState { s.Items = r; return s },
}

func hooks() state.Hooks { return state.Hooks{Name: "items", Logger: zap.NewNop()} }

func TestLoad_SuccessPublishesDataAndClearsBusy(t *testing.T) {
	st := state.NewStore(listState{})

	err := state.Load(context.Background(), st, itemsLens,
		func(context.Context) ([]string, error) { return []string{"a", "b"}, nil },
		hooks(),
		func(s listState, items []string) listState { s.Count = len(items); return s },
	)
	require.NoError(t, err)

	snap := st.Snapshot()
	assert.Equal(t, state.Success, snap.Items.Status)
	assert.False(t, snap.Items.Busy)
	assert.Equal(t, []string{"a", "b"}, snap.Items.Data)
	assert.Equal(t, 2, snap.Count)
}

func TestLoad_ErrorStoresMessage(t *testing.T) {
	st := state.NewStore(listState{})
	h := hooks()
	h.Message = func(error) string { return "sin conexión" }

	err := state.Load(context.Background(), st, itemsLens,
		func(context.Context) ([]string, error) { return nil, errors.New("dial tcp: refused") },
		h, nil)
	require.Error(t, err)

	snap := st.Snapshot()
	assert.Equal(t, state.Error, snap.Items.Status)
	assert.Equal(t, "sin conexión", snap.Items.Err)
	assert.False(t, snap.Items.Busy)
}

func TestLoad_ConcurrentRefreshNeverLeavesBusyStuck(t *testing.T) {
	st := state.NewStore(listState{})
	release := make(chan struct{})
	entered := make(chan struct{})
	calls := 0
	var mu sync.Mutex

	fetch := func(context.Context) ([]string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(entered)
		<-release
		return []string{"x"}, nil
	}

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = state.Load(context.Background(), st, itemsLens, fetch, hooks(), nil)
	}()
	<-entered

	assert.True(t, st.Snapshot().Items.Busy)
	assert.Equal(t, state.Loading, st.Snapshot().Items.Status)

	secondErr := state.Load(context.Background(), st, itemsLens, fetch, hooks(), nil)
	assert.ErrorIs(t, secondErr, state.ErrBusy)

	close(release)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.Equal(t, 1, calls)
	assert.False(t, st.Snapshot().Items.Busy)

	// a later refresh is accepted again
	err := state.Load(context.Background(), st, itemsLens,
		func(context.Context) ([]string, error) { return []string{"y"}, nil }, hooks(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, st.Snapshot().Items.Data)
}

func TestLoadWith_BeginSkippedWhileBusy(t *testing.T) {
	st := state.NewStore(listState{})
	release := make(chan struct{})
	entered := make(chan struct{})
	setCount := func(n int) func(listState) listState {
		return func(s listState) listState { s.Count = n; return s }
	}

	done := make(chan error, 1)
	go func() {
		done <- state.LoadWith(context.Background(), st, itemsLens, setCount(1),
			func(context.Context) ([]string, error) {
				close(entered)
				<-release
				return []string{"a"}, nil
			}, hooks(), nil)
	}()
	<-entered
	snap := st.Snapshot()
	assert.Equal(t, 1, snap.Count, "begin lands with the busy flag")
	assert.True(t, snap.Items.Busy)

	err := state.LoadWith(context.Background(), st, itemsLens, setCount(2),
		func(context.Context) ([]string, error) { return nil, nil }, hooks(), nil)
	assert.ErrorIs(t, err, state.ErrBusy)
	assert.Equal(t, 1, st.Snapshot().Count)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, st.Snapshot().Items.Busy)
}

func TestLoad_PanicClearsBusy(t *testing.T) {
	st := state.NewStore(listState{})

	assert.Panics(t, func() {
		_ = state.Load(context.Background(), st, itemsLens,
			func(context.Context) ([]string, error) { panic("boom") }, hooks(), nil)
	})

	snap := st.Snapshot()
	assert.False(t, snap.Items.Busy)
	assert.Equal(t, state.Error, snap.Items.Status)
}

func TestStore_SubscribeReceivesLatest(t *testing.T) {
	st := state.NewStore(listState{Count: 1})
	ctx, cancel := context.WithCancel(context.Background())

	ch := st.Subscribe(ctx)
	first := <-ch
	assert.Equal(t, 1, first.Count)

	st.Update(func(s listState) listState { s.Count = 2; return s })
	st.Update(func(s listState) listState { s.Count = 3; return s })

	select {
	case got := <-ch:
		assert.Equal(t, 3, got.Count)
	case <-time.After(time.Second):
		t.Fatal("no snapshot received")
	}

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestStore_TryUpdateNoChange(t *testing.T) {
	st := state.NewStore(listState{})
	changed := st.TryUpdate(func(s listState) (listState, bool) { return s, false })
	assert.False(t, changed)
	changed = st.TryUpdate(func(s listState) (listState, bool) { s.Count = 9; return s, true })
	assert.True(t, changed)
	assert.Equal(t, 9, st.Snapshot().Count)
}

func TestPager_FortyFiveItemsPageSizeTwenty(t *testing.T) {
	items := make([]int, 45)
	for i := range items {
		items[i] = i
	}
	p := state.NewPager[int](20).Reset(items)
	assert.Len(t, p.Visible(), 20)
	assert.True(t, p.HasMore())

	p = p.LoadMore()
	assert.Len(t, p.Visible(), 40)
	assert.True(t, p.HasMore())

	p = p.LoadMore()
	assert.Len(t, p.Visible(), 45)
	assert.False(t, p.HasMore())

	p = p.LoadMore()
	assert.Len(t, p.Visible(), 45)
	assert.Equal(t, 45, p.Total())
}

func TestPager_ResetRewinds(t *testing.T) {
	p := state.NewPager[string](2).Reset([]string{"a", "b", "c"}).LoadMore()
	assert.Len(t, p.Visible(), 3)
	p = p.Reset([]string{"d"})
	assert.Equal(t, []string{"d"}, p.Visible())
	assert.False(t, p.HasMore())

	empty := state.NewPager[string](0)
	assert.Equal(t, 20, empty.PageSize())
	assert.Empty(t, empty.Visible())
}

func TestScope_DisposeCancelsBoundWork(t *testing.T) {
	sc := state.NewScope(context.Background())
	ctx, cancel := sc.Bind(context.Background())
	defer cancel()

	stopped := make(chan struct{})
	sc.Go(func(ctx context.Context) {
		<-ctx.Done()
		close(stopped)
	})

	sc.Dispose()
	<-stopped
	assert.Error(t, ctx.Err())
	assert.True(t, sc.Done())
}
