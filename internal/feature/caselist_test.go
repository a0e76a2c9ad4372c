package feature

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/api"
	"github.com/Tom21-xd/Uceva-sub002/internal/models"
	"github.com/Tom21-xd/Uceva-sub002/internal/state"
)

type fakeCases struct {
	mu      sync.Mutex
	cases   []models.Case
	states  []models.CaseState
	listErr error
	gate    chan struct{} // when set, List blocks until it is closed
	calls   int
}

func (f *fakeCases) List(ctx context.Context) ([]models.Case, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cases, f.listErr
}

func (f *fakeCases) States(context.Context) ([]models.CaseState, error) { return f.states, nil }

func (f *fakeCases) DengueTypes(context.Context) ([]models.DengueType, error) {
	return []models.DengueType{{ID: 1, Name: "Dengue grave"}}, nil
}

func (f *fakeCases) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func sampleCases() []models.Case {
	return []models.Case{
		{ID: 1, StateName: "Activo"},
		{ID: 2, StateName: "Recuperado"},
		{ID: 3, StateName: "Activo"},
		{ID: 4, StateName: "activo"},
	}
}

func TestFilterCasesByState(t *testing.T) {
	cases := sampleCases()

	assert.Equal(t, cases, FilterCasesByState(cases, models.CaseStateAll))

	active := FilterCasesByState(cases, "Activo")
	require.Len(t, active, 2)
	assert.Equal(t, 1, active[0].ID)
	assert.Equal(t, 3, active[1].ID)

	assert.Len(t, FilterCasesByState(cases, "activo"), 1)
	assert.Empty(t, FilterCasesByState(cases, "Fallecido"))
}

func TestCaseList_RefreshPublishesCatalogAndFirstPage(t *testing.T) {
	src := &fakeCases{cases: sampleCases(), states: []models.CaseState{{ID: 1, Name: "Activo"}, {ID: 2, Name: "Recuperado"}}}
	l := NewCaseList(context.Background(), src, 2, zap.NewNop())
	defer l.Dispose()

	require.NoError(t, l.Refresh(context.Background()))

	s := l.State()
	assert.Equal(t, state.Success, s.Catalog.Status)
	assert.False(t, s.Catalog.Busy)
	assert.Len(t, s.Catalog.Data.DengueTypes, 1)
	assert.Equal(t, []string{"Todos", "Activo", "Recuperado"}, s.FilterOptions)
	assert.Len(t, l.Visible(), 2)
	assert.True(t, l.HasMore())

	l.SetFilter("Activo")
	assert.Len(t, l.Visible(), 2)
	assert.False(t, l.HasMore())
}

func TestCaseList_PagesFilteredSet(t *testing.T) {
	var cases []models.Case
	for i := 1; i <= 60; i++ {
		name := "Activo"
		if i > 45 {
			name = "Recuperado"
		}
		cases = append(cases, models.Case{ID: i, StateName: name})
	}
	l := NewCaseList(context.Background(), &fakeCases{cases: cases}, 20, zap.NewNop())
	defer l.Dispose()
	require.NoError(t, l.Refresh(context.Background()))
	l.SetFilter("Activo")

	assert.Len(t, l.Visible(), 20)
	assert.True(t, l.HasMore())
	l.LoadMore()
	assert.Len(t, l.Visible(), 40)
	assert.True(t, l.HasMore())
	l.LoadMore()
	assert.Len(t, l.Visible(), 45)
	assert.False(t, l.HasMore())
}

func TestCaseList_ConcurrentRefreshNeverSticksBusy(t *testing.T) {
	src := &fakeCases{cases: sampleCases(), gate: make(chan struct{})}
	l := NewCaseList(context.Background(), src, 20, zap.NewNop())
	defer l.Dispose()

	first := make(chan error, 1)
	go func() { first <- l.Refresh(context.Background()) }()
	require.Eventually(t, func() bool { return l.State().Catalog.Busy }, time.Second, time.Millisecond)

	assert.ErrorIs(t, l.Refresh(context.Background()), state.ErrBusy)

	close(src.gate)
	require.NoError(t, <-first)
	assert.False(t, l.State().Catalog.Busy)
	assert.Equal(t, 1, src.Calls())

	require.NoError(t, l.Refresh(context.Background()))
	assert.False(t, l.State().Catalog.Busy)
}

func TestCaseList_ErrorBecomesUserMessage(t *testing.T) {
	src := &fakeCases{listErr: fmt.Errorf("%w: GET /Case: refused", api.ErrNetwork)}
	l := NewCaseList(context.Background(), src, 20, zap.NewNop())
	defer l.Dispose()

	err := l.Refresh(context.Background())
	require.ErrorIs(t, err, api.ErrNetwork)
	s := l.State()
	assert.Equal(t, state.Error, s.Catalog.Status)
	assert.Contains(t, s.Catalog.Err, "No se pudo conectar")
	assert.False(t, s.Catalog.Busy)
}

func TestCaseList_DisposeCancelsInFlightRefresh(t *testing.T) {
	src := &fakeCases{gate: make(chan struct{})}
	l := NewCaseList(context.Background(), src, 20, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- l.Refresh(context.Background()) }()
	require.Eventually(t, func() bool { return l.State().Catalog.Busy }, time.Second, time.Millisecond)

	l.Dispose()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("refresh did not stop after Dispose")
	}
	assert.False(t, l.State().Catalog.Busy)
}

func TestCaseList_ApplyEvent(t *testing.T) {
	src := &fakeCases{cases: sampleCases()}
	l := NewCaseList(context.Background(), src, 20, zap.NewNop())
	defer l.Dispose()
	require.NoError(t, l.Refresh(context.Background()))

	require.NoError(t, l.ApplyEvent(context.Background(), models.CaseEvent{Kind: models.EventCaseDeleted, CaseID: 2}))
	assert.Len(t, l.Visible(), 3)
	assert.Equal(t, 1, src.Calls())
	require.NotNil(t, l.State().LastEvent)

	src.mu.Lock()
	src.cases = append(sampleCases(), models.Case{ID: 9, StateName: "Activo"})
	src.mu.Unlock()
	require.NoError(t, l.ApplyEvent(context.Background(), models.CaseEvent{Kind: models.EventNewCase, CaseID: 9}))
	assert.Len(t, l.Visible(), 5)
	assert.Equal(t, 2, src.Calls())
}

func TestCaseList_EventDuringRefreshRefetches(t *testing.T) {
	src := &fakeCases{cases: sampleCases(), gate: make(chan struct{})}
	l := NewCaseList(context.Background(), src, 20, zap.NewNop())
	defer l.Dispose()

	first := make(chan error, 1)
	go func() { first <- l.Refresh(context.Background()) }()
	require.Eventually(t, func() bool { return l.State().Catalog.Busy }, time.Second, time.Millisecond)

	require.NoError(t, l.ApplyEvent(context.Background(), models.CaseEvent{Kind: models.EventNewCase, CaseID: 9}))
	assert.Equal(t, 1, src.Calls())

	src.mu.Lock()
	src.cases = append(sampleCases(), models.Case{ID: 9, StateName: "Activo"})
	src.mu.Unlock()
	close(src.gate)

	require.NoError(t, <-first)
	assert.Equal(t, 2, src.Calls())
	assert.Len(t, l.Visible(), 5)
	assert.False(t, l.State().Catalog.Busy)

	require.NoError(t, l.Refresh(context.Background()))
	assert.Equal(t, 3, src.Calls(), "flag is consumed by the rerun")
}

func TestCaseList_OverHTTP(t *testing.T) {
	r := chi.NewRouter()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	r.Get("/Case", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"id": 1, "nombreEstadoCaso": "Activo"},
			{"id": 2, "nombreEstadoCaso": "Recuperado"},
		})
	})
	r.Get("/Case/states", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{"id": 1, "nombre": "Activo"}})
	})
	r.Get("/Case/dengue-types", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	client := api.NewClient(api.Options{BaseURL: srv.URL, Timeout: time.Second}, zap.NewNop())
	l := NewCaseList(context.Background(), api.NewCaseService(client), 20, zap.NewNop())
	defer l.Dispose()

	require.NoError(t, l.Refresh(context.Background()))
	l.SetFilter("Recuperado")
	require.Len(t, l.Visible(), 1)
	assert.Equal(t, 2, l.Visible()[0].ID)
}

func TestHolder_SubscribeEndsOnDispose(t *testing.T) {
	l := NewCaseList(context.Background(), &fakeCases{}, 20, zap.NewNop())
	ch := l.Subscribe(context.Background())
	first := <-ch
	assert.Equal(t, models.CaseStateAll, first.Filter)

	l.Dispose()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}
