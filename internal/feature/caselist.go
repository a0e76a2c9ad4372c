package feature

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
	"github.com/Tom21-xd/Uceva-sub002/internal/state"
)

// CaseSource case endpoints used by the case list (api.CaseService).
type CaseSource interface {
	List(ctx context.Context) ([]models.Case, error)
	States(ctx context.Context) ([]models.CaseState, error)
	DengueTypes(ctx context.Context) ([]models.DengueType, error)
}

// CaseCatalog the three lists fetched together for the case list screen.
type CaseCatalog struct {
	Cases       []models.Case
	States      []models.CaseState
	DengueTypes []models.DengueType
}

// CaseListState snapshot of the case list.
type CaseListState struct {
	Catalog       state.Resource[CaseCatalog]
	Filter        string
	FilterOptions []string
	Page          state.Pager[models.Case]
	LastEvent     *models.CaseEvent
}

var caseCatalogLens = state.Lens[CaseListState, CaseCatalog]{
	Get: func(s CaseListState) state.Resource[CaseCatalog] { return s.Catalog },
	Set: func(s CaseListState, r state.Resource[CaseCatalog]) CaseListState { s.Catalog = r; return s },
}

// CaseList case list with state filter and client-side paging.
type CaseList struct {
	holder[CaseListState]
	src   CaseSource
	stale atomic.Bool // an event arrived while a refresh was in flight
}

func NewCaseList(parent context.Context, src CaseSource, pageSize int, logger *zap.Logger) *CaseList {
	initial := CaseListState{
		Filter:        models.CaseStateAll,
		FilterOptions: []string{models.CaseStateAll},
		Page:          state.NewPager[models.Case](pageSize),
	}
	return &CaseList{holder: newHolder(parent, initial, logger, "case_list"), src: src}
}

// Refresh fetches cases, states and dengue types concurrently and publishes
// them together. Returns state.ErrBusy while a refresh is running.
//
// A refresh that completes while an event is marked stale runs once more, so
// changes the in-flight fetch may have missed are picked up.
func (l *CaseList) Refresh(ctx context.Context) error {
	for {
		err := load(ctx, l.holder, caseCatalogLens, "case_catalog", l.fetchCatalog, func(s CaseListState, c CaseCatalog) CaseListState {
			s.FilterOptions = filterOptions(c.States)
			s.Page = s.Page.Reset(FilterCasesByState(c.Cases, s.Filter))
			return s
		})
		if err != nil || !l.stale.CompareAndSwap(true, false) {
			return err
		}
		l.logger.Debug("Refetching cases for an event received mid-refresh")
	}
}

func (l *CaseList) fetchCatalog(ctx context.Context) (CaseCatalog, error) {
	var c CaseCatalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		c.Cases, err = l.src.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.States, err = l.src.States(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.DengueTypes, err = l.src.DengueTypes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return CaseCatalog{}, err
	}
	return c, nil
}

// SetFilter selects a case state by name and rewinds to the first page.
func (l *CaseList) SetFilter(name string) {
	if name == "" {
		name = models.CaseStateAll
	}
	l.store.Update(func(s CaseListState) CaseListState {
		s.Filter = name
		s.Page = s.Page.Reset(FilterCasesByState(s.Catalog.Data.Cases, name))
		return s
	})
}

// LoadMore reveals the next page.
func (l *CaseList) LoadMore() {
	l.store.Update(func(s CaseListState) CaseListState {
		s.Page = s.Page.LoadMore()
		return s
	})
}

// HasMore reports whether LoadMore would reveal more cases.
func (l *CaseList) HasMore() bool { return l.State().Page.HasMore() }

// Visible cases revealed so far.
func (l *CaseList) Visible() []models.Case { return l.State().Page.Visible() }

// ApplyEvent reacts to a hub event. A deleted case leaves the list at once;
// new and updated cases trigger a refetch. When a refetch is already in flight
// the event is marked stale and that refresh runs again once it completes.
func (l *CaseList) ApplyEvent(ctx context.Context, ev models.CaseEvent) error {
	l.store.Update(func(s CaseListState) CaseListState {
		e := ev
		s.LastEvent = &e
		if ev.Kind == models.EventCaseDeleted {
			cases := lo.Reject(s.Catalog.Data.Cases, func(c models.Case, _ int) bool { return c.ID == ev.CaseID })
			s.Catalog.Data.Cases = cases
			s.Page = keepWindow(s.Page, FilterCasesByState(cases, s.Filter))
		}
		return s
	})
	if ev.Kind == models.EventCaseDeleted {
		return nil
	}
	err := l.Refresh(ctx)
	if !errors.Is(err, state.ErrBusy) {
		return err
	}
	l.stale.Store(true)
	// the in-flight refresh may have finished before it could see the flag
	if !l.State().Catalog.Busy && l.stale.CompareAndSwap(true, false) {
		if err := l.Refresh(ctx); !errors.Is(err, state.ErrBusy) {
			return err
		}
	}
	return nil
}

// FilterCasesByState returns every case for "Todos", otherwise the cases whose
// state name equals name exactly.
func FilterCasesByState(cases []models.Case, name string) []models.Case {
	if name == models.CaseStateAll {
		return cases
	}
	return lo.Filter(cases, func(c models.Case, _ int) bool { return c.StateName == name })
}

func filterOptions(states []models.CaseState) []string {
	names := lo.Map(states, func(s models.CaseState, _ int) string { return s.Name })
	return append([]string{models.CaseStateAll}, lo.Uniq(names)...)
}

// keepWindow replaces the items without collapsing pages the user already revealed.
func keepWindow(p state.Pager[models.Case], items []models.Case) state.Pager[models.Case] {
	shown := len(p.Visible())
	p = p.Reset(items)
	for len(p.Visible()) < shown && p.HasMore() {
		p = p.LoadMore()
	}
	return p
}
