package feature

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
	"github.com/Tom21-xd/Uceva-sub002/internal/state"
)

// CaseReader single-case endpoints (api.CaseService).
type CaseReader interface {
	Get(ctx context.Context, id int) (models.Case, error)
	Update(ctx context.Context, id int, req models.UpdateCaseRequest) (models.Case, error)
}

// EvolutionReader evolution listing (api.EvolutionService).
type EvolutionReader interface {
	ListByCase(ctx context.Context, caseID int) ([]models.CaseEvolution, error)
}

// CaseRecord a case with its clinical follow-up in trend order.
type CaseRecord struct {
	Case       models.Case
	Evolutions []models.CaseEvolution
}

// AlarmSigns reports whether the latest evolution shows any warning sign.
func (r CaseRecord) AlarmSigns() bool {
	if len(r.Evolutions) == 0 {
		return false
	}
	return r.Evolutions[len(r.Evolutions)-1].HasAlarmSigns()
}

// CaseDetailState snapshot of one case screen.
type CaseDetailState struct {
	CaseID int
	Record state.Resource[CaseRecord]
	Saving state.Resource[models.Case]
	Errors ValidationErrors
}

var (
	caseRecordLens = state.Lens[CaseDetailState, CaseRecord]{
		Get: func(s CaseDetailState) state.Resource[CaseRecord] { return s.Record },
		Set: func(s CaseDetailState, r state.Resource[CaseRecord]) CaseDetailState { s.Record = r; return s },
	}
	caseSavingLens = state.Lens[CaseDetailState, models.Case]{
		Get: func(s CaseDetailState) state.Resource[models.Case] { return s.Saving },
		Set: func(s CaseDetailState, r state.Resource[models.Case]) CaseDetailState { s.Saving = r; return s },
	}
)

// CaseDetail one case and its evolutions.
type CaseDetail struct {
	holder[CaseDetailState]
	cases      CaseReader
	evolutions EvolutionReader
}

func NewCaseDetail(parent context.Context, caseID int, cases CaseReader, evolutions EvolutionReader, logger *zap.Logger) *CaseDetail {
	return &CaseDetail{
		holder:     newHolder(parent, CaseDetailState{CaseID: caseID}, logger, "case_detail"),
		cases:      cases,
		evolutions: evolutions,
	}
}

// Refresh fetches the case and its evolutions concurrently.
func (d *CaseDetail) Refresh(ctx context.Context) error {
	id := d.State().CaseID
	return load(ctx, d.holder, caseRecordLens, "case_record", func(ctx context.Context) (CaseRecord, error) {
		var rec CaseRecord
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			rec.Case, err = d.cases.Get(gctx, id)
			return err
		})
		g.Go(func() (err error) {
			rec.Evolutions, err = d.evolutions.ListByCase(gctx, id)
			return err
		})
		if err := g.Wait(); err != nil {
			return CaseRecord{}, err
		}
		models.SortEvolutions(rec.Evolutions)
		return rec, nil
	}, nil)
}

// UpdateStatus changes the case state and description.
func (d *CaseDetail) UpdateStatus(ctx context.Context, stateID int, description string) error {
	errs := ValidationErrors{}
	if stateID <= 0 {
		errs.add("estado", "Seleccione un estado")
	}
	errs.required("descripcion", description)
	d.store.Update(func(s CaseDetailState) CaseDetailState {
		s.Errors = errs
		return s
	})
	if err := errs.err(); err != nil {
		return err
	}

	id := d.State().CaseID
	req := models.UpdateCaseRequest{StateID: stateID, Description: strings.TrimSpace(description)}
	return load(ctx, d.holder, caseSavingLens, "update_case", func(ctx context.Context) (models.Case, error) {
		return d.cases.Update(ctx, id, req)
	}, func(s CaseDetailState, updated models.Case) CaseDetailState {
		s.Record.Data.Case = updated
		return s
	})
}

// AddEvolution inserts a newly created evolution keeping trend order.
func (d *CaseDetail) AddEvolution(e models.CaseEvolution) {
	d.store.Update(func(s CaseDetailState) CaseDetailState {
		evs := make([]models.CaseEvolution, 0, len(s.Record.Data.Evolutions)+1)
		evs = append(evs, s.Record.Data.Evolutions...)
		evs = append(evs, e)
		models.SortEvolutions(evs)
		s.Record.Data.Evolutions = evs
		return s
	})
}
