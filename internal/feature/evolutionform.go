package feature

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
	"github.com/Tom21-xd/Uceva-sub002/internal/state"
)

// EvolutionWriter evolution creation (api.EvolutionService).
type EvolutionWriter interface {
	Create(ctx context.Context, req models.EvolutionRequest) (models.CaseEvolution, error)
}

// EvolutionFormState snapshot of the clinical follow-up form.
type EvolutionFormState struct {
	Draft     models.EvolutionRequest
	Errors    ValidationErrors
	Submitted state.Resource[models.CaseEvolution]
}

var submittedEvolutionLens = state.Lens[EvolutionFormState, models.CaseEvolution]{
	Get: func(s EvolutionFormState) state.Resource[models.CaseEvolution] { return s.Submitted },
	Set: func(s EvolutionFormState, r state.Resource[models.CaseEvolution]) EvolutionFormState {
		s.Submitted = r
		return s
	},
}

// EvolutionForm daily evolution entry for one case.
type EvolutionForm struct {
	holder[EvolutionFormState]
	evolutions EvolutionWriter
}

func NewEvolutionForm(parent context.Context, caseID int, evolutions EvolutionWriter, logger *zap.Logger) *EvolutionForm {
	f := &EvolutionForm{evolutions: evolutions}
	f.holder = newHolder(parent, EvolutionFormState{}, logger, "evolution_form")
	f.store.Update(func(s EvolutionFormState) EvolutionFormState {
		s.Draft.CaseID = caseID
		s.Draft.IllnessDay = 1
		s.Draft.Date = f.now()
		return s
	})
	return f
}

// Edit applies a synchronous change to the draft.
func (f *EvolutionForm) Edit(fn func(*models.EvolutionRequest)) {
	f.store.Update(func(s EvolutionFormState) EvolutionFormState {
		d := s.Draft
		fn(&d)
		s.Draft = d
		return s
	})
}

// Validate range-checks the draft and stores the field errors in state.
func (f *EvolutionForm) Validate() error {
	errs := validateEvolution(f.State().Draft, f.now())
	f.store.Update(func(s EvolutionFormState) EvolutionFormState {
		s.Errors = errs
		return s
	})
	return errs.err()
}

// Submit validates and creates the evolution.
func (f *EvolutionForm) Submit(ctx context.Context) (models.CaseEvolution, error) {
	if err := f.Validate(); err != nil {
		return models.CaseEvolution{}, err
	}
	req := f.State().Draft
	req.Observations = strings.TrimSpace(req.Observations)
	if err := load(ctx, f.holder, submittedEvolutionLens, "create_evolution", func(ctx context.Context) (models.CaseEvolution, error) {
		return f.evolutions.Create(ctx, req)
	}, nil); err != nil {
		return models.CaseEvolution{}, err
	}
	return f.State().Submitted.Data, nil
}

type floatRange struct {
	field    string
	value    *float64
	min, max float64
}

type intRange struct {
	field    string
	value    *int
	min, max int
}

func validateEvolution(d models.EvolutionRequest, now time.Time) ValidationErrors {
	errs := ValidationErrors{}
	if d.CaseID <= 0 {
		errs.add("caso", "Caso no seleccionado")
	}
	if d.IllnessDay < 1 || d.IllnessDay > 60 {
		errs.add("diaEnfermedad", "Debe estar entre 1 y 60")
	}
	if d.Date.IsZero() {
		errs.add("fechaEvolucion", "Campo obligatorio")
	} else if d.Date.After(now) {
		errs.add("fechaEvolucion", "La fecha no puede ser futura")
	}

	for _, r := range []floatRange{
		{"temperatura", d.Temperature, 30, 45},
		{"saturacionOxigeno", d.OxygenSat, 0, 100},
		{"plaquetas", d.Platelets, 0, 2_000_000},
		{"hematocrito", d.Hematocrit, 0, 100},
		{"hemoglobina", d.Hemoglobin, 0, 30},
		{"leucocitos", d.Leukocytes, 0, 200_000},
	} {
		if r.value != nil && (*r.value < r.min || *r.value > r.max) {
			errs.add(r.field, fmt.Sprintf("Debe estar entre %g y %g", r.min, r.max))
		}
	}
	for _, r := range []intRange{
		{"frecuenciaCardiaca", d.HeartRate, 20, 250},
		{"frecuenciaRespiratoria", d.RespiratoryRate, 5, 80},
		{"presionSistolica", d.SystolicBP, 40, 300},
		{"presionDiastolica", d.DiastolicBP, 20, 200},
	} {
		if r.value != nil && (*r.value < r.min || *r.value > r.max) {
			errs.add(r.field, fmt.Sprintf("Debe estar entre %d y %d", r.min, r.max))
		}
	}
	if d.SystolicBP != nil && d.DiastolicBP != nil && *d.DiastolicBP >= *d.SystolicBP {
		errs.add("presionDiastolica", "Debe ser menor que la sistólica")
	}
	return errs
}
