package feature

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
	"github.com/Tom21-xd/Uceva-sub002/internal/state"
)

// Catalog sources for the case form (api.LocationService, api.HospitalService,
// api.CaseService).
type (
	LocationSource interface {
		Departments(ctx context.Context) ([]models.Department, error)
		Cities(ctx context.Context, departmentID int) ([]models.City, error)
	}
	HospitalSource interface {
		ListByCity(ctx context.Context, cityID int) ([]models.Hospital, error)
	}
	CaseWriter interface {
		DengueTypes(ctx context.Context) ([]models.DengueType, error)
		Create(ctx context.Context, req models.CreateCaseRequest) (models.Case, error)
	}
)

// Case form field names accepted by SetField.
const (
	CaseFieldDescription = "descripcion"
	CaseFieldPatient     = "paciente"
	CaseFieldHospital    = "hospital"
	CaseFieldDengueType  = "tipo_dengue"
	CaseFieldClinician   = "personal_medico"
	CaseFieldAddress     = "direccion"
	CaseFieldLatitude    = "latitud"
	CaseFieldLongitude   = "longitud"
	CaseFieldDepartment  = "departamento"
	CaseFieldCity        = "municipio"
)

// CaseDraft raw form input, parsed on Validate.
type CaseDraft struct {
	Description  string
	PatientID    string
	HospitalID   string
	DengueTypeID string
	ClinicianID  string
	Address      string
	Latitude     string
	Longitude    string
	DepartmentID int
	CityID       int
}

// CaseFormState snapshot of the case creation form.
type CaseFormState struct {
	Draft       CaseDraft
	Errors      ValidationErrors
	Departments state.Resource[[]models.Department]
	Cities      state.Resource[[]models.City]
	Hospitals   state.Resource[[]models.Hospital]
	DengueTypes state.Resource[[]models.DengueType]
	Submitted   state.Resource[models.Case]
}

var (
	departmentsLens = state.Lens[CaseFormState, []models.Department]{
		Get: func(s CaseFormState) state.Resource[[]models.Department] { return s.Departments },
		Set: func(s CaseFormState, r state.Resource[[]models.Department]) CaseFormState { s.Departments = r; return s },
	}
	citiesLens = state.Lens[CaseFormState, []models.City]{
		Get: func(s CaseFormState) state.Resource[[]models.City] { return s.Cities },
		Set: func(s CaseFormState, r state.Resource[[]models.City]) CaseFormState { s.Cities = r; return s },
	}
	hospitalsLens = state.Lens[CaseFormState, []models.Hospital]{
		Get: func(s CaseFormState) state.Resource[[]models.Hospital] { return s.Hospitals },
		Set: func(s CaseFormState, r state.Resource[[]models.Hospital]) CaseFormState { s.Hospitals = r; return s },
	}
	dengueTypesLens = state.Lens[CaseFormState, []models.DengueType]{
		Get: func(s CaseFormState) state.Resource[[]models.DengueType] { return s.DengueTypes },
		Set: func(s CaseFormState, r state.Resource[[]models.DengueType]) CaseFormState { s.DengueTypes = r; return s },
	}
	submittedCaseLens = state.Lens[CaseFormState, models.Case]{
		Get: func(s CaseFormState) state.Resource[models.Case] { return s.Submitted },
		Set: func(s CaseFormState, r state.Resource[models.Case]) CaseFormState { s.Submitted = r; return s },
	}
)

// CaseForm case creation form with cascading location catalogs.
type CaseForm struct {
	holder[CaseFormState]
	locations LocationSource
	hospitals HospitalSource
	cases     CaseWriter
}

func NewCaseForm(parent context.Context, locations LocationSource, hospitals HospitalSource, cases CaseWriter, logger *zap.Logger) *CaseForm {
	return &CaseForm{
		holder:    newHolder(parent, CaseFormState{}, logger, "case_form"),
		locations: locations,
		hospitals: hospitals,
		cases:     cases,
	}
}

// LoadCatalogs fetches departments and dengue types concurrently.
func (f *CaseForm) LoadCatalogs(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return load(gctx, f.holder, departmentsLens, "departments", f.locations.Departments, nil)
	})
	g.Go(func() error {
		return load(gctx, f.holder, dengueTypesLens, "dengue_types", f.cases.DengueTypes, nil)
	})
	return g.Wait()
}

// SetField edits one text field. Unknown fields are rejected.
func (f *CaseForm) SetField(field, value string) error {
	var err error
	f.store.Update(func(s CaseFormState) CaseFormState {
		d := &s.Draft
		switch field {
		case CaseFieldDescription:
			d.Description = value
		case CaseFieldPatient:
			d.PatientID = value
		case CaseFieldHospital:
			d.HospitalID = value
		case CaseFieldDengueType:
			d.DengueTypeID = value
		case CaseFieldClinician:
			d.ClinicianID = value
		case CaseFieldAddress:
			d.Address = value
		case CaseFieldLatitude:
			d.Latitude = value
		case CaseFieldLongitude:
			d.Longitude = value
		default:
			err = fmt.Errorf("unknown case form field %q", field)
			return s
		}
		if _, had := s.Errors[field]; had {
			s.Errors = withoutField(s.Errors, field)
		}
		return s
	})
	return err
}

// SelectDepartment sets the department, clears the dependent selections and
// fetches its cities. While a cities fetch is in flight the selection is
// refused with state.ErrBusy and the draft is left as it was.
func (f *CaseForm) SelectDepartment(ctx context.Context, departmentID int) error {
	return loadWith(ctx, f.holder, citiesLens, "cities", func(s CaseFormState) CaseFormState {
		s.Draft.DepartmentID = departmentID
		s.Draft.CityID = 0
		s.Draft.HospitalID = ""
		s.Cities = state.Resource[[]models.City]{}
		s.Hospitals = state.Resource[[]models.Hospital]{Busy: s.Hospitals.Busy}
		return s
	}, func(ctx context.Context) ([]models.City, error) {
		return f.locations.Cities(ctx, departmentID)
	}, func(s CaseFormState, _ []models.City) CaseFormState {
		// the list only stands for the department it was fetched for
		if s.Draft.DepartmentID != departmentID {
			s.Cities = state.Resource[[]models.City]{}
		}
		return s
	})
}

// SelectCity sets the city and fetches its hospitals. Refused with
// state.ErrBusy while a hospitals fetch is in flight.
func (f *CaseForm) SelectCity(ctx context.Context, cityID int) error {
	return loadWith(ctx, f.holder, hospitalsLens, "hospitals", func(s CaseFormState) CaseFormState {
		s.Draft.CityID = cityID
		s.Draft.HospitalID = ""
		s.Hospitals = state.Resource[[]models.Hospital]{}
		return s
	}, func(ctx context.Context) ([]models.Hospital, error) {
		return f.hospitals.ListByCity(ctx, cityID)
	}, func(s CaseFormState, _ []models.Hospital) CaseFormState {
		if s.Draft.CityID != cityID {
			s.Hospitals = state.Resource[[]models.Hospital]{}
		}
		return s
	})
}

// Validate checks the draft and stores the field errors in state.
func (f *CaseForm) Validate() (models.CreateCaseRequest, error) {
	d := f.State().Draft
	req, errs := parseCaseDraft(d)
	f.store.Update(func(s CaseFormState) CaseFormState {
		s.Errors = errs
		return s
	})
	return req, errs.err()
}

// Submit validates and creates the case. Invalid input never reaches the backend.
func (f *CaseForm) Submit(ctx context.Context) (models.Case, error) {
	req, err := f.Validate()
	if err != nil {
		return models.Case{}, err
	}
	if err := load(ctx, f.holder, submittedCaseLens, "create_case", func(ctx context.Context) (models.Case, error) {
		return f.cases.Create(ctx, req)
	}, nil); err != nil {
		return models.Case{}, err
	}
	created := f.State().Submitted.Data
	f.logger.Info("Case created", zap.Int("case_id", created.ID))
	return created, nil
}

func parseCaseDraft(d CaseDraft) (models.CreateCaseRequest, ValidationErrors) {
	errs := ValidationErrors{}
	errs.required(CaseFieldDescription, d.Description)
	req := models.CreateCaseRequest{
		Description: strings.TrimSpace(d.Description),
		Address:     strings.TrimSpace(d.Address),
	}
	req.PatientID = requiredID(errs, CaseFieldPatient, d.PatientID)
	req.HospitalID = requiredID(errs, CaseFieldHospital, d.HospitalID)
	req.DengueTypeID = requiredID(errs, CaseFieldDengueType, d.DengueTypeID)
	if strings.TrimSpace(d.ClinicianID) != "" {
		if id := requiredID(errs, CaseFieldClinician, d.ClinicianID); id > 0 {
			req.ClinicianID = &id
		}
	}
	req.Latitude = optionalCoord(errs, CaseFieldLatitude, d.Latitude, 90)
	req.Longitude = optionalCoord(errs, CaseFieldLongitude, d.Longitude, 180)
	if (req.Latitude == nil) != (req.Longitude == nil) && errs[CaseFieldLatitude] == "" && errs[CaseFieldLongitude] == "" {
		errs.add(CaseFieldLatitude, "Indique latitud y longitud juntas")
	}
	return req, errs
}

func requiredID(errs ValidationErrors, field, raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		errs.add(field, "Campo obligatorio")
		return 0
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		errs.add(field, "Seleccione un valor válido")
		return 0
	}
	return id
}

func optionalCoord(errs ValidationErrors, field, raw string, limit float64) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil || v < -limit || v > limit {
		errs.add(field, fmt.Sprintf("Debe ser un número entre %g y %g", -limit, limit))
		return nil
	}
	return &v
}

func withoutField(errs ValidationErrors, field string) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for k, v := range errs {
		if k != field {
			out[k] = v
		}
	}
	return out
}
