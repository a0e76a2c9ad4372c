package api

import (
	"context"
	"strconv"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

// CaseService /Case
type CaseService struct{ c *Client }

func NewCaseService(c *Client) *CaseService { return &CaseService{c: c} }

func (s *CaseService) List(ctx context.Context) ([]models.Case, error) {
	return Do[[]models.Case](ctx, s.c, Get("/Case"))
}

func (s *CaseService) Get(ctx context.Context, id int) (models.Case, error) {
	return Do[models.Case](ctx, s.c, Get("/Case/{id}").With("id", id))
}

func (s *CaseService) ListByHospital(ctx context.Context, hospitalID int) ([]models.Case, error) {
	return Do[[]models.Case](ctx, s.c, Get("/Case/hospital/{id}").With("id", hospitalID))
}

func (s *CaseService) ListByPatient(ctx context.Context, patientID int) ([]models.Case, error) {
	return Do[[]models.Case](ctx, s.c, Get("/Case/patient/{id}").With("id", patientID))
}

func (s *CaseService) Create(ctx context.Context, req models.CreateCaseRequest) (models.Case, error) {
	return Do[models.Case](ctx, s.c, Post("/Case", req))
}

func (s *CaseService) Update(ctx context.Context, id int, req models.UpdateCaseRequest) (models.Case, error) {
	return Do[models.Case](ctx, s.c, Put("/Case/{id}", req).With("id", id))
}

// Delete asks the backend to deactivate the case; nothing is hard-deleted.
func (s *CaseService) Delete(ctx context.Context, id int) error {
	return s.c.Exec(ctx, Delete("/Case/{id}").With("id", id))
}

func (s *CaseService) States(ctx context.Context) ([]models.CaseState, error) {
	return Do[[]models.CaseState](ctx, s.c, Get("/Case/states"))
}

func (s *CaseService) DengueTypes(ctx context.Context) ([]models.DengueType, error) {
	return Do[[]models.DengueType](ctx, s.c, Get("/Case/dengue-types"))
}

// EvolutionService /CaseEvolution
type EvolutionService struct{ c *Client }

func NewEvolutionService(c *Client) *EvolutionService { return &EvolutionService{c: c} }

func (s *EvolutionService) ListByCase(ctx context.Context, caseID int) ([]models.CaseEvolution, error) {
	return Do[[]models.CaseEvolution](ctx, s.c, Get("/CaseEvolution/case/{id}").With("id", caseID))
}

func (s *EvolutionService) Get(ctx context.Context, id int) (models.CaseEvolution, error) {
	return Do[models.CaseEvolution](ctx, s.c, Get("/CaseEvolution/{id}").With("id", id))
}

func (s *EvolutionService) Create(ctx context.Context, req models.EvolutionRequest) (models.CaseEvolution, error) {
	return Do[models.CaseEvolution](ctx, s.c, Post("/CaseEvolution", req))
}

func (s *EvolutionService) Update(ctx context.Context, id int, req models.EvolutionRequest) (models.CaseEvolution, error) {
	return Do[models.CaseEvolution](ctx, s.c, Put("/CaseEvolution/{id}", req).With("id", id))
}

// HospitalService /Hospital
type HospitalService struct{ c *Client }

func NewHospitalService(c *Client) *HospitalService { return &HospitalService{c: c} }

func (s *HospitalService) List(ctx context.Context) ([]models.Hospital, error) {
	return Do[[]models.Hospital](ctx, s.c, Get("/Hospital"))
}

func (s *HospitalService) ListByCity(ctx context.Context, cityID int) ([]models.Hospital, error) {
	return Do[[]models.Hospital](ctx, s.c, Get("/Hospital").WithQuery("idMunicipio", strconv.Itoa(cityID)))
}

// LocationService /Location
type LocationService struct{ c *Client }

func NewLocationService(c *Client) *LocationService { return &LocationService{c: c} }

func (s *LocationService) Departments(ctx context.Context) ([]models.Department, error) {
	return Do[[]models.Department](ctx, s.c, Get("/Location/departments"))
}

func (s *LocationService) Cities(ctx context.Context, departmentID int) ([]models.City, error) {
	return Do[[]models.City](ctx, s.c, Get("/Location/departments/{id}/cities").With("id", departmentID))
}
