package models

import "time"

// Case reported dengue case (backend resource /Case)
type Case struct {
	ID          int       `json:"id"`
	Description string    `json:"descripcion"`
	ReportDate  time.Time `json:"fechaReporte"`

	// references, the *Name fields are denormalised by the backend for display
	StateID       int    `json:"idEstadoCaso"`
	StateName     string `json:"nombreEstadoCaso"`
	HospitalID    int    `json:"idHospital"`
	HospitalName  string `json:"nombreHospital"`
	DengueTypeID  int    `json:"idTipoDengue"`
	DengueType    string `json:"nombreTipoDengue"`
	PatientID     int    `json:"idPaciente"`
	PatientName   string `json:"nombrePaciente"`
	ClinicianID   *int   `json:"idPersonalMedico,omitempty"`   // optional attending clinician
	ClinicianName string `json:"nombrePersonalMedico,omitempty"`

	CompletedAt *time.Time `json:"fechaFinalizacion,omitempty"`
	Address     string     `json:"direccion,omitempty"`
	Latitude    *float64   `json:"latitud,omitempty"`
	Longitude   *float64   `json:"longitud,omitempty"`

	// soft-delete flag, owned by the backend
	Active bool `json:"estado"`
}

// CreateCaseRequest body of POST /Case
type CreateCaseRequest struct {
	Description  string   `json:"descripcion"`
	HospitalID   int      `json:"idHospital"`
	DengueTypeID int      `json:"idTipoDengue"`
	PatientID    int      `json:"idPaciente"`
	ClinicianID  *int     `json:"idPersonalMedico,omitempty"`
	Address      string   `json:"direccion,omitempty"`
	Latitude     *float64 `json:"latitud,omitempty"`
	Longitude    *float64 `json:"longitud,omitempty"`
}

// UpdateCaseRequest body of PUT /Case/{id}
type UpdateCaseRequest struct {
	StateID     int    `json:"idEstadoCaso"`
	Description string `json:"descripcion"`
}

// CaseStateAll pseudo-state shown as the first filter option; selects every case.
const CaseStateAll = "Todos"

// CaseState catalog entry (e.g. "Activo", "Recuperado", "Fallecido")
type CaseState struct {
	ID   int    `json:"id"`
	Name string `json:"nombre"`
}

// DengueType catalog entry (e.g. "Dengue sin signos de alarma", "Dengue grave")
type DengueType struct {
	ID   int    `json:"id"`
	Name string `json:"nombre"`
}

// Hospital reporting institution
type Hospital struct {
	ID        int      `json:"id"`
	Name      string   `json:"nombre"`
	Address   string   `json:"direccion"`
	CityID    int      `json:"idMunicipio"`
	CityName  string   `json:"nombreMunicipio"`
	Latitude  *float64 `json:"latitud,omitempty"`
	Longitude *float64 `json:"longitud,omitempty"`
	Active    bool     `json:"estado"`
}

// Department first-level administrative division
type Department struct {
	ID   int    `json:"id"`
	Name string `json:"nombre"`
}

// City municipality, child of a Department
type City struct {
	ID           int    `json:"id"`
	Name         string `json:"nombre"`
	DepartmentID int    `json:"idDepartamento"`
}
