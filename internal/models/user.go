package models

import "time"

// User account profile
type User struct {
	ID        int    `json:"id"`
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido"`
	Email     string `json:"correo"`
	Document  string `json:"documento"`
	Phone     string `json:"telefono,omitempty"`
	Address   string `json:"direccion,omitempty"`

	RoleID   int    `json:"idRol"`
	RoleName string `json:"nombreRol"`

	DepartmentID   int    `json:"idDepartamento"`
	DepartmentName string `json:"nombreDepartamento,omitempty"`
	CityID         int    `json:"idMunicipio"`
	CityName       string `json:"nombreMunicipio,omitempty"`

	BloodTypeID int    `json:"idTipoSangre"`
	BloodType   string `json:"nombreTipoSangre,omitempty"`
	GenderID    int    `json:"idGenero"`
	Gender      string `json:"nombreGenero,omitempty"`

	BirthDate *time.Time `json:"fechaNacimiento,omitempty"`

	RethusRegistered bool `json:"registradoRethus"`
	Active           bool `json:"estado"`
}

// FullName "first last"
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// AgeAt age in completed years at now, -1 when the birth date is unknown.
func (u User) AgeAt(now time.Time) int {
	if u.BirthDate == nil {
		return -1
	}
	return Age(*u.BirthDate, now)
}

// Age completed years between birth and now. Never negative.
func Age(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// Age groups used by the epidemiological reports.
const (
	AgeGroupUnknown    = 0
	AgeGroupEarlyChild = 1 // 0-4
	AgeGroupChild      = 2 // 5-14
	AgeGroupAdult      = 3 // 15-49
	AgeGroupMature     = 4 // 50-64
	AgeGroupElder      = 5 // 65+
)

// AgeGroup classifies an age in years. Negative ages are AgeGroupUnknown.
func AgeGroup(age int) int {
	switch {
	case age < 0:
		return AgeGroupUnknown
	case age < 5:
		return AgeGroupEarlyChild
	case age < 15:
		return AgeGroupChild
	case age < 50:
		return AgeGroupAdult
	case age < 65:
		return AgeGroupMature
	default:
		return AgeGroupElder
	}
}

// LoginRequest body of POST /Auth/login
type LoginRequest struct {
	Email    string `json:"correo"`
	Password string `json:"contrasena"`
}

// LoginResponse tokens plus the authenticated user
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"usuario"`
}

// RegisterRequest body of POST /Auth/register
type RegisterRequest struct {
	FirstName    string `json:"nombre"`
	LastName     string `json:"apellido"`
	Email        string `json:"correo"`
	Password     string `json:"contrasena"`
	Document     string `json:"documento"`
	DocumentType string `json:"tipoDocumento"`
	Phone        string `json:"telefono,omitempty"`
	Address      string `json:"direccion,omitempty"`
	RoleID       int    `json:"idRol"`
	CityID       int    `json:"idMunicipio"`
	BloodTypeID  int    `json:"idTipoSangre"`
	GenderID     int    `json:"idGenero"`
	BirthDate    string `json:"fechaNacimiento,omitempty"` // yyyy-mm-dd
}

// RethusResponse RETHUS professional-registry lookup result
type RethusResponse struct {
	Message string `json:"mensaje"`
}

// BloodType catalog entry
type BloodType struct {
	ID   int    `json:"id"`
	Name string `json:"nombre"`
}

// Gender catalog entry
type Gender struct {
	ID   int    `json:"id"`
	Name string `json:"nombre"`
}
