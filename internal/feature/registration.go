package feature

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
	"github.com/Tom21-xd/Uceva-sub002/internal/state"
)

// RegistrationSource account creation and registry lookup (api.AuthService).
type RegistrationSource interface {
	Register(ctx context.Context, req models.RegisterRequest) (models.User, error)
	CheckRethus(ctx context.Context, documentType, document string) (models.RethusResponse, error)
}

// RegistrationDraft form input.
type RegistrationDraft struct {
	models.RegisterRequest
	ConfirmPassword string
}

// RegistrationState snapshot of the sign-up form.
type RegistrationState struct {
	Draft     RegistrationDraft
	Errors    ValidationErrors
	Rethus    state.Resource[bool]
	Submitted state.Resource[models.User]
}

var (
	rethusLens = state.Lens[RegistrationState, bool]{
		Get: func(s RegistrationState) state.Resource[bool] { return s.Rethus },
		Set: func(s RegistrationState, r state.Resource[bool]) RegistrationState { s.Rethus = r; return s },
	}
	registeredLens = state.Lens[RegistrationState, models.User]{
		Get: func(s RegistrationState) state.Resource[models.User] { return s.Submitted },
		Set: func(s RegistrationState, r state.Resource[models.User]) RegistrationState { s.Submitted = r; return s },
	}
)

// Registration sign-up form with RETHUS verification.
type Registration struct {
	holder[RegistrationState]
	src RegistrationSource
}

func NewRegistration(parent context.Context, src RegistrationSource, logger *zap.Logger) *Registration {
	return &Registration{holder: newHolder(parent, RegistrationState{}, logger, "registration"), src: src}
}

// Edit applies a synchronous change to the draft. A changed document
// invalidates a previous RETHUS answer.
func (r *Registration) Edit(fn func(*RegistrationDraft)) {
	r.store.Update(func(s RegistrationState) RegistrationState {
		d := s.Draft
		fn(&d)
		if d.Document != s.Draft.Document || d.DocumentType != s.Draft.DocumentType {
			s.Rethus = state.Resource[bool]{Busy: s.Rethus.Busy}
		}
		s.Draft = d
		return s
	})
}

// CheckRethus looks the draft's document up in the professional registry.
func (r *Registration) CheckRethus(ctx context.Context) (bool, error) {
	d := r.State().Draft
	errs := ValidationErrors{}
	errs.required("documento", d.Document)
	errs.required("tipoDocumento", d.DocumentType)
	if err := errs.err(); err != nil {
		r.setErrors(errs)
		return false, err
	}
	err := load(ctx, r.holder, rethusLens, "rethus", func(ctx context.Context) (bool, error) {
		resp, err := r.src.CheckRethus(ctx, d.DocumentType, strings.TrimSpace(d.Document))
		if err != nil {
			return false, err
		}
		return IsRethusRegistered(resp.Message), nil
	}, nil)
	return r.State().Rethus.Data, err
}

// Validate checks the draft and stores the field errors in state.
func (r *Registration) Validate() error {
	s := r.State()
	errs := validateRegistration(s.Draft, r.now())
	if s.Rethus.Loaded() && !s.Rethus.Data {
		errs.add("documento", "El documento no se encuentra inscrito en RETHUS")
	}
	r.setErrors(errs)
	return errs.err()
}

// Submit validates and creates the account.
func (r *Registration) Submit(ctx context.Context) (models.User, error) {
	if err := r.Validate(); err != nil {
		return models.User{}, err
	}
	req := r.State().Draft.RegisterRequest
	req.Email = strings.TrimSpace(req.Email)
	if err := load(ctx, r.holder, registeredLens, "register", func(ctx context.Context) (models.User, error) {
		return r.src.Register(ctx, req)
	}, nil); err != nil {
		return models.User{}, err
	}
	return r.State().Submitted.Data, nil
}

func (r *Registration) setErrors(errs ValidationErrors) {
	r.store.Update(func(s RegistrationState) RegistrationState {
		s.Errors = errs
		return s
	})
}

func validateRegistration(d RegistrationDraft, now time.Time) ValidationErrors {
	errs := ValidationErrors{}
	errs.required("nombre", d.FirstName)
	errs.required("apellido", d.LastName)
	errs.required("documento", d.Document)
	errs.required("tipoDocumento", d.DocumentType)
	errs.required("correo", d.Email)
	if strings.TrimSpace(d.Email) != "" && !validEmail(d.Email) {
		errs.add("correo", "Correo electrónico inválido")
	}
	errs.required("contrasena", d.Password)
	if d.Password != "" && len(d.Password) < 6 {
		errs.add("contrasena", "Debe tener al menos 6 caracteres")
	}
	if d.ConfirmPassword != d.Password {
		errs.add("confirmarContrasena", "Las contraseñas no coinciden")
	}
	if d.RoleID <= 0 {
		errs.add("idRol", "Seleccione un rol")
	}
	if d.CityID <= 0 {
		errs.add("idMunicipio", "Seleccione un municipio")
	}
	if d.BirthDate != "" {
		birth, err := time.Parse(time.DateOnly, d.BirthDate)
		switch {
		case err != nil:
			errs.add("fechaNacimiento", "Use el formato AAAA-MM-DD")
		case birth.After(now):
			errs.add("fechaNacimiento", "La fecha no puede ser futura")
		}
	}
	return errs
}

const rethusNotRegistered = "no se encuentra inscrito"

// IsRethusRegistered interprets the registry's free-text answer: a blank
// message means registered; one containing "no se encuentra inscrito" in any
// case means not registered.
func IsRethusRegistered(message string) bool {
	if strings.TrimSpace(message) == "" {
		return true
	}
	fold := cases.Fold()
	return !strings.Contains(fold.String(message), fold.String(rethusNotRegistered))
}
