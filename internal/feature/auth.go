package feature

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
	"github.com/Tom21-xd/Uceva-sub002/internal/state"
)

// LoginSource credential exchange (api.AuthService).
type LoginSource interface {
	Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error)
}

// SessionWriter persistence of the authenticated session (session.Store).
type SessionWriter interface {
	SaveLogin(ctx context.Context, resp models.LoginResponse) error
	Clear(ctx context.Context) error
}

// AuthState snapshot of the login screen.
type AuthState struct {
	Errors ValidationErrors
	User   state.Resource[models.User]
}

var authUserLens = state.Lens[AuthState, models.User]{
	Get: func(s AuthState) state.Resource[models.User] { return s.User },
	Set: func(s AuthState, r state.Resource[models.User]) AuthState { s.User = r; return s },
}

// Auth login and logout.
type Auth struct {
	holder[AuthState]
	src     LoginSource
	session SessionWriter
}

func NewAuth(parent context.Context, src LoginSource, session SessionWriter, logger *zap.Logger) *Auth {
	return &Auth{holder: newHolder(parent, AuthState{}, logger, "auth"), src: src, session: session}
}

// Login validates the credentials, exchanges them for tokens and persists the session.
func (a *Auth) Login(ctx context.Context, email, password string) (models.User, error) {
	errs := ValidationErrors{}
	errs.required("correo", email)
	if strings.TrimSpace(email) != "" && !validEmail(email) {
		errs.add("correo", "Correo electrónico inválido")
	}
	errs.required("contrasena", password)
	a.store.Update(func(s AuthState) AuthState {
		s.Errors = errs
		return s
	})
	if err := errs.err(); err != nil {
		return models.User{}, err
	}

	req := models.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	err := load(ctx, a.holder, authUserLens, "login", func(ctx context.Context) (models.User, error) {
		resp, err := a.src.Login(ctx, req)
		if err != nil {
			return models.User{}, err
		}
		if err := a.session.SaveLogin(ctx, resp); err != nil {
			return models.User{}, err
		}
		return resp.User, nil
	}, nil)
	if err != nil {
		return models.User{}, err
	}
	u := a.State().User.Data
	a.logger.Info("User logged in", zap.Int("user_id", u.ID), zap.String("role", u.RoleName))
	return u, nil
}

// Logout drops the stored credentials.
func (a *Auth) Logout(ctx context.Context) error {
	if err := a.session.Clear(ctx); err != nil {
		a.logger.Error("Failed to clear session", zap.Error(err))
		return err
	}
	a.store.Update(func(s AuthState) AuthState {
		busy := s.User.Busy
		s.User = state.Resource[models.User]{Busy: busy}
		return s
	})
	a.logger.Info("User logged out")
	return nil
}
