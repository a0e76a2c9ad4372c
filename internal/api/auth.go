package api

import (
	"context"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

// AuthService /Auth
type AuthService struct{ c *Client }

func NewAuthService(c *Client) *AuthService { return &AuthService{c: c} }

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	return Do[models.LoginResponse](ctx, s.c, Post("/Auth/login", req))
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	return Do[models.User](ctx, s.c, Post("/Auth/register", req))
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (models.LoginResponse, error) {
	return Do[models.LoginResponse](ctx, s.c, Post("/Auth/refresh", map[string]string{"refreshToken": refreshToken}))
}

// CheckRethus queries the RETHUS registry for a document. The backend relays the
// registry's free-text message; see feature.IsRethusRegistered for its meaning.
func (s *AuthService) CheckRethus(ctx context.Context, documentType, document string) (models.RethusResponse, error) {
	req := Get("/Auth/rethus").WithQuery("tipoDocumento", documentType).WithQuery("documento", document)
	return Do[models.RethusResponse](ctx, s.c, req)
}
