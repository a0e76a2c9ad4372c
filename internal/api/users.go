package api

import (
	"context"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

// UserService /User
type UserService struct{ c *Client }

func NewUserService(c *Client) *UserService { return &UserService{c: c} }

func (s *UserService) Me(ctx context.Context) (models.User, error) {
	return Do[models.User](ctx, s.c, Get("/User/me"))
}

func (s *UserService) Get(ctx context.Context, id int) (models.User, error) {
	return Do[models.User](ctx, s.c, Get("/User/{id}").With("id", id))
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return Do[[]models.User](ctx, s.c, Get("/User"))
}

func (s *UserService) Update(ctx context.Context, id int, u models.User) (models.User, error) {
	return Do[models.User](ctx, s.c, Put("/User/{id}", u).With("id", id))
}

func (s *UserService) BloodTypes(ctx context.Context) ([]models.BloodType, error) {
	return Do[[]models.BloodType](ctx, s.c, Get("/User/blood-types"))
}

func (s *UserService) Genders(ctx context.Context) ([]models.Gender, error) {
	return Do[[]models.Gender](ctx, s.c, Get("/User/genders"))
}

// PermissionService /Permission
type PermissionService struct{ c *Client }

func NewPermissionService(c *Client) *PermissionService { return &PermissionService{c: c} }

func (s *PermissionService) Roles(ctx context.Context) ([]models.Role, error) {
	return Do[[]models.Role](ctx, s.c, Get("/Permission/roles"))
}

func (s *PermissionService) Permissions(ctx context.Context) ([]models.Permission, error) {
	return Do[[]models.Permission](ctx, s.c, Get("/Permission"))
}

func (s *PermissionService) RolePermissions(ctx context.Context, roleID int) ([]models.Permission, error) {
	return Do[[]models.Permission](ctx, s.c, Get("/Permission/role/{id}").With("id", roleID))
}

// Mine permissions of the authenticated user.
func (s *PermissionService) Mine(ctx context.Context) ([]models.Permission, error) {
	return Do[[]models.Permission](ctx, s.c, Get("/Permission/me"))
}

func (s *PermissionService) Assign(ctx context.Context, roleID, permissionID int) error {
	return s.c.Exec(ctx, Post("/Permission/role", models.RolePermissionRequest{RoleID: roleID, PermissionID: permissionID}))
}

func (s *PermissionService) Revoke(ctx context.Context, roleID, permissionID int) error {
	req := Delete("/Permission/role/{roleId}/{permissionId}").With("roleId", roleID).With("permissionId", permissionID)
	return s.c.Exec(ctx, req)
}
