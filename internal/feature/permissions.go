package feature

import (
	"context"

	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
	"github.com/Tom21-xd/Uceva-sub002/internal/state"
)

// PermissionSource current user's permissions (api.PermissionService).
type PermissionSource interface {
	Mine(ctx context.Context) ([]models.Permission, error)
}

// PermissionCache per-session cache (session.Store).
type PermissionCache interface {
	Permissions(ctx context.Context) (models.PermissionSet, bool, error)
	SetPermissions(ctx context.Context, set models.PermissionSet) error
}

// PermissionsState snapshot of the permission gate.
type PermissionsState struct {
	Set state.Resource[models.PermissionSet]
}

var permissionSetLens = state.Lens[PermissionsState, models.PermissionSet]{
	Get: func(s PermissionsState) state.Resource[models.PermissionSet] { return s.Set },
	Set: func(s PermissionsState, r state.Resource[models.PermissionSet]) PermissionsState { s.Set = r; return s },
}

// Permissions gates features on the current user's permission codes. Codes
// are fetched once per session and cached.
type Permissions struct {
	holder[PermissionsState]
	src   PermissionSource
	cache PermissionCache
}

func NewPermissions(parent context.Context, src PermissionSource, cache PermissionCache, logger *zap.Logger) *Permissions {
	return &Permissions{
		holder: newHolder(parent, PermissionsState{}, logger, "permissions"),
		src:    src,
		cache:  cache,
	}
}

// Ensure loads the permission set unless it is already known. The session
// cache is consulted before the backend.
func (p *Permissions) Ensure(ctx context.Context) error {
	if p.State().Set.Loaded() {
		return nil
	}
	return load(ctx, p.holder, permissionSetLens, "permissions", p.fetch, nil)
}

func (p *Permissions) fetch(ctx context.Context) (models.PermissionSet, error) {
	if set, ok, err := p.cache.Permissions(ctx); err != nil {
		p.logger.Warn("Permission cache unavailable", zap.Error(err))
	} else if ok {
		return set, nil
	}

	perms, err := p.src.Mine(ctx)
	if err != nil {
		return nil, err
	}
	set := models.PermissionSetFrom(perms)
	if err := p.cache.SetPermissions(ctx, set); err != nil {
		p.logger.Warn("Failed to cache permissions", zap.Error(err))
	}
	return set, nil
}

// Can reports whether the loaded set contains code. False until loaded.
func (p *Permissions) Can(code string) bool {
	return p.State().Set.Data.Has(code)
}

// Codes loaded permission codes, sorted.
func (p *Permissions) Codes() []string {
	return p.State().Set.Data.Codes()
}

// Reset forgets the in-memory set, e.g. after logout.
func (p *Permissions) Reset() {
	p.store.Update(func(s PermissionsState) PermissionsState {
		busy := s.Set.Busy
		s.Set = state.Resource[models.PermissionSet]{Busy: busy}
		return s
	})
}
