package feature

import (
	"context"

	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
	"github.com/Tom21-xd/Uceva-sub002/internal/state"
)

// ProfileSource current user (api.UserService).
type ProfileSource interface {
	Me(ctx context.Context) (models.User, error)
}

// ProfileState snapshot of the profile screen. Age and AgeGroup are derived
// when the user is loaded; -1 / AgeGroupUnknown without a birth date.
type ProfileState struct {
	User     state.Resource[models.User]
	Age      int
	AgeGroup int
}

var profileUserLens = state.Lens[ProfileState, models.User]{
	Get: func(s ProfileState) state.Resource[models.User] { return s.User },
	Set: func(s ProfileState, r state.Resource[models.User]) ProfileState { s.User = r; return s },
}

type Profile struct {
	holder[ProfileState]
	src ProfileSource
}

func NewProfile(parent context.Context, src ProfileSource, logger *zap.Logger) *Profile {
	return &Profile{holder: newHolder(parent, ProfileState{Age: -1}, logger, "profile"), src: src}
}

func (p *Profile) Refresh(ctx context.Context) error {
	return load(ctx, p.holder, profileUserLens, "profile", p.src.Me, func(s ProfileState, u models.User) ProfileState {
		s.Age = u.AgeAt(p.now())
		s.AgeGroup = models.AgeGroup(s.Age)
		return s
	})
}
