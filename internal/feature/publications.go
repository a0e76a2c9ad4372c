package feature

import (
	"context"
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/api"
	"github.com/Tom21-xd/Uceva-sub002/internal/models"
	"github.com/Tom21-xd/Uceva-sub002/internal/state"
)

// PublicationSource feed endpoints (api.PublicationService).
type PublicationSource interface {
	List(ctx context.Context) ([]models.Publication, error)
	Create(ctx context.Context, req models.PublicationRequest) (models.Publication, error)
	React(ctx context.Context, id int) error
	Save(ctx context.Context, id int) error
}

// CategoryAll shows every category.
const CategoryAll = "Todas"

// PublicationsState snapshot of the publication feed.
type PublicationsState struct {
	Feed      state.Resource[[]models.Publication]
	Category  string
	Visible   []models.Publication
	Creating  state.Resource[models.Publication]
	Errors    ValidationErrors
	ActionErr string // last failed reaction/save toggle
}

var (
	feedLens = state.Lens[PublicationsState, []models.Publication]{
		Get: func(s PublicationsState) state.Resource[[]models.Publication] { return s.Feed },
		Set: func(s PublicationsState, r state.Resource[[]models.Publication]) PublicationsState { s.Feed = r; return s },
	}
	creatingLens = state.Lens[PublicationsState, models.Publication]{
		Get: func(s PublicationsState) state.Resource[models.Publication] { return s.Creating },
		Set: func(s PublicationsState, r state.Resource[models.Publication]) PublicationsState { s.Creating = r; return s },
	}
)

// Publications social feed.
type Publications struct {
	holder[PublicationsState]
	src PublicationSource
}

func NewPublications(parent context.Context, src PublicationSource, logger *zap.Logger) *Publications {
	return &Publications{
		holder: newHolder(parent, PublicationsState{Category: CategoryAll}, logger, "publications"),
		src:    src,
	}
}

func (p *Publications) Refresh(ctx context.Context) error {
	return load(ctx, p.holder, feedLens, "publications", p.src.List, func(s PublicationsState, feed []models.Publication) PublicationsState {
		s.Visible = arrangeFeed(feed, s.Category)
		return s
	})
}

// SetCategory filters the feed; CategoryAll or "" shows everything.
func (p *Publications) SetCategory(category string) {
	if category == "" {
		category = CategoryAll
	}
	p.store.Update(func(s PublicationsState) PublicationsState {
		s.Category = category
		s.Visible = arrangeFeed(s.Feed.Data, category)
		return s
	})
}

// Create validates and publishes a post; it is prepended to the feed.
func (p *Publications) Create(ctx context.Context, req models.PublicationRequest) error {
	errs := ValidationErrors{}
	errs.required("titulo", req.Title)
	errs.required("descripcion", req.Body)
	if !slices.Contains(models.PublicationCategories, req.Category) {
		errs.add("categoria", "Seleccione una categoría")
	}
	if req.Priority == "" {
		req.Priority = "Normal"
	}
	req.Title = strings.TrimSpace(req.Title)
	p.store.Update(func(s PublicationsState) PublicationsState {
		s.Errors = errs
		return s
	})
	if err := errs.err(); err != nil {
		return err
	}

	return load(ctx, p.holder, creatingLens, "create_publication", func(ctx context.Context) (models.Publication, error) {
		return p.src.Create(ctx, req)
	}, func(s PublicationsState, created models.Publication) PublicationsState {
		feed := append([]models.Publication{created}, s.Feed.Data...)
		s.Feed.Data = feed
		s.Visible = arrangeFeed(feed, s.Category)
		return s
	})
}

// ToggleReaction flips the caller's reaction once the backend accepted it.
func (p *Publications) ToggleReaction(ctx context.Context, id int) error {
	return p.toggle(ctx, id, "react", p.src.React, func(pub *models.Publication) {
		pub.ReactedByMe = !pub.ReactedByMe
		pub.Reactions += delta(pub.ReactedByMe)
	})
}

// ToggleSave flips the caller's bookmark once the backend accepted it.
func (p *Publications) ToggleSave(ctx context.Context, id int) error {
	return p.toggle(ctx, id, "save", p.src.Save, func(pub *models.Publication) {
		pub.SavedByMe = !pub.SavedByMe
		pub.Saves += delta(pub.SavedByMe)
	})
}

func (p *Publications) toggle(ctx context.Context, id int, action string, call func(context.Context, int) error, apply func(*models.Publication)) error {
	bound, cancel := p.scope.Bind(ctx)
	defer cancel()
	if err := call(bound, id); err != nil {
		p.logger.Error("Publication action failed", zap.String("action", action), zap.Int("publication_id", id), zap.Error(err))
		p.store.Update(func(s PublicationsState) PublicationsState {
			s.ActionErr = api.UserMessage(err)
			return s
		})
		return err
	}
	p.store.Update(func(s PublicationsState) PublicationsState {
		feed := slices.Clone(s.Feed.Data)
		for i := range feed {
			if feed[i].ID == id {
				apply(&feed[i])
			}
		}
		s.Feed.Data = feed
		s.Visible = arrangeFeed(feed, s.Category)
		s.ActionErr = ""
		return s
	})
	return nil
}

func delta(on bool) int {
	if on {
		return 1
	}
	return -1
}

// arrangeFeed filters by category and puts pinned posts first, newest first within each group.
func arrangeFeed(feed []models.Publication, category string) []models.Publication {
	var out []models.Publication
	if category == CategoryAll {
		out = slices.Clone(feed)
	} else {
		out = lo.Filter(feed, func(p models.Publication, _ int) bool { return p.Category == category })
	}
	slices.SortStableFunc(out, func(a, b models.Publication) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}
