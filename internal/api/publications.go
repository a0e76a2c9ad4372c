package api

import (
	"context"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

// PublicationService /Publication
type PublicationService struct{ c *Client }

func NewPublicationService(c *Client) *PublicationService { return &PublicationService{c: c} }

func (s *PublicationService) List(ctx context.Context) ([]models.Publication, error) {
	return Do[[]models.Publication](ctx, s.c, Get("/Publication"))
}

func (s *PublicationService) Get(ctx context.Context, id int) (models.Publication, error) {
	return Do[models.Publication](ctx, s.c, Get("/Publication/{id}").With("id", id))
}

func (s *PublicationService) Create(ctx context.Context, req models.PublicationRequest) (models.Publication, error) {
	return Do[models.Publication](ctx, s.c, Post("/Publication", req))
}

func (s *PublicationService) Update(ctx context.Context, id int, req models.PublicationRequest) (models.Publication, error) {
	return Do[models.Publication](ctx, s.c, Put("/Publication/{id}", req).With("id", id))
}

// Delete soft-deletes the publication.
func (s *PublicationService) Delete(ctx context.Context, id int) error {
	return s.c.Exec(ctx, Delete("/Publication/{id}").With("id", id))
}

// React toggles the caller's reaction.
func (s *PublicationService) React(ctx context.Context, id int) error {
	return s.c.Exec(ctx, Post("/Publication/{id}/reaction", nil).With("id", id))
}

// Save toggles the caller's bookmark.
func (s *PublicationService) Save(ctx context.Context, id int) error {
	return s.c.Exec(ctx, Post("/Publication/{id}/save", nil).With("id", id))
}

func (s *PublicationService) View(ctx context.Context, id int) error {
	return s.c.Exec(ctx, Post("/Publication/{id}/view", nil).With("id", id))
}

func (s *PublicationService) Comments(ctx context.Context, id int) ([]models.Comment, error) {
	return Do[[]models.Comment](ctx, s.c, Get("/Publication/{id}/comments").With("id", id))
}

func (s *PublicationService) Comment(ctx context.Context, id int, content string) (models.Comment, error) {
	req := Post("/Publication/{id}/comments", map[string]string{"contenido": content}).With("id", id)
	return Do[models.Comment](ctx, s.c, req)
}

// NotificationService /Notification
type NotificationService struct{ c *Client }

func NewNotificationService(c *Client) *NotificationService { return &NotificationService{c: c} }

func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	return Do[[]models.Notification](ctx, s.c, Get("/Notification"))
}

func (s *NotificationService) MarkRead(ctx context.Context, id int) error {
	return s.c.Exec(ctx, Put("/Notification/{id}/read", nil).With("id", id))
}

func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	return s.c.Exec(ctx, Put("/Notification/read-all", nil))
}

func (s *NotificationService) RegisterDeviceToken(ctx context.Context, req models.DeviceTokenRequest) error {
	return s.c.Exec(ctx, Post("/Notification/device-token", req))
}
