package push

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

// TokenStore local device-token persistence (session.Store).
type TokenStore interface {
	DeviceToken(ctx context.Context) (string, error)
	SetDeviceToken(ctx context.Context, token string) error
	InstallationID(ctx context.Context) (string, error)
}

// TokenBackend device-token registration endpoint (api.NotificationService).
type TokenBackend interface {
	RegisterDeviceToken(ctx context.Context, req models.DeviceTokenRequest) error
}

// TokenRegistrar keeps the backend informed of this device's push token.
type TokenRegistrar struct {
	store    TokenStore
	backend  TokenBackend
	platform string
	logger   *zap.Logger
}

func NewTokenRegistrar(store TokenStore, backend TokenBackend, platform string, logger *zap.Logger) *TokenRegistrar {
	return &TokenRegistrar{store: store, backend: backend, platform: platform, logger: logger}
}

// Register sends token to the backend unless it equals the one already
// registered, then stores it. Reports whether a registration happened.
func (r *TokenRegistrar) Register(ctx context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, fmt.Errorf("empty device token")
	}
	current, err := r.store.DeviceToken(ctx)
	if err != nil {
		return false, err
	}
	if current == token {
		return false, nil
	}
	deviceID, err := r.store.InstallationID(ctx)
	if err != nil {
		return false, err
	}

	req := models.DeviceTokenRequest{Token: token, Platform: r.platform, DeviceID: deviceID}
	if err := r.backend.RegisterDeviceToken(ctx, req); err != nil {
		return false, fmt.Errorf("register device token: %w", err)
	}
	// stored only after the backend accepted it, so a failure is retried next time
	if err := r.store.SetDeviceToken(ctx, token); err != nil {
		return true, err
	}
	r.logger.Info("Device token registered", zap.String("device_id", deviceID), zap.String("platform", r.platform))
	return true, nil
}
