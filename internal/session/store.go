package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

const (
	keyToken          = "token"
	keyRefreshToken   = "refresh_token"
	keyUserID         = "user_id"
	keyRole           = "role"
	keyPermissions    = "permissions"
	keyDeviceToken    = "device_token"
	keyTheme          = "theme"
	keyLocale         = "locale"
	keyInstallationID = "installation_id"
)

// Store session and preference storage shared by every feature.
// Writes happen at login, logout and token refresh only; last write wins.
type Store struct {
	kv     KV
	prefix string
	logger *zap.Logger
}

// NewStore wraps kv; every key is prefixed with prefix.
func NewStore(kv KV, prefix string, logger *zap.Logger) *Store {
	return &Store{kv: kv, prefix: prefix, logger: logger}
}

func (s *Store) key(k string) string { return s.prefix + k }

func (s *Store) get(ctx context.Context, k string) (string, error) {
	v, err := s.kv.Get(ctx, s.key(k))
	if errors.Is(err, ErrMiss) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session get %s: %w", k, err)
	}
	return v, nil
}

func (s *Store) set(ctx context.Context, k, v string) error {
	if err := s.kv.Set(ctx, s.key(k), v); err != nil {
		return fmt.Errorf("session set %s: %w", k, err)
	}
	return nil
}

// SaveLogin persists tokens and identity after a successful login or refresh.
func (s *Store) SaveLogin(ctx context.Context, resp models.LoginResponse) error {
	if err := s.set(ctx, keyToken, resp.Token); err != nil {
		return err
	}
	if resp.RefreshToken != "" {
		if err := s.set(ctx, keyRefreshToken, resp.RefreshToken); err != nil {
			return err
		}
	}
	if resp.User.ID != 0 {
		if err := s.set(ctx, keyUserID, strconv.Itoa(resp.User.ID)); err != nil {
			return err
		}
	}
	if resp.User.RoleName != "" {
		if err := s.set(ctx, keyRole, resp.User.RoleName); err != nil {
			return err
		}
	}
	// permissions belong to the previous identity
	return s.kv.Delete(ctx, s.key(keyPermissions))
}

// Clear logs out: drops credentials and cached permissions, keeps preferences
// and the installation id.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx,
		s.key(keyToken),
		s.key(keyRefreshToken),
		s.key(keyUserID),
		s.key(keyRole),
		s.key(keyPermissions),
		s.key(keyDeviceToken),
	)
}

func (s *Store) Token(ctx context.Context) (string, error) { return s.get(ctx, keyToken) }

func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, keyRefreshToken)
}

// UserID 0 when not logged in.
func (s *Store) UserID(ctx context.Context) (int, error) {
	v, err := s.get(ctx, keyUserID)
	if err != nil || v == "" {
		return 0, err
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("session user id %q: %w", v, err)
	}
	return id, nil
}

func (s *Store) Role(ctx context.Context) (string, error) { return s.get(ctx, keyRole) }

func (s *Store) Theme(ctx context.Context) (string, error) { return s.get(ctx, keyTheme) }

func (s *Store) SetTheme(ctx context.Context, theme string) error {
	return s.set(ctx, keyTheme, theme)
}

func (s *Store) Locale(ctx context.Context) (string, error) { return s.get(ctx, keyLocale) }

func (s *Store) SetLocale(ctx context.Context, locale string) error {
	return s.set(ctx, keyLocale, locale)
}

func (s *Store) DeviceToken(ctx context.Context) (string, error) { return s.get(ctx, keyDeviceToken) }

func (s *Store) SetDeviceToken(ctx context.Context, token string) error {
	return s.set(ctx, keyDeviceToken, token)
}

// Permissions cached permission codes; ok=false when nothing is cached yet.
func (s *Store) Permissions(ctx context.Context) (models.PermissionSet, bool, error) {
	raw, err := s.get(ctx, keyPermissions)
	if err != nil || raw == "" {
		return nil, false, err
	}
	var codes []string
	if err := json.Unmarshal([]byte(raw), &codes); err != nil {
		s.logger.Warn("Discarding corrupt permission cache", zap.Error(err))
		return nil, false, nil
	}
	return models.NewPermissionSet(codes...), true, nil
}

func (s *Store) SetPermissions(ctx context.Context, set models.PermissionSet) error {
	raw, err := json.Marshal(set.Codes())
	if err != nil {
		return err
	}
	return s.set(ctx, keyPermissions, string(raw))
}

// InstallationID stable per-installation identifier, created on first use.
func (s *Store) InstallationID(ctx context.Context) (string, error) {
	id, err := s.get(ctx, keyInstallationID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := s.set(ctx, keyInstallationID, id); err != nil {
		return "", err
	}
	return id, nil
}

// AccessToken implements api.TokenSource. Storage failures yield an anonymous request.
func (s *Store) AccessToken() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	tok, err := s.Token(ctx)
	if err != nil {
		s.logger.Warn("Failed to read session token", zap.Error(err))
		return ""
	}
	return tok
}

// TokenExpired reports whether the stored token is missing or past its exp claim.
func (s *Store) TokenExpired(ctx context.Context, now time.Time) (bool, error) {
	tok, err := s.Token(ctx)
	if err != nil {
		return true, err
	}
	if tok == "" {
		return true, nil
	}
	exp, ok := TokenExpiry(tok)
	if !ok {
		// opaque token: the backend decides
		return false, nil
	}
	return !now.Before(exp), nil
}

// TokenExpiry reads the exp claim without verifying the signature; the client
// never holds the signing key.
func TokenExpiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
