package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/api"
	"github.com/Tom21-xd/Uceva-sub002/internal/config"
	"github.com/Tom21-xd/Uceva-sub002/internal/database"
	"github.com/Tom21-xd/Uceva-sub002/internal/importer"
	"github.com/Tom21-xd/Uceva-sub002/internal/realtime"
	"github.com/Tom21-xd/Uceva-sub002/internal/session"
)

// app everything a command needs, built once per invocation.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	session *session.Store
	client  *api.Client

	auth          *api.AuthService
	cases         *api.CaseService
	evolutions    *api.EvolutionService
	hospitals     *api.HospitalService
	locations     *api.LocationService
	imports       *api.ImportService
	publications  *api.PublicationService
	notifications *api.NotificationService
	quizzes       *api.QuizService
	users         *api.UserService
	permissions   *api.PermissionService

	redis *redis.Client // nil unless a Redis session backend or hub stream is configured
	db    *sql.DB
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if cfg.Session.Backend == "redis" || cfg.Hub.Stream != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	kv, err := a.sessionKV(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.session = session.NewStore(kv, cfg.Session.KeyPrefix, logger)

	a.client = api.NewClient(api.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
		Tokens:    a.session,
	}, logger)

	a.auth = api.NewAuthService(a.client)
	a.cases = api.NewCaseService(a.client)
	a.evolutions = api.NewEvolutionService(a.client)
	a.hospitals = api.NewHospitalService(a.client)
	a.locations = api.NewLocationService(a.client)
	a.imports = api.NewImportService(a.client)
	a.publications = api.NewPublicationService(a.client)
	a.notifications = api.NewNotificationService(a.client)
	a.quizzes = api.NewQuizService(a.client)
	a.users = api.NewUserService(a.client)
	a.permissions = api.NewPermissionService(a.client)
	return a, nil
}

func (a *app) sessionKV(ctx context.Context) (session.KV, error) {
	switch a.cfg.Session.Backend {
	case "redis":
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return session.NewRedisKV(a.redis), nil
	case "postgres":
		db, err := database.NewPostgresDB(&a.cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		kv := session.NewPostgresKV(db)
		if err := kv.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return kv, nil
	case "memory":
		return session.NewMemoryKV(), nil
	default:
		path := a.cfg.Session.Path
		if path == "" {
			p, err := session.DefaultFilePath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		return session.NewFileKV(path), nil
	}
}

// refreshExpiredToken renews a stored token whose exp claim has passed. A
// failed renewal only warns: the command may not need a session at all.
func (a *app) refreshExpiredToken(ctx context.Context, now time.Time) {
	tok, err := a.session.Token(ctx)
	if err != nil || tok == "" {
		return
	}
	expired, err := a.session.TokenExpired(ctx, now)
	if err != nil || !expired {
		return
	}
	refresh, err := a.session.RefreshToken(ctx)
	if err != nil || refresh == "" {
		a.logger.Warn("Session token expired, log in again")
		return
	}
	resp, err := a.auth.Refresh(ctx, refresh)
	if err != nil {
		a.logger.Warn("Failed to refresh session token", zap.Error(err))
		return
	}
	if err := a.session.SaveLogin(ctx, resp); err != nil {
		a.logger.Warn("Failed to store refreshed token", zap.Error(err))
		return
	}
	a.logger.Debug("Session token refreshed")
}

func (a *app) importer() *importer.Importer {
	return importer.NewImporter(a.imports, a.logger)
}

// streamPublisher fan-out target for hub events; nil when no stream is configured.
func (a *app) streamPublisher() *realtime.StreamPublisher {
	if a.cfg.Hub.Stream == "" || a.redis == nil {
		return nil
	}
	return realtime.NewStreamPublisher(a.redis, a.cfg.Hub.Stream, 10000)
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Error closing redis client", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.logger.Warn("Error closing database", zap.Error(err))
		}
	}
}
