package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/adapters/api"
	"github.com/phenrril/storefront/internal/adapters/catalogfile"
	"github.com/phenrril/storefront/internal/adapters/httpserver"
	pgrepo "github.com/phenrril/storefront/internal/adapters/repo/postgres"
	"github.com/phenrril/storefront/internal/adapters/storage/localfs"
	"github.com/phenrril/storefront/internal/adapters/storage/memory"
	"github.com/phenrril/storefront/internal/adapters/storage/redisstore"
	"github.com/phenrril/storefront/internal/config"
	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/events"
	"github.com/phenrril/storefront/internal/usecase"
)

type App struct {
	Config    config.Config
	DB        *gorm.DB
	Storage   domain.Storage
	API       *api.Client
	Bus       *events.Bus
	CatalogUC *usecase.CatalogUC
	AuthUC    *usecase.AuthUC
	SupportUC *usecase.SupportUC
	Sessions  *httpserver.Sessions

	closers []func() error
}

func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{Config: cfg, Bus: events.NewBus()}

	a.API = api.NewClient(cfg.APIBaseURL, cfg.APITimeout)

	storage, err := a.openStorage(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Storage = storage

	var source domain.CatalogSource
	switch cfg.CatalogSource {
	case "json":
		source = catalogfile.JSONSource{Path: cfg.CatalogFile}
	case "xlsx":
		source = catalogfile.XLSXSource{Path: cfg.CatalogFile}
	default:
		source = a.API
	}
	a.CatalogUC = &usecase.CatalogUC{Source: source, TTL: cfg.CatalogTTL}
	a.AuthUC = &usecase.AuthUC{}
	// los pedidos de soporte salen sin token
	a.SupportUC = &usecase.SupportUC{Gateway: a.API.Session(memory.New())}
	if a.DB != nil {
		a.SupportUC.Archive = pgrepo.NewSupportRepo(a.DB)
	}

	remote := func(store domain.Storage) (domain.RemoteCart, domain.AuthGateway) {
		sc := a.API.Session(store)
		return sc, sc
	}
	a.Sessions = httpserver.NewSessions(a.Storage, a.Bus, remote, cfg.SessionKey, cfg.SessionTTL, cfg.Production())
	a.closers = append(a.closers, func() error { a.Sessions.Close(); return nil })

	log.Info().
		Str("catalog", cfg.CatalogSource).
		Str("storage", cfg.StorageDriver).
		Str("api", cfg.APIBaseURL).
		Msg("storefront listo")
	return a, nil
}

func (a *App) openStorage(ctx context.Context) (domain.Storage, error) {
	cfg := a.Config
	switch cfg.StorageDriver {
	case "memory":
		return memory.New(), nil
	case "redis":
		s, err := redisstore.Open(ctx, cfg.RedisURL, "storefront", cfg.SessionTTL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("conectar a la base: %w", err)
		}
		if err := pgrepo.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrar: %w", err)
		}
		a.DB = db
		a.closers = append(a.closers, func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
		return pgrepo.NewKVRepo(db), nil
	}
	return localfs.New(cfg.StorageDir), nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(a.CatalogUC, a.AuthUC, a.SupportUC, a.Sessions)
}

// Run barre sesiones inactivas hasta que ctx se cancele.
func (a *App) Run(ctx context.Context) {
	idle := 30 * time.Minute
	a.Sessions.Run(ctx, time.Minute, idle)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("cerrar recurso")
		}
	}
	a.closers = nil
}
