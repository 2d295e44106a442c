package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/shelfmark/internal/auth"
	"github.com/listenupapp/shelfmark/internal/config"
	"github.com/listenupapp/shelfmark/internal/logger"
	"github.com/listenupapp/shelfmark/internal/service"
)

// SessionServiceHandle wraps the session service so its expiry sweeper stops on shutdown.
type SessionServiceHandle struct {
	*service.SessionService
}

// Shutdown implements do.Shutdownable.
func (h *SessionServiceHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideSessionService provides the session management service.
// The expiry sweeper is not started here; see StartSessionSweeper.
func ProvideSessionService(i do.Injector) (*SessionServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewSessionService(storeHandle.Store, tokenService, cfg.Auth.SessionSweepInterval, log.Logger)
	return &SessionServiceHandle{SessionService: svc}, nil
}

// StartSessionSweeper starts the periodic removal of expired sessions.
func StartSessionSweeper(i do.Injector) {
	handle := do.MustInvoke[*SessionServiceHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	handle.Start(context.Background())
	log.Info("Session sweeper started")
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessions := do.MustInvoke[*SessionServiceHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessions.SessionService, log.Logger), nil
}

// ProvideCatalogService provides the author, genre and book service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(storeHandle.Store, cfg.App.PageSize, log.Logger), nil
}

// ProvideRatingService provides the rating, review and read-list service.
func ProvideRatingService(i do.Injector) (*service.RatingService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRatingService(storeHandle.Store, cfg.App.PageSize, log.Logger), nil
}

// ProvideRecommendationService provides the recommendation service.
func ProvideRecommendationService(i do.Injector) (*service.RecommendationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRecommendationService(storeHandle.Store, log.Logger), nil
}

// ProvideDashboardService provides the rankings and admin overview service.
func ProvideDashboardService(i do.Injector) (*service.DashboardService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	snapshots := do.MustInvoke[*SnapshotStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewDashboardService(storeHandle.Store, snapshots.Store, cfg.App.PageSize, log.Logger), nil
}

// ProvideSeedService provides the bulk loading service.
func ProvideSeedService(i do.Injector) (*service.SeedService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSeedService(storeHandle.Store, service.SeedOptions{
		UserCap:   cfg.Seed.UserCap,
		RatingCap: cfg.Seed.RatingCap,
	}, log.Logger), nil
}
