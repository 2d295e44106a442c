package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/shelfmark/internal/api"
	"github.com/listenupapp/shelfmark/internal/authz"
	"github.com/listenupapp/shelfmark/internal/config"
	"github.com/listenupapp/shelfmark/internal/logger"
	"github.com/listenupapp/shelfmark/internal/service"
)

// APIServerHandle wraps the API handler so its limiter goroutine stops on shutdown.
type APIServerHandle struct {
	*api.Server
}

// Shutdown implements do.Shutdownable.
func (h *APIServerHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideAPIServer provides the routed API handler.
func ProvideAPIServer(i do.Injector) (*APIServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	enforcer := do.MustInvoke[*authz.Enforcer](i)

	services := &api.Services{
		Auth:            do.MustInvoke[*service.AuthService](i),
		Catalog:         do.MustInvoke[*service.CatalogService](i),
		Ratings:         do.MustInvoke[*service.RatingService](i),
		Search:          do.MustInvoke[*service.SearchService](i),
		Recommendations: do.MustInvoke[*service.RecommendationService](i),
		Dashboard:       do.MustInvoke[*service.DashboardService](i),
		Seed:            do.MustInvoke[*service.SeedService](i),
	}

	opts := api.OptionsFromConfig(cfg,
		api.HealthCheck{Name: "database", Check: storeHandle.Ping},
		api.HealthCheck{Name: "search", Check: func(context.Context) error {
			_, err := indexHandle.DocumentCount()
			return err
		}},
	)

	return &APIServerHandle{Server: api.NewServer(services, enforcer, opts, log.Logger)}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	shutdownTimeout time.Duration
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts listening in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	handler := do.MustInvoke[*APIServerHandle](i)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "name", cfg.Server.Name)

	return &HTTPServerHandle{Server: srv, shutdownTimeout: shutdownTimeout(cfg.Server.ShutdownTimeout)}, nil
}
