// Package server assembles the HTTP admin API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mikepea/diradmin/pkg/diradmin/auth"
	"github.com/mikepea/diradmin/pkg/diradmin/directory"
	"github.com/mikepea/diradmin/pkg/diradmin/exclusive"
	"github.com/mikepea/diradmin/pkg/diradmin/groups"
	"github.com/mikepea/diradmin/pkg/diradmin/importexport"
	"github.com/mikepea/diradmin/pkg/diradmin/users"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the gin engine serving the admin API. All /api routes
// require an admin token; writes other than lock management are refused
// while another user holds the exclusive lock.
func NewRouter(svc *directory.Service, signer *auth.Signer, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(RequestID(), AccessLog(log.Named("http")), Recovery(log))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(auth.AuthMiddleware(signer), auth.RequireAdmin())
	{
		// Lock routes stay reachable so the lock can always be released
		exclusiveHandler := exclusive.NewHandler(svc, log)
		exclusiveHandler.RegisterRoutes(api.Group("/exclusive"))

		guarded := api.Group("", exclusive.RequireWriteAccess(svc, log))

		groupsHandler := groups.NewHandler(svc, log)
		groupsGroup := guarded.Group("/groups")
		groupsHandler.RegisterRoutes(groupsGroup)
		groupsHandler.RegisterMemberRoutes(groupsGroup)
		groupsHandler.RegisterPermissionRoutes(groupsGroup)

		usersHandler := users.NewHandler(svc, log)
		usersHandler.RegisterRoutes(guarded.Group("/users"))
		usersHandler.RegisterAdminRoutes(guarded)

		importExportHandler := importexport.NewHandler(svc, log)
		importExportHandler.RegisterRoutes(guarded)
	}

	return r
}

// Run serves handler on addr until ctx is cancelled, then shuts down gracefully
func Run(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting diradmin server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	log.Info("shutting down diradmin server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "graceful shutdown failed")
	}
	return nil
}
