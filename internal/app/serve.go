package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agenthands/clustercheck/internal/config"
	"github.com/agenthands/clustercheck/internal/server"
)

// Start resumes resumeID when it is set and opens a new session otherwise.
func Start(ctx context.Context, cfg *config.Config, input, resumeID string, logger *zap.Logger) (*App, error) {
	if resumeID != "" {
		return Resume(ctx, cfg, input, resumeID, logger)
	}
	return Open(ctx, cfg, input, logger)
}

// Router builds the HTTP decision channel for the session.
func (a *App) Router() *gin.Engine {
	gin.SetMode(a.Config.Server.Mode)
	srv := server.NewServer(a.Session, server.Options{
		SnapshotDir: a.Config.Session.SnapshotDir,
		Publisher:   a.PartitionPublisher(),
		Logger:      a.logger,
	})
	return srv.SetupRouter()
}

// Serve listens on the configured port until the server stops.
func (a *App) Serve() error {
	addr := fmt.Sprintf(":%d", a.Config.Server.Port)
	a.logger.Info("starting server", zap.String("addr", addr), zap.String("session_id", a.Session.ID))
	return a.Router().Run(addr)
}
