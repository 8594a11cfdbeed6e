package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"reconcile-engine/internal/config"
	"reconcile-engine/internal/db"
	"reconcile-engine/internal/handlers"
	"reconcile-engine/internal/logging"
)

func main() {
	log := logging.GetGlobalLogger().WithComponent("api")
	cfg := config.Load()

	database, err := db.Connect(cfg)
	if err != nil {
		log.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	defer database.Close()

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		log.WithError(err).Error("failed to create upload directory")
		os.Exit(1)
	}

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) { return true, nil },
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	uploadHandler := handlers.NewUploadHandler(database, cfg.UploadDir)
	batchHandler := handlers.NewBatchHandler(database)
	matchesHandler := handlers.NewMatchesHandler(database)
	actionsHandler := handlers.NewActionsHandler(database)

	e.POST("/api/reconciliation/upload", uploadHandler.Upload)
	e.GET("/api/reconciliation/:batchId", batchHandler.GetBatch)
	e.GET("/api/reconciliation/:batchId/matches", matchesHandler.ListMatches)
	e.GET("/api/reconciliation/:batchId/unmatched", matchesHandler.ListUnmatched)

	e.POST("/api/matches/:id/confirm", actionsHandler.ConfirmMatch)
	e.POST("/api/matches/:id/reject", actionsHandler.RejectMatch)
	e.POST("/api/matches/bulk-confirm", actionsHandler.BulkConfirm)
	e.POST("/api/splits/:id/confirm", actionsHandler.ConfirmSplit)
	e.POST("/api/splits/:id/reject", actionsHandler.RejectSplit)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("failed to start server")
			os.Exit(1)
		}
	}()

	log.WithFields(logging.Fields{"port": cfg.Port}).Info("api server started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info("shutting down")
}
