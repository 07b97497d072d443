package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbolis/quick-event/app"
	"github.com/mbolis/quick-event/autosync"
	"github.com/mbolis/quick-event/config"
	"github.com/mbolis/quick-event/database"
	"github.com/mbolis/quick-event/datasource"
	"github.com/mbolis/quick-event/httpx"
	"github.com/mbolis/quick-event/log"
	"github.com/mbolis/quick-event/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.SetJSON(cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	google := datasource.GoogleOAuth(cfg)
	dataSources := datasource.NewService(db, datasource.NewGoogleForms(google))

	app := app.App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
		DataSources:  dataSources,
		Google:       google,
		Validate:     app.NewValidator(),
	}

	if !cfg.SyncDisabled {
		scheduler := autosync.New(dataSources)
		scheduler.Interval = cfg.SyncInterval
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	handler := routes.Wire(app)

	err = runServer(ctx, cfg, handler)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(ctx context.Context, cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	shutdown := make(chan struct{})
	go func() {
		defer close(shutdown)
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnf("main.server.shutdown: %s", err)
		}
	}()

	log.Info("Listening on " + cfg.Url())
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		// let in-flight requests finish
		<-shutdown
	}
	return err
}
