package main

import (
	"context"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"torrentfront/internal/auth"
	"torrentfront/internal/events"
	"torrentfront/internal/metrics"
	"torrentfront/internal/server"
	"torrentfront/internal/telemetry"
	"torrentfront/pkg/database"
	"torrentfront/pkg/utils"
)

func main() {
	utils.ConfigureLogging(utils.LoadLogConfig())
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, "torrentfront-api")
	if err != nil {
		log.WithError(err).Fatal("failed to init telemetry")
	}
	metrics.Register(prometheus.DefaultRegisterer)

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("db migrate failed")
	}

	dir, err := server.NewDirectory(utils.LoadUpstreamConfig())
	if err != nil {
		log.WithError(err).Fatal("failed to build directory")
	}

	catalog, closeCache := server.NewCatalog(ctx, utils.LoadTMDBConfig())
	defer closeCache()

	authCfg := utils.LoadAuthConfig()
	tokens := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}

	srvCfg := utils.LoadServerConfig()
	hub := events.NewHub()
	router := server.NewRouter(server.Deps{
		DB:        db,
		Directory: dir,
		Catalog:   catalog,
		Hub:       hub,
		Tokens:    tokens,
		Server:    srvCfg,
	})

	httpSrv := &http.Server{
		Addr:              srvCfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	var feed *events.TCPServer
	if srvCfg.EventsAddr != "off" {
		feed = events.NewTCPServer(srvCfg.EventsAddr, hub)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := feed.Run(); err != nil {
				errCh <- err
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.WithFields(log.Fields{"addr": srvCfg.HTTPAddr, "db": dbCfg.Path}).Info("HTTP API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.WithError(err).Error("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown error")
	}
	if feed != nil {
		if err := feed.Close(); err != nil {
			log.WithError(err).Warn("event feed shutdown error")
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.WithError(err).Warn("tracer shutdown error")
	}

	wg.Wait()
	log.Info("server stopped")
}
