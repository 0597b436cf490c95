// Package server assembles the HTTP API.
package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"torrentfront/internal/auth"
	"torrentfront/internal/directory"
	"torrentfront/internal/events"
	"torrentfront/internal/middleware"
	"torrentfront/internal/tmdb"
	"torrentfront/internal/torrents"
	"torrentfront/pkg/utils"
)

type Deps struct {
	DB        *sql.DB
	Directory *directory.Directory
	Catalog   *tmdb.Client
	Hub       *events.Hub
	Tokens    auth.TokenService
	Server    utils.ServerConfig
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"127.0.0.1"})

	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(),
		cors.New(corsConfig(d.Server.CORSOrigins)),
		auth.Gate(d.Tokens, auth.DefaultPolicy()),
	)

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		stats := d.Hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := d.DB.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"ws_clients":  stats.WSClients,
				"tcp_clients": stats.TCPClients,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"mode":        modeOf(d.Directory),
			"ws_clients":  stats.WSClients,
			"tcp_clients": stats.TCPClients,
		})
	})
	r.GET("/ws", events.WSHandler(d.Hub))

	limiter := middleware.RateLimit(d.Server.RateLimitRPS, d.Server.RateLimitBurst)

	authHandler := auth.NewHandler(auth.NewRepo(d.DB), d.Tokens)
	authGroup := r.Group("/auth")
	authGroup.Use(limiter)
	authHandler.RegisterRoutes(authGroup)
	authHandler.RegisterProfile(r)

	var enricher torrents.Enricher
	if d.Catalog != nil && d.Catalog.Enabled() {
		enricher = tmdb.NewEnricher(d.Catalog, 0)
	}
	api := r.Group("/api")
	th := torrents.NewHandler(d.Directory, enricher, d.Hub)
	th.RegisterRoutes(api)
	th.RegisterUpload(api.Group("", limiter))
	if d.Catalog != nil {
		tmdb.NewHandler(d.Catalog).RegisterRoutes(api.Group("/tmdb"))
	}

	// the gate has already required an admin session for /admin
	r.GET("/admin/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"directory": d.Directory.Status(c.Request.Context()),
			"feed":      d.Hub.Stats(),
			"tmdb":      d.Catalog != nil && d.Catalog.Enabled(),
		})
	})

	return r
}

func modeOf(d *directory.Directory) string {
	if d.MockOnly() {
		return "mock"
	}
	return "live"
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"X-Data-Source", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
