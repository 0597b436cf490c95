package server

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"torrentfront/internal/directory"
	"torrentfront/internal/seed"
	"torrentfront/internal/tmdb"
	"torrentfront/internal/upstream"
	"torrentfront/pkg/utils"
)

// NewDirectory builds the directory from configuration. A bad seed file is
// fatal to the caller.
func NewDirectory(cfg utils.UpstreamConfig) (*directory.Directory, error) {
	records, err := seed.LoadOrDefault(cfg.SeedPath)
	if err != nil {
		return nil, errors.Wrap(err, "load seed data")
	}

	var index directory.Index
	var tracker directory.Tracker
	if !cfg.UseMockData {
		index = upstream.NewIndexClient(upstream.IndexConfig{BaseURL: cfg.IndexURL, Timeout: cfg.Timeout})
		tracker = upstream.NewTrackerClient(upstream.TrackerConfig{
			BaseURL:  cfg.TrackerURL,
			Username: cfg.TrackerUsername,
			Password: cfg.TrackerPassword,
			Timeout:  cfg.Timeout,
		})
	}

	log.WithFields(log.Fields{
		"mock":         cfg.UseMockData,
		"index":        cfg.IndexURL,
		"seed_records": len(records),
	}).Info("directory configured")

	return directory.New(index, tracker, directory.Config{
		MockOnly: cfg.UseMockData,
		Records:  records,
	}), nil
}

// NewCatalog builds the TMDB client, with a Redis cache when REDIS_URL is
// set and reachable.
func NewCatalog(ctx context.Context, cfg utils.TMDBConfig) (*tmdb.Client, func()) {
	closeFn := func() {}
	var cache tmdb.Cache
	if cfg.RedisURL != "" {
		rc, err := tmdb.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, metadata cache disabled")
		} else {
			cache = rc
			closeFn = func() { _ = rc.Close() }
		}
	}

	c := tmdb.NewClient(tmdb.Config{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		ImageBaseURL: cfg.ImageBaseURL,
		Cache:        cache,
		CacheTTL:     cfg.CacheTTL,
	})
	log.WithFields(log.Fields{"enabled": c.Enabled(), "cache": cache != nil}).Info("tmdb client initialized")
	return c, closeFn
}
