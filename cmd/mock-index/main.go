package main

import (
	"os"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"torrentfront/internal/middleware"
	"torrentfront/internal/seed"
	"torrentfront/pkg/utils"
)

func main() {
	app := cli.NewApp()
	app.Name = "mock-index"
	app.Usage = "serves the seed dataset through the torrent index and tracker APIs for local development"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "addr", Value: ":3001", EnvVar: "MOCK_INDEX_ADDR"},
		cli.StringFlag{Name: "seed", Usage: "seed file, embedded dataset when empty", EnvVar: "TORRENTFRONT_SEED_PATH"},
		cli.StringFlag{Name: "tracker-username", Value: "admin", EnvVar: "TORRENTFRONT_TRACKER_USERNAME"},
		cli.StringFlag{Name: "tracker-password", Value: "password", EnvVar: "TORRENTFRONT_TRACKER_PASSWORD"},
	}
	app.Action = serve

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(c *cli.Context) error {
	utils.ConfigureLogging(utils.LoadLogConfig())
	gin.SetMode(gin.ReleaseMode)

	records, err := seed.LoadOrDefault(c.String("seed"))
	if err != nil {
		return err
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger())
	newIndex(records).routes(r.Group("/api"), gin.Accounts{
		c.String("tracker-username"): c.String("tracker-password"),
	})

	log.WithFields(log.Fields{"addr": c.String("addr"), "records": len(records)}).Info("mock index listening")
	return r.Run(c.String("addr"))
}
