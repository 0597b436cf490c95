package main

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"torrentfront/internal/auth"
	"torrentfront/pkg/database"
	"torrentfront/pkg/utils"
)

func main() {
	app := cli.NewApp()
	app.Name = "import-users"
	app.Usage = "creates or updates accounts from a CSV file (username,password,is_admin)"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "file, f",
			Usage:  "input CSV path",
			Value:  "data/users.csv",
			EnvVar: "TORRENTFRONT_USERS_CSV",
		},
		cli.StringFlag{
			Name:   "db",
			Usage:  "sqlite database path",
			Value:  database.DefaultConfig().Path,
			EnvVar: "TORRENTFRONT_DB_PATH",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	utils.ConfigureLogging(utils.LoadLogConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.Open(database.Config{Path: c.String("db")})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		return err
	}

	f, err := os.Open(c.String("file"))
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := importUsers(ctx, auth.NewRepo(db), f)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"file": c.String("file"), "users": n}).Info("users imported")
	return nil
}
