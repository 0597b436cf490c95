package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const (
	apiFlag   = "api"
	tokenFlag = "token-file"
)

func main() {
	app := cli.NewApp()
	app.Name = "torrentfront"
	app.Usage = "browse and upload torrents through the torrentfront API"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   apiFlag,
			Usage:  "API base URL",
			Value:  "http://localhost:8080",
			EnvVar: "TORRENTFRONT_API_URL",
		},
		cli.StringFlag{
			Name:   tokenFlag,
			Usage:  "where the session token is stored",
			Value:  defaultTokenPath(),
			EnvVar: "TORRENTFRONT_TOKEN_FILE",
		},
	}
	app.Commands = []cli.Command{
		makeLoginCMD(),
		makeRegisterCMD(),
		makeLogoutCMD(),
		makeListCMD(),
		makeSearchCMD(),
		makeShowCMD(),
		makeStatsCMD(),
		makeUploadCMD(),
		makeWatchCMD(),
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func clientFrom(c *cli.Context) (*apiClient, error) {
	token, err := readToken(c.GlobalString(tokenFlag))
	if err != nil {
		return nil, err
	}
	return newAPIClient(c.GlobalString(apiFlag), token), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
