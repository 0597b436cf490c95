package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

func makeLoginCMD() cli.Command {
	return cli.Command{
		Name:  "login",
		Usage: "Logs in and stores the session token",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "username, u"},
			cli.StringFlag{Name: "password, p", EnvVar: "TORRENTFRONT_PASSWORD"},
		},
		Action: login,
	}
}

func login(c *cli.Context) error {
	username, password := c.String("username"), c.String("password")
	if username == "" || password == "" {
		return errors.New("username and password are required")
	}
	ctx, cancel := signalContext()
	defer cancel()

	resp, err := newAPIClient(c.GlobalString(apiFlag), "").login(ctx, username, password)
	if err != nil {
		return errors.Wrap(err, "login failed")
	}
	if err := saveToken(c.GlobalString(tokenFlag), resp.Token); err != nil {
		return errors.Wrap(err, "save token")
	}
	fmt.Printf("logged in as %s (session until %s)\n", resp.User.Username, resp.ExpiresAt)
	return nil
}

func makeRegisterCMD() cli.Command {
	return cli.Command{
		Name:  "register",
		Usage: "Creates an account",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "username, u"},
			cli.StringFlag{Name: "password, p", EnvVar: "TORRENTFRONT_PASSWORD"},
		},
		Action: func(c *cli.Context) error {
			username, password := c.String("username"), c.String("password")
			if username == "" || password == "" {
				return errors.New("username and password are required")
			}
			ctx, cancel := signalContext()
			defer cancel()
			if err := newAPIClient(c.GlobalString(apiFlag), "").register(ctx, username, password); err != nil {
				return errors.Wrap(err, "register failed")
			}
			fmt.Println("account created, run login next")
			return nil
		},
	}
}

func makeLogoutCMD() cli.Command {
	return cli.Command{
		Name:  "logout",
		Usage: "Forgets the stored session token",
		Action: func(c *cli.Context) error {
			if err := clearToken(c.GlobalString(tokenFlag)); err != nil {
				return errors.Wrap(err, "logout failed")
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringSliceFlag{Name: "quality", Usage: "quality filter, repeatable"},
		cli.StringSliceFlag{Name: "audio", Usage: "audio language filter, repeatable"},
		cli.StringSliceFlag{Name: "subtitles", Usage: "subtitle language filter, repeatable"},
		cli.StringSliceFlag{Name: "type", Usage: "movie, tv or all"},
		cli.StringFlag{Name: "sort", Usage: "seeders, leechers or completed"},
		cli.StringFlag{Name: "order", Usage: "asc or desc"},
	}
}

func filterParams(c *cli.Context) url.Values {
	v := url.Values{}
	for _, key := range []string{"quality", "audio", "subtitles", "type"} {
		for _, s := range c.StringSlice(key) {
			v.Add(key, s)
		}
	}
	for _, key := range []string{"sort", "order"} {
		if s := c.String(key); s != "" {
			v.Set(key, s)
		}
	}
	return v
}

func makeListCMD() cli.Command {
	return cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "Lists one page of torrents",
		Flags: append(filterFlags(),
			cli.IntFlag{Name: "page", Value: 1},
			cli.IntFlag{Name: "limit", Value: 25},
		),
		Action: func(c *cli.Context) error {
			api, err := clientFrom(c)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			params := filterParams(c)
			params.Set("page", strconv.Itoa(c.Int("page")))
			params.Set("limit", strconv.Itoa(c.Int("limit")))
			resp, err := api.list(ctx, params)
			if err != nil {
				return err
			}
			printTable(os.Stdout, resp.Torrents)
			fmt.Printf("page %d of %d, %d torrents total (%s)\n", resp.Page, resp.TotalPages, resp.Total, resp.Source)
			return nil
		},
	}
}

func makeSearchCMD() cli.Command {
	return cli.Command{
		Name:      "search",
		Usage:     "Searches torrents by name",
		ArgsUsage: "<query>",
		Flags: append(filterFlags(),
			cli.StringFlag{Name: "category"},
			cli.StringFlag{Name: "media-type", Usage: "movie or tv, passed to the index"},
		),
		Action: func(c *cli.Context) error {
			q := strings.TrimSpace(strings.Join(c.Args(), " "))
			if q == "" {
				return errors.New("search query required")
			}
			api, err := clientFrom(c)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			params := filterParams(c)
			params.Set("query", q)
			if s := c.String("category"); s != "" {
				params.Set("category", s)
			}
			if s := c.String("media-type"); s != "" {
				params.Set("mediaType", s)
			}
			results, err := api.search(ctx, params)
			if err != nil {
				return err
			}
			printTable(os.Stdout, results)
			fmt.Printf("%d results\n", len(results))
			return nil
		},
	}
}

func idArg(c *cli.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("a positive torrent id is required")
	}
	return id, nil
}

func makeShowCMD() cli.Command {
	return cli.Command{
		Name:      "show",
		Usage:     "Shows one torrent",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return err
			}
			api, err := clientFrom(c)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			t, err := api.get(ctx, id)
			if err != nil {
				return err
			}
			printDetails(os.Stdout, *t)
			return nil
		},
	}
}

func makeStatsCMD() cli.Command {
	return cli.Command{
		Name:      "stats",
		Usage:     "Shows live swarm counters for a torrent",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return err
			}
			api, err := clientFrom(c)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			st, err := api.stats(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("seeders %d  leechers %d  completed %d\n", st.Seeders, st.Leechers, st.Completed)
			return nil
		},
	}
}

func makeUploadCMD() cli.Command {
	return cli.Command{
		Name:      "upload",
		Usage:     "Uploads a torrent",
		ArgsUsage: "[file.torrent]",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "name"},
			cli.StringFlag{Name: "description"},
			cli.StringFlag{Name: "category"},
			cli.StringFlag{Name: "media-type", Usage: "movie or tv"},
			cli.Int64Flag{Name: "tmdb-id"},
			cli.StringFlag{Name: "quality"},
			cli.StringFlag{Name: "release-group"},
			cli.StringSliceFlag{Name: "audio"},
			cli.StringSliceFlag{Name: "subtitles"},
		},
		Action: upload,
	}
}

func upload(c *cli.Context) error {
	api, err := clientFrom(c)
	if err != nil {
		return err
	}
	if api.token == "" {
		return errors.New("not logged in")
	}

	fields, err := uploadFields(c)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	t, err := api.upload(ctx, fields, c.Args().First())
	if err != nil {
		return err
	}
	fmt.Printf("uploaded #%d %s (%s)\n", t.ID, t.Name, t.InfoHash)
	return nil
}

func uploadFields(c *cli.Context) (map[string]string, error) {
	fields := map[string]string{
		"name":          c.String("name"),
		"description":   c.String("description"),
		"category":      c.String("category"),
		"media_type":    c.String("media-type"),
		"quality":       c.String("quality"),
		"release_group": c.String("release-group"),
	}
	if id := c.Int64("tmdb-id"); id > 0 {
		fields["tmdb_id"] = strconv.FormatInt(id, 10)
	}
	var err error
	if fields["audio_languages"], err = jsonList(c.StringSlice("audio")); err != nil {
		return nil, err
	}
	if fields["subtitle_languages"], err = jsonList(c.StringSlice("subtitles")); err != nil {
		return nil, err
	}
	return fields, nil
}

func makeWatchCMD() cli.Command {
	return cli.Command{
		Name:  "watch",
		Usage: "Prints upload events as they happen",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:   "tcp",
				Usage:  "read the JSON-lines feed at host:port instead of the websocket",
				EnvVar: "TORRENTFRONT_EVENTS_ADDR",
			},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel := signalContext()
			defer cancel()
			handle := func(msg []byte) { printEvent(os.Stdout, msg) }

			if addr := c.String("tcp"); addr != "" {
				return watchTCP(ctx, addr, handle)
			}
			api, err := clientFrom(c)
			if err != nil {
				return err
			}
			return api.watch(ctx, handle)
		},
	}
}
