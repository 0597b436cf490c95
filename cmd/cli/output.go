package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"torrentfront/internal/events"
	"torrentfront/pkg/models"
)

func printTable(w io.Writer, torrents []models.Torrent) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tAGE\tSE\tLE\tDONE")
	for _, t := range torrents {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\n",
			t.ID, truncate(t.Name, 60), humanize.IBytes(uint64(t.Size)), humanize.Time(t.CreatedAt),
			t.Seeders, t.Leechers, t.Completed)
	}
	_ = tw.Flush()
}

func printDetails(w io.Writer, t models.Torrent) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\t%s\n", t.Name)
	fmt.Fprintf(tw, "Info hash\t%s\n", t.InfoHash)
	fmt.Fprintf(tw, "Size\t%s\n", humanize.IBytes(uint64(t.Size)))
	fmt.Fprintf(tw, "Added\t%s (%s)\n", t.CreatedAt.Format("2006-01-02 15:04"), humanize.Time(t.CreatedAt))
	fmt.Fprintf(tw, "Kind\t%s\n", orDash(string(t.Kind())))
	fmt.Fprintf(tw, "Quality\t%s\n", orDash(deref(t.Quality)))
	fmt.Fprintf(tw, "Release group\t%s\n", orDash(deref(t.ReleaseGroup)))
	fmt.Fprintf(tw, "Audio\t%s\n", orDash(strings.Join(t.AudioLanguages, ", ")))
	fmt.Fprintf(tw, "Subtitles\t%s\n", orDash(strings.Join(t.SubtitleLanguages, ", ")))
	fmt.Fprintf(tw, "Swarm\t%s seeders, %s leechers, %s completed\n",
		humanize.Comma(t.Seeders), humanize.Comma(t.Leechers), humanize.Comma(t.Completed))
	if t.TMDBID != nil {
		fmt.Fprintf(tw, "TMDB\t%d\n", *t.TMDBID)
	}
	if d := deref(t.Description); d != "" {
		fmt.Fprintf(tw, "\n%s\n", d)
	}
	_ = tw.Flush()
}

func printEvent(w io.Writer, msg []byte) {
	var ev events.TorrentEvent
	if err := json.Unmarshal(msg, &ev); err != nil || ev.Type != events.TypeTorrentCreated {
		fmt.Fprintln(w, string(msg))
		return
	}
	fmt.Fprintf(w, "[%s] new torrent #%d %s (%s, %s)\n",
		ev.At.Local().Format("15:04:05"), ev.Torrent.ID, ev.Torrent.Name,
		humanize.IBytes(uint64(ev.Torrent.Size)), ev.Source)
}

func jsonList(values []string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}
	b, err := json.Marshal(values)
	return string(b), err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
