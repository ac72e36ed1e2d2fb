package main

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/classify/internal/models"
	"github.com/desertthunder/classify/internal/server"
	"github.com/desertthunder/classify/internal/ui"
	"github.com/urfave/cli/v3"
)

// Routes prints every HTTP route with its auth requirement. The table only needs
// to know which upstreams are configured, so the tag cache database is left closed.
func (r *Runner) Routes(ctx context.Context, cmd *cli.Command) error {
	quiet := log.New(io.Discard)
	var deps server.Deps
	if r.deps != nil {
		deps = *r.deps
	} else {
		deps = buildDeps(r.cfg(), r.httpClient, nil, quiet)
	}
	router := server.New(r.cfg().Server, deps, quiet)

	rows := [][]string{}
	for _, route := range router.Routes() {
		auth := ""
		if route.Protected {
			auth = "bearer"
		}
		rows = append(rows, []string{route.Method, route.Path, auth, route.Summary})
	}

	r.writePlainln(ui.Styles.Title("classify routes on " + r.cfg().Server.Addr()))
	return r.writePlainln(ui.Styles.Table([]string{"METHOD", "PATH", "AUTH", "SUMMARY"}, rows, 3))
}

// Describe generates a playlist name and description from the flags.
func (r *Runner) Describe(ctx context.Context, cmd *cli.Command) error {
	describer := r.services().Describer
	if err := requireConfigured(describer != nil, "OpenAI"); err != nil {
		return err
	}

	energy, valence := cmd.Float("energy"), cmd.Float("valence")
	desc, err := describer.Describe(ctx, models.DescriptionRequest{
		Genre:   cmd.String("genre"),
		Energy:  &energy,
		Valence: &valence,
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(desc, true)
	}
	r.writePlainln(ui.Styles.Title(desc.Name))
	return r.writePlainln(desc.Description)
}

// Tags prints Last.fm top tags for --artist and --track.
func (r *Runner) Tags(ctx context.Context, cmd *cli.Command) error {
	tagger := r.services().Tagger
	if err := requireConfigured(tagger != nil, "Last.fm"); err != nil {
		return err
	}

	artist := strings.TrimSpace(cmd.String("artist"))
	track := strings.TrimSpace(cmd.String("track"))
	tags, err := tagger.TopTags(ctx, artist, track)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"tags": tags}, true)
	}
	if len(tags) == 0 {
		return r.writePlainln(ui.Styles.Warn("No tags for %s - %s", artist, track))
	}

	rows := make([][]string, len(tags))
	for i, tag := range tags {
		rows[i] = []string{tag.Name, strconv.Itoa(tag.Count)}
	}
	return r.writePlainln(ui.Styles.Table([]string{"TAG", "COUNT"}, rows, 1))
}
