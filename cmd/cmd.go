// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// newApp builds the root command. The persistent --config flag is read by every subcommand.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "classify",
		Usage:   "Backend for playlist classification: Spotify, Last.fm, OpenAI and clustering proxies",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file applied over the config",
				Value: ".env",
			},
		},
		Before:   r.Load,
		After:    r.Close,
		Commands: r.register(),
	}
}

// serveCommand starts the HTTP server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write an example config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Where to write the config file",
						Value: "config.toml",
					},
					&cli.BoolFlag{
						Name:  "resolved",
						Usage: "Write the loaded config with environment overrides applied",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the tag cache database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Action: r.RollbackDatabase,
			},
		},
	}
}

// cacheCommand manages the Last.fm tag cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and clear the Last.fm tag cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cache entry counts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheStats,
			},
			{
				Name:  "clear",
				Usage: "Delete cached tags",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "expired",
						Usage: "Only delete entries older than the configured TTL",
					},
				},
				Action: r.CacheClear,
			},
		},
	}
}

// routesCommand prints the HTTP route table
func routesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "routes",
		Usage:  "List HTTP routes and whether their upstream is configured",
		Action: r.Routes,
	}
}

// describeCommand generates a playlist name and description
func describeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "describe",
		Usage: "Generate a playlist name and description with OpenAI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "genre",
				Aliases:  []string{"g"},
				Usage:    "Dominant genre",
				Required: true,
			},
			&cli.FloatFlag{
				Name:     "energy",
				Usage:    "Average energy (0-1)",
				Required: true,
			},
			&cli.FloatFlag{
				Name:     "valence",
				Usage:    "Average valence (0-1)",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Describe,
	}
}

// tagsCommand looks up Last.fm top tags
func tagsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "Fetch Last.fm top tags for a track",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "artist",
				Aliases:  []string{"a"},
				Usage:    "Artist name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "track",
				Aliases:  []string{"t"},
				Usage:    "Track title",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Tags,
	}
}
