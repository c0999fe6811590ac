// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// rootFlags are inherited by every subcommand.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("PLAYSYNC_CONFIG"),
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Log match reasoning at debug level",
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml template to --config",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles the OAuth2 sign-in for each service
func authCommand(r *Runner) *cli.Command {
	timeout := func() cli.Flag {
		return &cli.DurationFlag{
			Name:  "timeout",
			Usage: "How long to wait for the browser redirect",
			Value: defaultAuthTimeout,
		}
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in to Spotify or YouTube",
		Commands: []*cli.Command{
			{
				Name:    "spotify",
				Aliases: []string{"spot"},
				Usage:   "Authenticate with Spotify using OAuth2",
				Flags:   []cli.Flag{timeout()},
				Action:  r.AuthSpotify,
			},
			{
				Name:    "youtube",
				Aliases: []string{"yt"},
				Usage:   "Authenticate with YouTube using Google OAuth2",
				Flags:   []cli.Flag{timeout()},
				Action:  r.AuthYouTube,
			},
		},
	}
}

// syncCommand reconciles playlist pairs
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile Spotify and YouTube playlists",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Match the newest items of each playlist into the other",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "pair",
						Aliases: []string{"p"},
						Usage:   "Configured pair name",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Sync every configured pair",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Spotify playlist ID (with --target, instead of --pair)",
					},
					&cli.StringFlag{
						Name:  "target",
						Usage: "YouTube playlist ID (with --source, instead of --pair)",
					},
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   "forward (Spotify → YouTube), reverse (YouTube → Spotify) or both",
						Value:   "forward",
					},
					&cli.BoolFlag{
						Name:    "dry-run",
						Aliases: []string{"n"},
						Usage:   "Build and print the plan without changing playlists or caches",
					},
					&cli.IntFlag{
						Name:  "window",
						Usage: "Newest source items considered per forward leg (default from config)",
					},
					&cli.IntFlag{
						Name:  "reverse-window",
						Usage: "Newest source items considered per reverse leg (default from config)",
					},
					&cli.IntFlag{
						Name:  "slack",
						Usage: "Duration slack in seconds (default from config)",
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Write per-leg plan reports: csv or json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Report directory (default: playsync_reports_{timestamp})",
					},
				},
				Action: r.SyncRun,
			},
		},
	}
}

// cacheCommand inspects and repairs sync caches
func cacheCommand(r *Runner) *cli.Command {
	playlist := func() cli.Flag {
		return &cli.StringFlag{
			Name:     "playlist",
			Usage:    "Source playlist ID the cache belongs to",
			Required: true,
		}
	}

	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and repair sync caches",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show a playlist's seen IDs and mappings",
				Flags: []cli.Flag{
					playlist(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the cache document as JSON",
					},
				},
				Action: r.CacheShow,
			},
			{
				Name:  "forget",
				Usage: "Remove one mapping so the item is matched again",
				Flags: []cli.Flag{
					playlist(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Source item ID whose mapping to remove",
						Required: true,
					},
				},
				Action: r.CacheForget,
			},
		},
	}
}

// pairsCommand lists configured pairs
func pairsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "pairs",
		Usage: "Configured playlist pairs",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List [[pairs]] from the config file",
				Action: r.PairsList,
			},
		},
	}
}

// historyCommand lists recorded runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Recorded sync runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent legs, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "pair",
						Usage: "Only runs of this pair",
					},
					&cli.StringFlag{
						Name:  "playlist",
						Usage: "Only runs whose source is this playlist",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
		},
	}
}
