package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mkvoss/tweakstash/internal/config"
	"github.com/mkvoss/tweakstash/internal/errors"
	"github.com/mkvoss/tweakstash/internal/ops"
	"github.com/mkvoss/tweakstash/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "tweakstash",
		Usage:   "OS tweak catalog and script composer",
		Version: Version,
		Commands: []*cli.Command{
			listCmd(db),
			showCmd(db),
			composeCmd(db, cfg),
			exportCmd(db, cfg),
			historyCmd(db),
			importCmd(db, cfg),
			statsCmd(db),
			serveCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Browse the tweak catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category id"},
			&cli.BoolFlag{Name: "include-hidden", Usage: "Include hidden tweaks"},
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "Max results per page"},
			&cli.IntFlag{Name: "offset", Value: 0, Usage: "Pagination offset"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ListInput{
				IncludeHidden: c.Bool("include-hidden"),
				Limit:         c.Int("limit"),
				Offset:        c.Int("offset"),
			}
			if category := c.String("category"); category != "" {
				input.CategoryID = &category
			}

			output, err := ops.List(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one tweak including its script body",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-code", Usage: "Exclude the script body from output"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("tweak id is required"))
			}

			input := ops.FetchInput{ID: c.Args().First()}
			if c.Bool("no-code") {
				includeCode := false
				input.IncludeCode = &includeCode
			}

			output, err := ops.Fetch(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// composeCmd creates the compose command.
func composeCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "compose",
		Usage:     "Compose tweaks into a single script and print it (no counters, no history)",
		ArgsUsage: "<id> [id...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "hide-sensitive", Usage: "Mask secrets in the output"},
			&cli.BoolFlag{Name: "normalize", Usage: "Normalize line endings and blank runs"},
			&cli.BoolFlag{Name: "json", Usage: "Emit JSON instead of the raw document"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("at least one tweak id is required"))
			}

			output, err := ops.Compose(c.Context, db, cfg, ops.ComposeInput{
				TweakIDs:      c.Args().Slice(),
				HideSensitive: c.Bool("hide-sensitive"),
				Normalize:     c.Bool("normalize"),
			})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(output)
			}
			fmt.Println(output.Document)
			return nil
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Compose tweaks and write the script to a file (bumps counters, records history)",
		ArgsUsage: "<id> [id...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Destination path (default: ~/.tweakstash/exports/tweaks-<timestamp>.ps1)"},
			&cli.StringFlag{Name: "encoding", Value: "utf8", Usage: "Output encoding: utf8|utf16"},
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Label for the history entry"},
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Value: ops.DefaultUserID, Usage: "User to record history under"},
			&cli.BoolFlag{Name: "hide-sensitive", Usage: "Mask secrets in the output"},
			&cli.BoolFlag{Name: "normalize", Usage: "Normalize line endings and blank runs"},
			&cli.BoolFlag{Name: "no-history", Usage: "Do not record a history entry"},
			&cli.BoolFlag{Name: "no-counters", Usage: "Do not bump download counters"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("at least one tweak id is required"))
			}

			input := ops.ExportInput{
				TweakIDs:      c.Args().Slice(),
				Path:          c.String("path"),
				Encoding:      c.String("encoding"),
				HideSensitive: c.Bool("hide-sensitive"),
				Normalize:     c.Bool("normalize"),
				UserID:        c.String("user"),
				SkipHistory:   c.Bool("no-history"),
				SkipCounters:  c.Bool("no-counters"),
			}
			if name := c.String("name"); name != "" {
				input.HistoryName = &name
			}

			output, err := ops.Export(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// historyCmd creates the history command with save/list subcommands.
func historyCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Saved selections",
		Subcommands: []*cli.Command{
			{
				Name:      "save",
				Usage:     "Save a selection without exporting",
				ArgsUsage: "<id> [id...]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Value: ops.DefaultUserID, Usage: "User the entry belongs to"},
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Label for the entry"},
					&cli.BoolFlag{Name: "favorite", Usage: "Mark as favorite"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return outputError(errors.NewInvalidRequest("at least one tweak id is required"))
					}

					input := ops.SaveHistoryInput{
						UserID:     c.String("user"),
						TweakIDs:   c.Args().Slice(),
						IsFavorite: c.Bool("favorite"),
					}
					if name := c.String("name"); name != "" {
						input.Name = &name
					}

					output, err := ops.SaveHistory(c.Context, db, input)
					if err != nil {
						return outputError(err)
					}

					return outputJSON(output)
				},
			},
			{
				Name:  "list",
				Usage: "List a user's saved selections, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Value: ops.DefaultUserID, Usage: "User whose history to list"},
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "Max results per page"},
					&cli.IntFlag{Name: "offset", Value: 0, Usage: "Pagination offset"},
				},
				Action: func(c *cli.Context) error {
					output, err := ops.HistoryForUser(c.Context, db, ops.HistoryForUserInput{
						UserID: c.String("user"),
						Limit:  c.Int("limit"),
						Offset: c.Int("offset"),
					})
					if err != nil {
						return outputError(err)
					}

					return outputJSON(output)
				},
			},
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Load a YAML catalog seed file",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Conflict mode: error|replace"},
			&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Keep running and re-import when the file changes"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("seed file path is required"))
			}
			path := c.Args().First()

			if c.Bool("watch") {
				if err := ops.Watch(c.Context, db, cfg, ops.WatchInput{
					Path: path,
					Mode: c.String("mode"),
				}); err != nil {
					return outputError(err)
				}
				return nil
			}

			output, err := ops.Import(c.Context, db, cfg, ops.ImportInput{
				Path: path,
				Mode: c.String("mode"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Download totals and most-downloaded tweaks",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 10, Usage: "Max entries in the top-downloads list"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Stats(c.Context, db, ops.StatsInput{Limit: c.Int("limit")})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Value: 7180, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(db, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if stashErr, ok := err.(*errors.StashError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", stashErr.Code, stashErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
