// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration, database, and migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Sign in through the configured identity provider",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the current session",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and clear the saved session",
				Action: r.AuthLogout,
			},
		},
	}
}

// libraryCommand handles media record operations
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Manage media records",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a record to the library",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "title"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Record type: movie, tvshow, book, music",
						Value:   "movie",
					},
				},
				Action: r.LibraryAdd,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List records with optional filter, search, and sort",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Filter by type: all, movie, tvshow, book, music",
						Value:   "all",
					},
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Case-insensitive title search",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Sort order: none, newest, oldest, highest",
						Value: "none",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.LibraryList,
			},
			{
				Name:  "rate",
				Usage: "Rate a record from 0 (unrated) to 5 stars",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "rating"},
				},
				Action: r.LibraryRate,
			},
			{
				Name:  "edit",
				Usage: "Change a record's title or type",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "New title",
					},
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "New type: movie, tvshow, book, music",
					},
				},
				Action: r.LibraryEdit,
			},
			{
				Name:    "remove",
				Aliases: []string{"rm"},
				Usage:   "Delete a record from the library",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.LibraryRemove,
			},
			{
				Name:  "import",
				Usage: "Scan a directory of audio files and add them as music records",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "dir"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Report what would be imported without adding records",
					},
				},
				Action: r.LibraryImport,
			},
			{
				Name:  "export",
				Usage: "Write the library view to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown, txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Filter by type: all, movie, tvshow, book, music",
						Value:   "all",
					},
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Case-insensitive title search",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Sort order: none, newest, oldest, highest",
						Value: "none",
					},
				},
				Action: r.LibraryExport,
			},
			{
				Name:  "resync",
				Usage: "Re-persist records whose last save failed",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers",
						Value: 3,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Persist attempts per second",
						Value: 5,
					},
				},
				Action: r.LibraryResync,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive library management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for browsing and editing the library",
		Action:  r.TUI,
	}
}
