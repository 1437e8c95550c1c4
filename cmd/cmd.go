// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles storage initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the default config.toml",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize storage and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent SQLite migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles the stored session.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the stored session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and store the access token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Account username",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password",
						Sources: cli.EnvVars("COURSEFINDER_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first-name", Usage: "First name", Required: true},
					&cli.StringFlag{Name: "last-name", Usage: "Last name"},
					&cli.StringFlag{Name: "email", Usage: "Email address", Required: true},
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account username", Required: true},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password",
						Sources: cli.EnvVars("COURSEFINDER_PASSWORD"),
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Remove the stored token",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show whether a session is stored",
				Action: r.AuthStatus,
			},
			{
				Name:  "me",
				Usage: "Fetch the signed-in profile",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthMe,
			},
		},
	}
}

// coursesCommand handles catalog lookups.
func coursesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "courses",
		Aliases: []string{"c"},
		Usage:   "Search the Open Library catalog",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search courses by subject or title",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"l"},
						Usage:   "Maximum number of results (default from config)",
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
				Action: r.CoursesSearch,
			},
			{
				Name:  "show",
				Usage: "Show details for a work key such as /works/OL45804W",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "key"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the course page in the browser",
					},
				},
				Action: r.CoursesShow,
			},
		},
	}
}

// favoritesCommand handles the favorites collection.
func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage favorite courses",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List favorites",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.FavoritesList,
			},
			{
				Name:  "toggle",
				Usage: "Add or remove a course by work key",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "key"},
				},
				Action: r.FavoritesToggle,
			},
			{
				Name:  "export",
				Usage: "Export favorites to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: csv, md, txt or json",
						Value:   "txt",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (directory for md)",
					},
					&cli.BoolFlag{
						Name:  "covers",
						Usage: "Download cover images (md only)",
					},
					&cli.BoolFlag{
						Name:  "stdout",
						Usage: "Write to standard output instead of a file",
					},
				},
				Action: r.FavoritesExport,
			},
		},
	}
}

// themeCommand handles the theme preference.
func themeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "theme",
		Usage: "Show or change the color theme",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the current theme",
				Action: r.ThemeShow,
			},
			{
				Name:   "toggle",
				Usage:  "Switch between light and dark",
				Action: r.ThemeToggle,
			},
			{
				Name:  "set",
				Usage: "Set the theme to light or dark",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "mode"},
				},
				Action: r.ThemeSet,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive course finder",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI owns the terminal",
				Value: "./tmp/coursefinder-tui.log",
			},
		},
		Action: r.TUI,
	}
}
