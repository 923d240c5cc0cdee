// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "username",
			Aliases: []string{"u"},
			Usage:   "Account name (prompted when omitted)",
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Account password (prompted without echo when omitted)",
		},
	}
}

// setupCommand initializes configuration and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml, initialize the database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// loginCommand exchanges credentials for a stored session token.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Log in and store the session token",
		Flags:  credentialFlags(),
		Action: r.Login,
	}
}

// registerCommand creates an account and stores its session token.
func registerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "register",
		Usage:  "Create an account and store the session token",
		Flags:  credentialFlags(),
		Action: r.Register,
	}
}

// logoutCommand forgets the stored session token.
func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Remove the stored session token",
		Action: r.Logout,
	}
}

// whoamiCommand resolves the identity behind the stored token.
func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the logged-in user",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.WhoAmI,
	}
}

// productsCommand lists the catalogue with favorite marks.
func productsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "products",
		Aliases: []string{"ls"},
		Usage:   "List products, marking favorites when logged in",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv, markdown or json",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to this file instead of stdout",
			},
		},
		Action: r.Products,
	}
}

// favoritesCommand handles the current user's favorites.
func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage favorites of the logged-in user",
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
				Name:  "add",
				Usage: "Mark a product as favorite",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "product-id",
					},
				},
				Action: r.FavoritesAdd,
			},
			{
				Name:    "remove",
				Aliases: []string{"rm"},
				Usage:   "Remove a favorite by its id",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "favorite-id",
					},
				},
				Action: r.FavoritesRemove,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the favorites API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "auth",
						Usage: "Send the stored session token",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive client",
		Action:  r.TUI,
	}
}

// devserverCommand serves the in-memory favorites API.
func devserverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "devserver",
		Usage: "Run an in-memory favorites API for local use",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to bind (defaults to server.host from config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to bind (defaults to server.port from config)",
			},
		},
		Action: r.DevServer,
	}
}
