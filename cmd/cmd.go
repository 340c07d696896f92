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

func envFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "env-file",
		Usage: "KEY=VALUE file merged into the environment (existing variables win)",
	}
}

func debugFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
}

// serveCommand runs the gateway
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the helper page and the API proxy",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Directory holding the page and its assets",
			},
			envFileFlag(),
			debugFlag(),
		},
		Action: r.Serve,
	}
}

// tokenCommand checks the configured client credentials
func tokenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Fetch an access token to verify client credentials",
		Flags: []cli.Flag{
			configFlag(),
			envFileFlag(),
			debugFlag(),
			&cli.BoolFlag{
				Name:  "show",
				Usage: "Print the access token itself",
			},
		},
		Action: r.Token,
	}
}

// initCommand writes the example config
func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Write an example configuration file",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Init,
	}
}
