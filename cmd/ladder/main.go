package main

import (
	"fmt"
	"log"
	"os"

	"github.com/UziB26/leagueladder-sub002/config"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "ladder",
		Usage: "Elo league ladder engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Before: func(c *cli.Context) error {
			// A missing .env is fine; the environment may already be set.
			_ = godotenv.Load()
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			adminCommand(),
			exportCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
