// Package command provides CLI command definitions for credvault.
package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/veldra/credvault-go/internal/cli/config"
	"github.com/veldra/credvault-go/internal/cli/output"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:   "path",
				Usage:  "Print the config file path",
				Action: configPath,
			},
			{
				Name:  "init",
				Usage: "Write a default config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing file",
					},
				},
				Action: configInit,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	flags := ParseGlobalFlags(c)

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return err
	}
	if flags.Server != "" {
		cfg.Backend.URL = flags.Server
	}

	name := cfg.Output
	if flags.Output != "" {
		name = flags.Output
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return err
	}
	formatter := output.NewFormatter(format, false)
	return formatter.Format(os.Stdout, cfg)
}

func configPath(c *cli.Context) error {
	path := ParseGlobalFlags(c).ConfigPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	fmt.Println(path)
	return nil
}

func configInit(c *cli.Context) error {
	path := ParseGlobalFlags(c).ConfigPath
	if path == "" {
		path = config.DefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.Save(config.Default(), path); err != nil {
		return err
	}

	fmt.Printf("Wrote default configuration to %s\n", path)
	return nil
}
