// Package command provides CLI command definitions for credvault.
//
// It uses urfave/cli/v2 for command parsing.
package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/veldra/credvault-go/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "credvault",
		Usage:   "Credential vault and session agent for the identity backend",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			LoginCommand(),
			VerifyCommand(),
			StatusCommand(),
			RefreshCommand(),
			LogoutCommand(),
			ResetPasswordCommand(),
			AgentCommand(),
			ConfigCommand(),
		},
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file path (default ~/.credvault/config.yaml)",
			EnvVars: []string{"CREDVAULT_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Identity backend URL (overrides config)",
			EnvVars: []string{"CREDVAULT_SERVER"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	ConfigPath string
	Server     string
	Output     string
	Verbose    bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		ConfigPath: c.String("config"),
		Server:     c.String("server"),
		Output:     c.String("output"),
		Verbose:    c.Bool("verbose"),
	}
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
