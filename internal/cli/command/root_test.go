package command

import (
	"flag"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestApp(t *testing.T) {
	app := App()
	if app == nil {
		t.Fatal("App() returned nil")
	}

	// Check app metadata
	if app.Name != "credvault" {
		t.Errorf("Name = %q, want %q", app.Name, "credvault")
	}
	if app.Usage == "" {
		t.Error("Usage should not be empty")
	}

	// Check commands exist
	commandNames := make(map[string]bool)
	for _, cmd := range app.Commands {
		commandNames[cmd.Name] = true
	}

	requiredCommands := []string{
		"login", "verify", "status", "refresh",
		"logout", "reset-password", "agent", "config",
	}
	for _, name := range requiredCommands {
		if !commandNames[name] {
			t.Errorf("missing required command: %s", name)
		}
	}
}

func TestApp_GlobalFlags(t *testing.T) {
	app := App()

	flagNames := make(map[string]bool)
	for _, f := range app.Flags {
		flagNames[f.Names()[0]] = true
	}

	requiredFlags := []string{"config", "server", "output", "verbose"}
	for _, name := range requiredFlags {
		if !flagNames[name] {
			t.Errorf("missing required flag: %s", name)
		}
	}
}

func TestParseGlobalFlags(t *testing.T) {
	app := App()

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("config", "/etc/credvault/config.yaml", "")
	set.String("server", "https://id.example.com", "")
	set.String("output", "json", "")
	set.Bool("verbose", true, "")

	ctx := cli.NewContext(app, set, nil)
	flags := ParseGlobalFlags(ctx)

	if flags.ConfigPath != "/etc/credvault/config.yaml" {
		t.Errorf("ConfigPath = %q", flags.ConfigPath)
	}
	if flags.Server != "https://id.example.com" {
		t.Errorf("Server = %q", flags.Server)
	}
	if flags.Output != "json" {
		t.Errorf("Output = %q", flags.Output)
	}
	if !flags.Verbose {
		t.Error("Verbose should be true")
	}
}

func TestConfigCommandLayout(t *testing.T) {
	cmd := ConfigCommand()

	subNames := make(map[string]bool)
	for _, sub := range cmd.Subcommands {
		subNames[sub.Name] = true
	}
	for _, name := range []string{"show", "path", "init"} {
		if !subNames[name] {
			t.Errorf("missing config subcommand: %s", name)
		}
	}
}

func TestVerifyCommandRequiresEmail(t *testing.T) {
	cmd := VerifyCommand()

	var emailFlag *cli.StringFlag
	for _, f := range cmd.Flags {
		if sf, ok := f.(*cli.StringFlag); ok && sf.Name == "email" {
			emailFlag = sf
		}
	}
	if emailFlag == nil {
		t.Fatal("verify command should have an email flag")
	}
	if !emailFlag.Required {
		t.Error("email flag should be required")
	}
}
