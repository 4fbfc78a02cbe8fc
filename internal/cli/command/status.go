// Package command provides CLI command definitions for credvault.
package command

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/veldra/credvault-go/internal/cli/output"
	"github.com/veldra/credvault-go/pkg/clientid"
)

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show the current session state",
		Action: statusAction,
	}
}

// sessionStatus is the printable session summary. Tokens are always
// abbreviated; full values never reach stdout.
type sessionStatus struct {
	Backend       string `json:"backend" yaml:"backend"`
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	Email         string `json:"email,omitempty" yaml:"email,omitempty"`
	FullName      string `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	AccessToken   string `json:"access_token,omitempty" yaml:"access_token,omitempty"`
	RefreshToken  string `json:"refresh_token,omitempty" yaml:"refresh_token,omitempty"`
	Flow          string `json:"flow,omitempty" yaml:"flow,omitempty"`
	Storage       string `json:"storage" yaml:"storage"`
}

func statusAction(c *cli.Context) error {
	v, err := openVault(c)
	if err != nil {
		return err
	}
	defer v.Close()

	session := v.creds.Session()
	status := sessionStatus{
		Backend:       v.client.BaseURL(),
		Authenticated: session.Authenticated,
		AccessToken:   clientid.Abbreviate(session.AccessToken),
		RefreshToken:  clientid.Abbreviate(session.RefreshToken),
		Flow:          v.verifier.State().String(),
		Storage:       v.cfg.Storage.Engine,
	}
	if session.User != nil {
		status.Email = session.User.Email
		status.FullName = session.User.FullName
	}

	formatter := output.NewFormatter(output.Format(v.cfg.Output), false)
	return formatter.Format(os.Stdout, status)
}
