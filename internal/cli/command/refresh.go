// Package command provides CLI command definitions for credvault.
package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/veldra/credvault-go/pkg/clientid"
)

// RefreshCommand returns the refresh command.
func RefreshCommand() *cli.Command {
	return &cli.Command{
		Name:   "refresh",
		Usage:  "Force a token refresh",
		Action: refreshAction,
	}
}

func refreshAction(c *cli.Context) error {
	v, err := openVault(c)
	if err != nil {
		return err
	}
	defer v.Close()

	token, err := v.coord.Refresh(v.ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Token refreshed: %s\n", clientid.Abbreviate(token))
	return nil
}
