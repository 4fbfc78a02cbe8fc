// Package command provides CLI command definitions for credvault.
package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/veldra/credvault-go/internal/core/domain"
)

// ResetPasswordCommand returns the password reset command.
func ResetPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset-password",
		Usage: "Reset the account password with an emailed code",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				Required: true,
			},
		},
		Action: resetPasswordAction,
	}
}

func resetPasswordAction(c *cli.Context) error {
	v, err := openVault(c)
	if err != nil {
		return err
	}
	defer v.Close()

	if err := v.verifier.RequestReset(v.ctx, c.String("email")); err != nil {
		return err
	}
	fmt.Println("A reset code has been sent to your email.")

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := promptLine("Reset code")
		if err != nil {
			return err
		}
		err = v.verifier.VerifyReset(v.ctx, code)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrWrongCode) || errors.Is(err, domain.ErrCodeInvalid) {
			if attempt == maxCodeAttempts-1 {
				return domain.ErrWrongCode
			}
			fmt.Println("That code is not right, try again.")
			continue
		}
		return err
	}

	password, err := promptSecret("New password")
	if err != nil {
		return err
	}
	confirm, err := promptSecret("Confirm new password")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	if err := v.verifier.CompleteReset(v.ctx, password); err != nil {
		return err
	}

	fmt.Println("Password updated. Sign in with your new password.")
	return nil
}
