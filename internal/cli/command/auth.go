// Package command provides CLI command definitions for credvault.
package command

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/veldra/credvault-go/internal/cli/output"
	"github.com/veldra/credvault-go/internal/core/domain"
)

// maxCodeAttempts bounds interactive OTP retries per invocation.
const maxCodeAttempts = 3

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in to the identity backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "Account email",
			},
			&cli.StringFlag{
				Name:  "password",
				Usage: "Account password (prompted when omitted)",
			},
		},
		Action: loginAction,
	}
}

func loginAction(c *cli.Context) error {
	v, err := openVault(c)
	if err != nil {
		return err
	}
	defer v.Close()

	email := c.String("email")
	if email == "" {
		if email, err = promptLine("Email"); err != nil {
			return err
		}
	}
	password := c.String("password")
	if password == "" {
		if password, err = promptSecret("Password"); err != nil {
			return err
		}
	}

	spinner := output.NewSpinner(os.Stderr, "Signing in...")
	spinner.Start()

	res, err := v.client.Login(v.ctx, email, password)
	if err != nil {
		spinner.Fail("Sign-in failed")
		return err
	}

	if domain.ValidToken(res.AccessToken) {
		if err := v.creds.SetSession(res.AccessToken, res.User, res.RefreshToken); err != nil {
			spinner.Fail("Sign-in failed")
			return err
		}
		if res.User.IsActive() {
			spinner.Success("Signed in as " + email)
			return nil
		}

		// Tokens were issued but the account still needs activation.
		// The session survives the verify round trip, so this is a
		// registration-style verify rather than a login one.
		spinner.Stop()
		fmt.Println("Your account is not activated yet. A verification code has been sent to your email.")
		if err := v.verifier.Begin(email, domain.PurposeRegistration); err != nil {
			return err
		}
		if err := runCodeLoop(v.ctx, v); err != nil {
			return err
		}
		fmt.Printf("Signed in as %s.\n", email)
		return nil
	}

	// No token: the backend wants a one-time code first.
	spinner.Stop()
	if res.Message != "" {
		fmt.Println(res.Message)
	} else {
		fmt.Println("A verification code has been sent to your email.")
	}

	if err := v.verifier.Begin(email, domain.PurposeLogin); err != nil {
		return err
	}
	if err := runCodeLoop(v.ctx, v); err != nil {
		return err
	}

	fmt.Printf("Signed in as %s.\n", email)
	return nil
}

// VerifyCommand returns the account verification command.
func VerifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Verify a new account with a one-time code",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "code",
				Usage: "One-time code (prompted when omitted)",
			},
		},
		Action: verifyAction,
	}
}

func verifyAction(c *cli.Context) error {
	v, err := openVault(c)
	if err != nil {
		return err
	}
	defer v.Close()

	if err := v.verifier.Begin(c.String("email"), domain.PurposeRegistration); err != nil {
		return err
	}

	if code := c.String("code"); code != "" {
		if err := v.verifier.Verify(v.ctx, code); err != nil {
			return err
		}
	} else if err := runCodeLoop(v.ctx, v); err != nil {
		return err
	}

	fmt.Println("Account verified.")
	return nil
}

// runCodeLoop prompts for a code until verification succeeds, the
// attempt budget runs out, or a non-retryable error occurs. Entering
// "r" requests a fresh code.
func runCodeLoop(ctx context.Context, v *vault) error {
	for attempt := 0; attempt < maxCodeAttempts; {
		code, err := promptLine("Verification code (or 'r' to resend)")
		if err != nil {
			return err
		}

		if code == "r" {
			if err := v.verifier.Resend(ctx); err != nil {
				if errors.Is(err, domain.ErrRateLimited) {
					fmt.Println("Please wait before requesting another code.")
					continue
				}
				return err
			}
			fmt.Println("A new code has been sent.")
			continue
		}

		err = v.verifier.Verify(ctx, code)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrWrongCode) || errors.Is(err, domain.ErrCodeInvalid) {
			attempt++
			fmt.Println("That code is not right, try again.")
			continue
		}
		if errors.Is(err, domain.ErrExpiredCode) {
			fmt.Println("That code has expired, enter 'r' to request a new one.")
			continue
		}
		return err
	}
	return domain.ErrWrongCode
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Sign out and clear stored credentials",
		Action: logoutAction,
	}
}

func logoutAction(c *cli.Context) error {
	v, err := openVault(c)
	if err != nil {
		return err
	}
	defer v.Close()

	if !v.creds.Session().Authenticated && v.creds.RefreshToken() == "" {
		fmt.Println("No active session.")
		return nil
	}

	// Revocation is best effort: local credentials are cleared whether
	// or not the backend call succeeds.
	if err := v.client.Logout(v.ctx); err != nil {
		v.log.Warn("backend logout failed", "error", err)
	}
	v.creds.Clear()

	fmt.Println("Signed out.")
	return nil
}
