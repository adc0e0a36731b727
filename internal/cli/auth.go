package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
)

func newLoginCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Example: `  dashboard login --email ana@example.com --password s3cret`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" || password == "" {
				return domain.NewValidationError("email", "please enter your email and password")
			}
			app := appFrom(cmd)
			res, err := app.Client.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := app.Session.Login(res); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", res.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

func newSignupCommand() *cobra.Command {
	var email, username, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" || username == "" || password == "" {
				return domain.NewValidationError("username", "please enter an email, username and password")
			}
			app := appFrom(cmd)
			res, err := app.Client.Signup(cmd.Context(), email, username, password)
			if err != nil {
				return fmt.Errorf("signup: %w", err)
			}
			if res.Token == "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Account created. Run 'dashboard login' to continue.")
				return nil
			}
			if err := app.Session.Login(res); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Account created, logged in as %s\n", res.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&username, "username", "", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := appFrom(cmd).Session.Logout(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess := appFrom(cmd).Session
			user, err := sess.RequireUser()
			if errors.Is(err, domain.ErrNotLoggedIn) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if err != nil {
				return err
			}
			if sess.Expired() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (session expired, please log in again)\n", user)
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), user)
			return nil
		},
	}
}
