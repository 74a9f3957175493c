package main

import (
	"errors"
	"fmt"
	"os"

	"mdmportal/pkg/portal"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var cred portal.Credentials

	cmd := &cobra.Command{
		Use:   "login --email <email>",
		Short: "Log in and cache the token in ~/.mdmctl/token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cred.Password == "" {
				cred.Password = os.Getenv("MDM_PASSWORD")
			}
			if cred.Email == "" || cred.Password == "" {
				return errors.New("--email and --password (or MDM_PASSWORD) are required")
			}
			user, err := a.api.Session.Login(cmd.Context(), cred)
			if err != nil {
				return err
			}
			if err := saveToken(a.api.Session.Token()); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", user.Name, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&cred.Email, "email", "", "account email")
	cmd.Flags().StringVar(&cred.Password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the cached token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.api.Session.Logout()
			return removeToken()
		},
	}
}
