package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mdmportal/internal/config"
	"mdmportal/internal/logger"
	"mdmportal/pkg/portal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app is shared by every command; it is filled in PersistentPreRunE.
type app struct {
	baseURL string
	cfg     *config.ClientConfig
	log     *logrus.Logger
	api     *portal.API
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "mdmctl",
		Short:         "Manage material master data, requests and approvals",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	cmd.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "API base URL (defaults to MDM_API_BASE_URL)")

	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newDeleteCmd(a))
	cmd.AddCommand(newRequestCmd(a))
	cmd.AddCommand(newApprovalsCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

func (a *app) init() error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}
	a.cfg = cfg

	a.log, err = logger.New(config.LogConfig{Level: cfg.LogLevel, Format: "text"})
	if err != nil {
		return err
	}
	a.log.SetOutput(os.Stderr)

	client, err := portal.NewClient(cfg.BaseURL, portal.WithTimeout(cfg.Timeout), portal.WithLogger(a.log))
	if err != nil {
		return err
	}
	a.api = portal.New(client)
	a.api.Session.OnLogout(func() { _ = removeToken() })
	return nil
}

// session restores the cached login.
func (a *app) session(ctx context.Context) error {
	token, err := loadToken()
	if err != nil {
		return &portal.AuthError{Msg: "run `mdmctl login` first"}
	}
	_, err = a.api.Session.Restore(ctx, token)
	return err
}

// describe turns SDK errors into one line for the terminal.
func describe(err error) string {
	var (
		ae *portal.AuthError
		pe *portal.PermissionError
		ve *portal.ValidationError
		ne *portal.NetworkError
	)
	switch {
	case errors.As(err, &ae):
		return "Not logged in or session expired: " + ae.Msg
	case errors.As(err, &pe):
		return "You do not have permission for this: " + pe.Error()
	case errors.As(err, &ve):
		return "Rejected: " + ve.Msg
	case errors.As(err, &ne):
		return "Could not reach the server, try again: " + ne.Error()
	default:
		return err.Error()
	}
}

func tokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mdmctl", "token"), nil
}

func saveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

func loadToken() (string, error) {
	path, err := tokenPath()
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func removeToken() error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
