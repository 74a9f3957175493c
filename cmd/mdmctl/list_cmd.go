package main

import (
	"errors"
	"fmt"

	"mdmportal/pkg/portal"

	"github.com/spf13/cobra"
)

type listOptions struct {
	Search  string
	Page    int
	PerPage int
}

func newListCmd(a *app) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list <entity>",
		Short: "List an entity family, filtered and paged locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := lookup(a.api, args[0])
			if err != nil {
				return err
			}
			if err := a.session(cmd.Context()); err != nil {
				return err
			}
			return t.list(cmd.Context(), cmd.OutOrStdout(), opts.Search, opts.Page, opts.PerPage)
		},
	}
	cmd.Flags().StringVar(&opts.Search, "search", "", "case-insensitive filter over the display fields")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.PerPage, "per-page", portal.DefaultPerPage, "rows per page")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <entity> <key> --yes",
		Short: "Delete one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := lookup(a.api, args[0])
			if err != nil {
				return err
			}
			if !yes {
				return errors.New("refusing to delete without --yes")
			}
			if err := a.session(cmd.Context()); err != nil {
				return err
			}
			if err := t.delete(cmd.Context(), args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}
