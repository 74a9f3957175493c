package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"mdmportal/pkg/portal"

	"github.com/spf13/cobra"
)

func newApprovalsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approvals",
		Short: "Approve pending employees by assigning a role",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List employees waiting for a role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.session(cmd.Context()); err != nil {
				return err
			}
			pending, err := a.api.Employees.WithoutRole(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tCOMPANY")
			for _, e := range pending {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.EmpID, e.EmpName, e.Email, e.CompanyName)
			}
			return tw.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "assign <emp-id> <role>",
		Short: "Assign a role to one employee",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEmpID(args[0])
			if err != nil {
				return err
			}
			if err := a.session(cmd.Context()); err != nil {
				return err
			}
			emp, err := a.api.Employees.AssignRole(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", emp.EmpName, emp.Role)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "bulk-assign <role> <emp-id>...",
		Short: "Assign one role to several employees",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uint, 0, len(args)-1)
			for _, arg := range args[1:] {
				id, err := parseEmpID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			if err := a.session(cmd.Context()); err != nil {
				return err
			}
			waiting, err := a.api.Employees.WithoutRole(cmd.Context())
			if err != nil {
				return err
			}
			pending := portal.NewPendingEmployees(waiting)

			res, err := a.api.Employees.BulkAssignRole(cmd.Context(), ids, args[0])
			if err != nil {
				return err
			}
			pending.Prune(res)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Message)
			for _, f := range res.Failed {
				fmt.Fprintf(out, "  %d not updated: %s\n", f.EmpID, f.Reason)
			}
			fmt.Fprintf(out, "%d still pending\n", len(pending.Items()))
			return nil
		},
	})
	return cmd
}

func parseEmpID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid employee id %q", arg)
	}
	return uint(id), nil
}
