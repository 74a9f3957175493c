package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"mdmportal/pkg/portal"

	"github.com/spf13/cobra"
)

func newRequestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Work with one change request",
	}
	cmd.AddCommand(newRequestShowCmd(a))
	cmd.AddCommand(newRequestEditCmd(a))
	cmd.AddCommand(newRequestAssignSapCmd(a))
	cmd.AddCommand(newRequestChatCmd(a))
	return cmd
}

// loadRequest restores the session and loads request args[0].
func (a *app) loadRequest(ctx context.Context, arg string) (*portal.RequestController, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("invalid request id %q", arg)
	}
	if err := a.session(ctx); err != nil {
		return nil, err
	}
	rc := portal.NewRequestController(a.api, uint(id))
	if err := rc.Load(ctx); err != nil {
		if rc.NotFound() {
			return nil, fmt.Errorf("request %d not found", id)
		}
		return nil, err
	}
	return rc, nil
}

func printRequest(w io.Writer, r *portal.Request) {
	sap := "(none)"
	if r.HasSapItem() {
		sap = *r.SapItem
	}
	fmt.Fprintf(w, "#%d %s\n", r.RequestID, r.Title)
	fmt.Fprintf(w, "  status:   %s\n  priority: %s\n  sap item: %s\n  version:  %d\n", r.Status, r.RequestStatus, sap, r.Version)
	if r.Notes != "" {
		fmt.Fprintf(w, "  notes:    %s\n", r.Notes)
	}
}

func newRequestShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := a.loadRequest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRequest(cmd.OutOrStdout(), rc.Request())
			return nil
		},
	}
}

func newRequestEditCmd(a *app) *cobra.Command {
	var (
		edits portal.RequestEdits
		notes string
	)

	cmd := &cobra.Command{
		Use:   "edit <id> [--notes --priority --status]",
		Short: "Change notes, priority or status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := a.loadRequest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("notes") {
				edits.Notes = &notes
			}
			if ok, reason := rc.CanSave(edits); !ok {
				return errors.New(reason)
			}

			rc.BeginEdit()
			if err := rc.SaveEdits(cmd.Context(), edits); err != nil {
				var ce *portal.ConflictError
				if errors.As(err, &ce) {
					return fmt.Errorf("someone else changed this request, reload and retry: %w", err)
				}
				return err
			}
			printRequest(cmd.OutOrStdout(), rc.Request())
			return nil
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "description (empty clears it)")
	cmd.Flags().StringVar(&edits.Priority, "priority", "", "High, Medium or Low")
	cmd.Flags().StringVar(&edits.Status, "status", "", "Open, Closed or Rejected")
	return cmd
}

func newRequestAssignSapCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "assign-sap <id> <sap-item>",
		Short: "Attach an SAP item to a request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := a.loadRequest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := rc.AssignSapItem(cmd.Context(), args[1]); err != nil {
				return err
			}
			printRequest(cmd.OutOrStdout(), rc.Request())
			return nil
		},
	}
}

func newRequestChatCmd(a *app) *cobra.Command {
	var send string

	cmd := &cobra.Command{
		Use:   "chat <id> [--send <message>]",
		Short: "Follow a request's conversation, or post to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := a.loadRequest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if send != "" {
				return rc.SendMessage(cmd.Context(), send)
			}

			out := cmd.OutOrStdout()
			ch := portal.NewChatChannel(a.api, rc.ID(),
				portal.WithPingInterval(a.cfg.PingInterval),
				portal.WithMaxReconnects(a.cfg.MaxReconnects),
				portal.OnMessage(func(m portal.ChatMessage) { printMessage(out, m) }),
				portal.OnState(func(s portal.ChannelState) {
					if s == portal.StateReconnecting {
						fmt.Fprintln(cmd.ErrOrStderr(), "reconnecting...")
					}
				}),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := ch.Open(ctx); err != nil {
				return err
			}
			defer ch.Close()
			for _, m := range ch.Messages() {
				printMessage(out, m)
			}
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&send, "send", "", "post this message and exit")
	return cmd
}

func printMessage(w io.Writer, m portal.ChatMessage) {
	fmt.Fprintf(w, "[%s] %s: %s\n", m.Timestamp.Local().Format(time.DateTime), m.Sender, m.Message)
}
