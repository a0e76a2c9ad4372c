package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Tom21-xd/Uceva-sub002/internal/api"
	"github.com/Tom21-xd/Uceva-sub002/internal/feature"
	"github.com/Tom21-xd/Uceva-sub002/internal/models"
	"github.com/Tom21-xd/Uceva-sub002/internal/push"
)

func notificationsCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "In-app and push notifications",
	}
	cmd.AddCommand(
		notificationsListCmd(get),
		notificationsReadCmd(get),
		notificationsListenCmd(get),
		notificationsRegisterCmd(get),
	)
	return cmd
}

func notificationsListCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			inbox := feature.NewNotifications(cmd.Context(), a.notifications, a.logger)
			defer inbox.Dispose()
			if err := inbox.Refresh(cmd.Context()); err != nil {
				return errors.New(api.UserMessage(err))
			}
			printNotifications(cmd.OutOrStdout(), inbox.State())
			return nil
		},
	}
}

func notificationsReadCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read [id]",
		Short: "Mark one notification, or all of them, as read",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()
			inbox := feature.NewNotifications(ctx, a.notifications, a.logger)
			defer inbox.Dispose()

			var err error
			if len(args) == 0 {
				err = inbox.MarkAllRead(ctx)
			} else {
				id, convErr := strconv.Atoi(args[0])
				if convErr != nil {
					return fmt.Errorf("invalid notification id %q", args[0])
				}
				err = inbox.MarkRead(ctx, id)
			}
			if err != nil {
				return errors.New(api.UserMessage(err))
			}
			return nil
		},
	}
}

func notificationsListenCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Receive push notifications from the MQTT broker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if !a.cfg.MQTT.Enabled {
				return errors.New("push ingress is disabled (MQTT_ENABLED)")
			}
			ctx := cmd.Context()
			inbox := feature.NewNotifications(ctx, a.notifications, a.logger)
			defer inbox.Dispose()

			out := cmd.OutOrStdout()
			notify := push.NotifyHandler(push.NewLogNotifier(a.logger))
			toInbox := push.HandlerFunc(func(_ context.Context, msg push.Message) error {
				inbox.Push(msg.Notification())
				fmt.Fprintf(out, "[%s] %s: %s\n", msg.Type, msg.Title, msg.Body)
				return nil
			})
			caseEvent := push.HandlerFunc(func(_ context.Context, msg push.Message) error {
				if ev, ok := msg.CaseEvent(); ok {
					fmt.Fprintf(out, "%s case=%d\n", ev.Kind, ev.CaseID)
				}
				return nil
			})

			d := push.NewDispatcher(push.Chain(notify, toInbox), a.logger)
			d.Register(models.EventNewCase, push.Chain(notify, toInbox, caseEvent))
			d.Register(models.EventCaseUpdated, push.Chain(notify, toInbox, caseEvent))

			src := push.NewMQTTSource(&a.cfg.MQTT, d, a.logger)
			if err := src.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			src.Stop()
			return nil
		},
	}
}

func notificationsRegisterCmd(get func() *app) *cobra.Command {
	var platform string
	cmd := &cobra.Command{
		Use:   "register-token <token>",
		Short: "Register this device's push token with the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			r := push.NewTokenRegistrar(a.session, a.notifications, platform, a.logger)
			changed, err := r.Register(cmd.Context(), args[0])
			if err != nil {
				return errors.New(api.UserMessage(err))
			}
			if !changed {
				fmt.Fprintln(cmd.OutOrStdout(), "Token sin cambios")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token registrado")
			return nil
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "linux", "device platform reported to the backend")
	return cmd
}

func printNotifications(out io.Writer, s feature.NotificationsState) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLEIDA\tTIPO\tTITULO\tMENSAJE")
	for _, n := range s.Items.Data {
		read := "no"
		if n.Read {
			read = "si"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", n.ID, read, n.Type, n.Title, n.Message)
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "%d sin leer\n", s.Unread)
}
