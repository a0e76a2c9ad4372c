package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/api"
	"github.com/Tom21-xd/Uceva-sub002/internal/feature"
	"github.com/Tom21-xd/Uceva-sub002/internal/models"
	"github.com/Tom21-xd/Uceva-sub002/internal/realtime"
)

func casesCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cases",
		Short: "Case list",
	}
	cmd.AddCommand(casesListCmd(get), casesWatchCmd(get))
	return cmd
}

func casesListCmd(get func() *app) *cobra.Command {
	var stateName string
	var pages int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cases, optionally filtered by state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			ctx := cmd.Context()
			list := feature.NewCaseList(ctx, a.cases, a.cfg.Feature.CasePageSize, a.logger)
			defer list.Dispose()

			if err := list.Refresh(ctx); err != nil {
				return errors.New(api.UserMessage(err))
			}
			list.SetFilter(stateName)
			for i := 1; i < pages && list.HasMore(); i++ {
				list.LoadMore()
			}
			printCases(cmd.OutOrStdout(), list.State())
			return nil
		},
	}
	cmd.Flags().StringVar(&stateName, "state", models.CaseStateAll, "case state name")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to show")
	return cmd
}

func casesWatchCmd(get func() *app) *cobra.Command {
	var fromStream bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow case changes from the real-time hub",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			ctx := cmd.Context()
			list := feature.NewCaseList(ctx, a.cases, a.cfg.Feature.CasePageSize, a.logger)
			defer list.Dispose()
			if err := list.Refresh(ctx); err != nil {
				return errors.New(api.UserMessage(err))
			}

			out := cmd.OutOrStdout()
			apply := func(ev models.CaseEvent) {
				fmt.Fprintf(out, "%s case=%d %s\n", ev.Kind, ev.CaseID, ev.Message)
				if err := list.ApplyEvent(ctx, ev); err != nil {
					a.logger.Warn("Case list refresh after event failed", zap.Error(err))
				}
			}

			if fromStream {
				return watchStream(ctx, a, apply)
			}
			return watchHub(ctx, a, apply)
		},
	}
	cmd.Flags().BoolVar(&fromStream, "from-stream", false, "read events from the configured Redis stream instead of the hub")
	return cmd
}

func watchHub(ctx context.Context, a *app, apply func(models.CaseEvent)) error {
	if !a.cfg.Hub.Enabled {
		return errors.New("real-time hub is disabled (HUB_ENABLED)")
	}
	opts := realtime.Options{
		URL:            a.cfg.Hub.URL,
		ReconnectDelay: a.cfg.Hub.ReconnectDelay,
		Tokens:         a.session,
	}
	if p := a.streamPublisher(); p != nil {
		opts.Sink = p
	}
	hub := realtime.NewHubClient(opts, a.logger)

	errCh := make(chan error, 1)
	go func() { errCh <- hub.Run(ctx) }()
	for ev := range hub.Events() {
		apply(ev)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func watchStream(ctx context.Context, a *app, apply func(models.CaseEvent)) error {
	if a.cfg.Hub.Stream == "" || a.redis == nil {
		return errors.New("no case stream configured (HUB_STREAM)")
	}
	consumer := realtime.NewStreamConsumer(a.redis, a.cfg.Hub.Stream, "dengue-client", uuid.NewString(), a.logger)
	err := consumer.Run(ctx, apply)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func caseCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Single case",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a case with its evolutions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid case id %q", args[0])
			}
			a := get()
			ctx := cmd.Context()
			detail := feature.NewCaseDetail(ctx, id, a.cases, a.evolutions, a.logger)
			defer detail.Dispose()
			if err := detail.Refresh(ctx); err != nil {
				return errors.New(api.UserMessage(err))
			}
			printCaseRecord(cmd.OutOrStdout(), detail.State().Record.Data)
			return nil
		},
	})
	return cmd
}

func printCases(out io.Writer, s feature.CaseListState) {
	visible := s.Page.Visible()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tESTADO\tTIPO\tPACIENTE\tHOSPITAL\tREPORTE")
	for _, c := range visible {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.StateName, c.DengueType, c.PatientName, c.HospitalName, c.ReportDate.Format("2006-01-02"))
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "%d de %d casos (%s)\n", len(visible), s.Page.Total(), s.Filter)
}

func printCaseRecord(out io.Writer, r feature.CaseRecord) {
	c := r.Case
	fmt.Fprintf(out, "Caso %d: %s\n", c.ID, c.Description)
	fmt.Fprintf(out, "Estado: %s  Tipo: %s\n", c.StateName, c.DengueType)
	fmt.Fprintf(out, "Paciente: %s  Hospital: %s\n", c.PatientName, c.HospitalName)
	if r.AlarmSigns() {
		fmt.Fprintln(out, "Signos de alarma presentes")
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DIA\tFECHA\tTEMP\tPLAQUETAS\tAUTOR")
	for _, e := range r.Evolutions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			e.IllnessDay, e.Date.Format("2006-01-02"), optFloat(e.Temperature), optFloat(e.Platelets), e.AuthorName)
	}
	_ = tw.Flush()
}

func optFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
