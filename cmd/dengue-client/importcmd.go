package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Tom21-xd/Uceva-sub002/internal/api"
	"github.com/Tom21-xd/Uceva-sub002/internal/feature"
	"github.com/Tom21-xd/Uceva-sub002/internal/importer"
	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

func importCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk case import from CSV or Excel",
	}
	cmd.AddCommand(importDetectCmd(get), importRunCmd(get), importTemplateCmd())
	return cmd
}

func importDetectCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>",
		Short: "Show the proposed column mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			flow := feature.NewImportFlow(cmd.Context(), a.importer(), a.cfg.Import.PreviewRows, a.logger)
			defer flow.Dispose()
			if err := flow.Open(args[0]); err != nil {
				return err
			}
			printMapping(cmd.OutOrStdout(), flow.State())
			return nil
		},
	}
}

func importRunCmd(get func() *app) *cobra.Command {
	var overrides []string
	var reportPath string
	var raw bool
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Import a file; --map field=column adjusts the proposed mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := parseOverrides(overrides)
			if err != nil {
				return err
			}
			a := get()
			ctx := cmd.Context()
			flow := feature.NewImportFlow(ctx, a.importer(), a.cfg.Import.PreviewRows, a.logger)
			defer flow.Dispose()
			if err := flow.Open(args[0]); err != nil {
				return err
			}
			for _, p := range pairs {
				flow.Override(p[0], p[1])
			}

			out := cmd.OutOrStdout()
			var res models.ImportResult
			if raw {
				res, err = uploadRaw(ctx, a.imports, args[0], flow.State().Mapping)
			} else {
				res, err = flow.Submit(ctx)
			}
			if err != nil {
				if errors.Is(err, importer.ErrNoMapping) {
					printMapping(out, flow.State())
				}
				return errors.New(api.UserMessage(err))
			}
			printImportResult(out, res)

			if reportPath != "" && len(res.Errors) > 0 {
				report, err := importer.WriteResultReport(res)
				if err != nil {
					return err
				}
				if err := os.WriteFile(reportPath, report, 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Fprintf(out, "Reporte de errores: %s\n", reportPath)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&overrides, "map", nil, "field=column mapping override (empty column unmaps)")
	cmd.Flags().StringVar(&reportPath, "report", "", "write an Excel report of rejected rows")
	cmd.Flags().BoolVar(&raw, "raw", false, "upload the file as is and let the backend parse it")
	return cmd
}

// uploadRaw sends the untouched file with the confirmed mapping.
func uploadRaw(ctx context.Context, imports *api.ImportService, path string, m importer.Mapping) (models.ImportResult, error) {
	if len(m) == 0 {
		return models.ImportResult{}, importer.ErrNoMapping
	}
	f, err := os.Open(path)
	if err != nil {
		return models.ImportResult{}, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()
	return imports.UploadFile(ctx, filepath.Base(path), f, m)
}

func importTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template <out.xlsx>",
		Short: "Write an empty import template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := importer.Template()
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], raw, 0o644); err != nil {
				return fmt.Errorf("write template: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plantilla: %s\n", args[0])
			return nil
		},
	}
}

// parseOverrides splits "field=column" flags. The column may be empty.
func parseOverrides(flags []string) ([][2]string, error) {
	out := make([][2]string, 0, len(flags))
	for _, f := range flags {
		field, column, ok := strings.Cut(f, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid --map %q, want field=column", f)
		}
		out = append(out, [2]string{field, strings.TrimSpace(column)})
	}
	return out, nil
}

func printMapping(out io.Writer, s feature.ImportFlowState) {
	fmt.Fprintf(out, "%s: %d columnas\n", s.FileName, len(s.Headers))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CAMPO\tCOLUMNA")
	for _, field := range importer.Fields() {
		column := s.Mapping[field]
		if column == "" {
			column = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", field, column)
	}
	_ = tw.Flush()
}

func printImportResult(out io.Writer, res models.ImportResult) {
	fmt.Fprintf(out, "Total: %d  Exitosos: %d  Fallidos: %d\n", res.Total, res.Succeeded, res.Failed)
	for _, e := range res.Errors {
		if e.Field != "" {
			fmt.Fprintf(out, "  fila %d (%s): %s\n", e.Row, e.Field, e.Message)
			continue
		}
		fmt.Fprintf(out, "  fila %d: %s\n", e.Row, e.Message)
	}
}
