package cli

import (
	"fmt"

	"github.com/sadopc/tempo/internal/export"
	"github.com/sadopc/tempo/internal/observability"
	"github.com/spf13/cobra"
)

func newExportCmd(e *env) *cobra.Command {
	var (
		format string
		output string
		from   string
		to     string
		days   int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sessions to CSV or JSON",
		Long: `Export the sessions of a date range. Without --from the range is the
--days days ending at --to (today by default).

Examples:
  tempo export --format csv                  # Last 30 days to stdout
  tempo export --format json -o tempo.json
  tempo export --from 2026-05-01 --to 2026-05-31 -o may.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("unsupported format: %s (supported: csv, json)", format)
			}
			start, end, err := dayRange(from, to, days, e.loc)
			if err != nil {
				return err
			}

			logger := observability.LogOperation(e.logger, "export",
				"format", format,
				"from", start.String(),
				"to", end.String(),
			)

			svc := e.service(cmd)
			sessions, err := svc.SessionsRange(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			categories, _ := svc.ListCategories(cmd.Context())
			index := export.Index(categories)

			if output == "" {
				if format == "csv" {
					err = export.WriteCSV(cmd.OutOrStdout(), sessions, index, e.loc)
				} else {
					err = export.WriteJSON(cmd.OutOrStdout(), sessions, index, e.loc)
				}
			} else {
				if format == "csv" {
					err = export.ToCSV(sessions, index, e.loc, output)
				} else {
					err = export.ToJSON(sessions, index, e.loc, output)
				}
			}
			if err != nil {
				logger.Error("export failed", "error", err)
				return err
			}

			logger.Info("export written", "sessions", len(sessions), "output", output)
			if output != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d sessions to %s\n", len(sessions), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format (csv, json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&days, "days", 30, "number of days when --from is not set")
	return cmd
}
