package cli

import (
	"fmt"
	"strings"

	"github.com/sadopc/tempo/internal/export"
	"github.com/spf13/cobra"
)

func newSessionsCmd(e *env) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List the sessions of a day",
		Long: `List the completed focus sessions of one day in start order.

Examples:
  tempo sessions                    # Today
  tempo sessions --date yesterday
  tempo sessions --date 2026-05-04`,
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(date, e.loc)
			if err != nil {
				return err
			}

			svc := e.service(cmd)
			sessions, err := svc.Sessions(cmd.Context(), day)
			if err != nil {
				return err
			}
			categories, _ := svc.ListCategories(cmd.Context())
			names := export.Index(categories)

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintf(out, "No sessions on %s.\n", day)
				return nil
			}

			fmt.Fprintf(out, "\n  Sessions on %s\n", day)
			fmt.Fprintln(out, strings.Repeat("=", 72))
			fmt.Fprintf(out, "  %-5s  %-5s  %-18s %9s %9s %5s  %s\n",
				"Start", "End", "Category", "Duration", "Focused", "Dist", "Description")
			fmt.Fprintln(out, strings.Repeat("-", 72))
			for _, s := range sessions {
				fmt.Fprintf(out, "  %-5s  %-5s  %-18s %9s %9s %5d  %s\n",
					s.StartTime.In(e.loc).Format("15:04"),
					s.EndTime.In(e.loc).Format("15:04"),
					truncate(names.Name(s.CategoryID), 18),
					formatSeconds(s.Duration),
					formatSeconds(s.EffectiveTime),
					len(s.Distractions),
					s.Description,
				)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "day to list (YYYY-MM-DD, today, yesterday)")
	return cmd
}
