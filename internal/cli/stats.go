package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sadopc/tempo/internal/stats"
	"github.com/sadopc/tempo/internal/store"
	"github.com/spf13/cobra"
)

func newStatsCmd(e *env) *cobra.Command {
	var (
		date    string
		days    int
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show daily focus statistics",
		Long: `Show total, focused and distracted time per category.

Statistics are cached per day. --refresh rebuilds them from the stored
sessions and overwrites the cache.

Examples:
  tempo stats                  # Today
  tempo stats --date 2026-05-04
  tempo stats --days 7         # The 7 days ending today
  tempo stats --refresh`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := dayRange("", date, days, e.loc)
			if err != nil {
				return err
			}

			svc := e.service(cmd)
			var result []store.DailyStats
			if refresh {
				for _, day := range from.Span(to) {
					st, err := svc.RefreshStats(cmd.Context(), day)
					if err != nil {
						return err
					}
					result = append(result, st)
				}
			} else {
				if result, err = svc.StatsRange(cmd.Context(), from, to); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if len(result) == 1 {
				printDay(out, result[0])
			} else {
				printRange(out, result)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "last day to show (YYYY-MM-DD, today, yesterday)")
	cmd.Flags().IntVarP(&days, "days", "n", 1, "number of days ending at --date")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute from sessions and overwrite the cache")
	return cmd
}

func printDay(out io.Writer, st store.DailyStats) {
	fmt.Fprintf(out, "\n  Focus stats for %s\n", st.Date)
	fmt.Fprintln(out, strings.Repeat("=", 64))
	fmt.Fprintf(out, "  Total %s   Focused %s   Distracted %s\n",
		formatSeconds(st.TotalTime), formatSeconds(st.EffectiveTime), formatSeconds(st.DistractionTime))

	if len(st.CategoryStats) == 0 {
		fmt.Fprintln(out, "\n  No sessions.")
		fmt.Fprintln(out)
		return
	}

	fmt.Fprintln(out, strings.Repeat("-", 64))
	fmt.Fprintf(out, "  %-20s %9s %9s %10s %7s\n", "Category", "Total", "Focused", "Distracted", "Share")
	for _, c := range st.CategoryStats {
		fmt.Fprintf(out, "  %-20s %9s %9s %10s %6.1f%%\n",
			truncate(c.Name, 20),
			formatSeconds(c.TotalTime),
			formatSeconds(c.EffectiveTime),
			formatSeconds(c.DistractionTime),
			c.Percentage,
		)
	}
	fmt.Fprintln(out)
}

func printRange(out io.Writer, days []store.DailyStats) {
	var total, effective, distraction float64
	for _, d := range days {
		total += d.TotalTime
		effective += d.EffectiveTime
		distraction += d.DistractionTime
	}

	fmt.Fprintf(out, "\n  Focus stats from %s to %s\n", days[0].Date, days[len(days)-1].Date)
	fmt.Fprintln(out, strings.Repeat("=", 64))
	fmt.Fprintf(out, "  %-12s %9s %9s %10s  %s\n", "Date", "Total", "Focused", "Distracted", "Focus")
	fmt.Fprintln(out, strings.Repeat("-", 64))
	for _, d := range days {
		fmt.Fprintf(out, "  %-12s %9s %9s %10s  %5.1f%%\n",
			d.Date,
			formatSeconds(d.TotalTime),
			formatSeconds(d.EffectiveTime),
			formatSeconds(d.DistractionTime),
			stats.Percentage(d.EffectiveTime, d.TotalTime),
		)
	}
	fmt.Fprintln(out, strings.Repeat("-", 64))
	fmt.Fprintf(out, "  %-12s %9s %9s %10s  %5.1f%%\n\n",
		"Total",
		formatSeconds(total),
		formatSeconds(effective),
		formatSeconds(distraction),
		stats.Percentage(effective, total),
	)
}

func formatSeconds(secs float64) string {
	d := time.Duration(secs) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
