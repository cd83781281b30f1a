package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/tempo/internal/store"
)

var csvHeader = []string{
	"ID", "Category", "Description", "Start", "End",
	"Duration (s)", "Effective (s)", "Distraction (s)", "Distractions", "Duration",
}

// WriteCSV writes one row per session. Times are formatted in loc.
func WriteCSV(w io.Writer, sessions []store.Session, categories Categories, loc *time.Location) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, s := range sessions {
		row := []string{
			s.ID,
			categories.Name(s.CategoryID),
			s.Description,
			formatTime(s.StartTime, loc),
			formatTime(s.EndTime, loc),
			formatSeconds(s.Duration),
			formatSeconds(s.EffectiveTime),
			formatSeconds(s.DistractionTime()),
			strconv.Itoa(len(s.Distractions)),
			formatDuration(s.Duration),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ToCSV writes the sessions to a new file at path.
func ToCSV(sessions []store.Session, categories Categories, loc *time.Location, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, sessions, categories, loc); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

func formatSeconds(secs float64) string {
	return strconv.FormatFloat(secs, 'f', -1, 64)
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(time.RFC3339)
}

// formatDuration renders whole seconds as HH:MM:SS.
func formatDuration(secs float64) string {
	total := int64(secs)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
