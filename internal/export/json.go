package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/tempo/internal/store"
)

// Categories resolves category ids to names. Unknown ids export as
// "Unknown".
type Categories map[string]store.Category

// Index builds a Categories lookup from a list.
func Index(list []store.Category) Categories {
	out := make(Categories, len(list))
	for _, c := range list {
		out[c.ID] = c
	}
	return out
}

// Name returns the name of category id.
func (c Categories) Name(id string) string {
	if cat, ok := c[id]; ok {
		return cat.Name
	}
	return "Unknown"
}

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonSession struct {
	ID             string  `json:"id"`
	Category       string  `json:"category"`
	CategoryID     string  `json:"category_id"`
	Description    string  `json:"description,omitempty"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	DurationSec    float64 `json:"duration_seconds"`
	EffectiveSec   float64 `json:"effective_seconds"`
	DistractionSec float64 `json:"distraction_seconds"`
	Distractions   int     `json:"distractions"`
	Duration       string  `json:"duration"`
}

// WriteJSON writes the sessions as an indented JSON document.
func WriteJSON(w io.Writer, sessions []store.Session, categories Categories, loc *time.Location) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
	}

	for _, s := range sessions {
		export.Sessions = append(export.Sessions, jsonSession{
			ID:             s.ID,
			Category:       categories.Name(s.CategoryID),
			CategoryID:     s.CategoryID,
			Description:    s.Description,
			StartTime:      formatTime(s.StartTime, loc),
			EndTime:        formatTime(s.EndTime, loc),
			DurationSec:    s.Duration,
			EffectiveSec:   s.EffectiveTime,
			DistractionSec: s.DistractionTime(),
			Distractions:   len(s.Distractions),
			Duration:       formatDuration(s.Duration),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// ToJSON writes the sessions to a new file at path.
func ToJSON(sessions []store.Session, categories Categories, loc *time.Location, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, sessions, categories, loc); err != nil {
		return err
	}
	return f.Close()
}
