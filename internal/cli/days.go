package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/tempo/internal/store"
)

// parseDay accepts YYYY-MM-DD, "today" and "yesterday". Empty means today.
func parseDay(s string, loc *time.Location) (store.Day, error) {
	today := store.Today(loc)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDays(-1), nil
	}
	d, err := store.ParseDay(s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// dayRange resolves a from/to pair. An empty from goes back days-1 days
// from to.
func dayRange(from, to string, days int, loc *time.Location) (store.Day, store.Day, error) {
	end, err := parseDay(to, loc)
	if err != nil {
		return "", "", err
	}
	if from == "" {
		if days < 1 {
			return "", "", fmt.Errorf("days must be positive, got %d", days)
		}
		return end.AddDays(1 - days), end, nil
	}
	start, err := parseDay(from, loc)
	if err != nil {
		return "", "", err
	}
	if start > end {
		return "", "", fmt.Errorf("from %s is after to %s", start, end)
	}
	return start, end, nil
}
