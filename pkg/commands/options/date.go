package options

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/daily/pkg/memory"
)

const (
	layoutISO      = "2006-1-2"
	layoutISOShort = "1/2"
)

// DateOptions
type DateOptions struct {
	DateString string
}

func AddDateArgs(cmd *cobra.Command, o *DateOptions) {
	cmd.Flags().StringVarP(&o.DateString, "date", "d", "",
		`Day of the memory, example: --date="2024-2-28" or --date="2/28". Defaults to today.`)
}

// GetDate resolves the flag to YYYY-MM-DD, or "" when unset. A month/day
// without a year means the most recent such day on or before now.
func (o *DateOptions) GetDate(now time.Time) (string, error) {
	s := strings.TrimSpace(o.DateString)
	if s == "" || s == "today" {
		return "", nil
	}
	if s == "yesterday" {
		return memory.FormatDate(memory.Today(now).AddDate(0, 0, -1)), nil
	}
	t, err := time.ParseInLocation(layoutISO, s, time.Local)
	if err != nil {
		short, serr := time.ParseInLocation(layoutISOShort, s, time.Local)
		if serr != nil {
			return "", fmt.Errorf("invalid date %q: %w", s, err)
		}
		t, err = recentDay(now, short.Month(), short.Day())
		if err != nil {
			return "", fmt.Errorf("invalid date %q: %w", s, err)
		}
	}
	return memory.FormatDate(t), nil
}

// recentDay finds the latest year, at or before now, in which month/day
// exists and is not in the future. Feb 29 walks back to a leap year.
func recentDay(now time.Time, month time.Month, day int) (time.Time, error) {
	today := memory.Today(now)
	for year := now.Year(); year >= now.Year()-8; year-- {
		t := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
		if t.Month() != month || t.Day() != day || t.After(today) {
			continue
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%s %d does not exist", month, day)
}
