package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/pacemate/server/src/go/pkg/domain/sessionorder"
	"github.com/pacemate/server/src/go/pkg/types"
)

// week-inspect prints the ISO week key and the dense sequence/week ranks a
// set of dates would receive. Useful for checking boundary behaviour around
// the turn of the year without touching Firestore.
//
// Usage:
//
//	week-inspect 2026-12-28 2027-01-03 2027-01-04
//	week-inspect -from 2026-12-21 -days 21
func main() {
	from := flag.String("from", "", "start date (YYYY-MM-DD) for a generated range")
	days := flag.Int("days", 0, "number of consecutive days to generate from -from")
	flag.Parse()

	dates, err := collectDates(flag.Args(), *from, *days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(dates) == 0 {
		fmt.Fprintln(os.Stderr, "No dates given. Pass dates as args or use -from/-days.")
		flag.Usage()
		os.Exit(1)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	sessions := make([]types.DatedSession, len(dates))
	for i, d := range dates {
		sessions[i] = types.DatedSession{
			ID:        fmt.Sprintf("d%d", i+1),
			Date:      d,
			CreatedAt: d,
		}
	}
	updates := sessionorder.RecomputeAll(sessions)

	positions := make(map[string]sessionorder.Position, len(updates))
	for _, u := range updates {
		positions[u.SessionID] = u.Position
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDAY\tWEEK KEY\tSEQ\tWEEK RANK")
	for i, d := range dates {
		key := sessionorder.WeekKeyOf(d)
		pos := positions[sessions[i].ID]
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
			d.Format("2006-01-02"), d.Format("Mon"), key, pos.Sequence, pos.Week)
	}
	w.Flush()
}

func collectDates(args []string, from string, days int) ([]time.Time, error) {
	var dates []time.Time

	for _, arg := range args {
		d, err := time.ParseInLocation("2006-01-02", arg, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", arg, err)
		}
		dates = append(dates, d)
	}

	if from != "" {
		start, err := time.ParseInLocation("2006-01-02", from, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid -from date %q: %w", from, err)
		}
		if days <= 0 {
			days = 7
		}
		for i := 0; i < days; i++ {
			dates = append(dates, start.AddDate(0, 0, i))
		}
	}

	return dates, nil
}
