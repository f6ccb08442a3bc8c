package daemon

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Window is an hour range within a day, [Start, End) in local time.
type Window struct {
	Start int
	End   int
}

func (w Window) String() string {
	return fmt.Sprintf("%d-%d", w.Start, w.End)
}

// ParseWindows parses a comma-separated list of hour ranges like "6-8,18-20".
// Hours are 0-24 and each range must be non-empty. The result is sorted by
// start hour.
func ParseWindows(spec string) ([]Window, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, fmt.Errorf("empty window spec")
	}

	var windows []Window
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		bounds := strings.Split(part, "-")
		if len(bounds) != 2 {
			return nil, fmt.Errorf("invalid window %q: expected start-end", part)
		}

		start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid window %q: bad start hour: %w", part, err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid window %q: bad end hour: %w", part, err)
		}

		if start < 0 || end > 24 || start >= end {
			return nil, fmt.Errorf("invalid window %q: hours must satisfy 0 <= start < end <= 24", part)
		}
		windows = append(windows, Window{Start: start, End: end})
	}

	sort.Slice(windows, func(i, j int) bool { return windows[i].Start < windows[j].Start })
	return windows, nil
}

// NextRun picks a uniformly-random instant inside the next applicable window
// relative to now. If now falls inside a window, the instant is sampled from
// the remainder of that window; when all of today's windows have passed, the
// first window of the following day is used.
func NextRun(now time.Time, windows []Window, rng *rand.Rand) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for dayOffset := 0; ; dayOffset++ {
		day := midnight.AddDate(0, 0, dayOffset)
		for _, w := range windows {
			start := day.Add(time.Duration(w.Start) * time.Hour)
			end := day.Add(time.Duration(w.End) * time.Hour)
			if !now.Before(end) {
				continue
			}
			if now.After(start) {
				start = now
			}
			span := end.Sub(start)
			return start.Add(time.Duration(rng.Int63n(int64(span))))
		}
	}
}
