package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateRange is an inclusive time window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// DateLayout is the calendar date format accepted by every front end.
const DateLayout = "2006-01-02"

// ParseDateRange turns optional YYYY-MM-DD bounds into an inclusive range in
// now's location. A missing lower bound is the zero time and a missing upper
// bound is now. Both empty yields a nil range.
func ParseDateRange(from, to string, now time.Time) (*DateRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	rng := &DateRange{End: now}
	if from != "" {
		t, err := time.ParseInLocation(DateLayout, from, now.Location())
		if err != nil {
			return nil, fmt.Errorf("invalid from date %q: want YYYY-MM-DD", from)
		}
		rng.Start = t
	}
	if to != "" {
		t, err := time.ParseInLocation(DateLayout, to, now.Location())
		if err != nil {
			return nil, fmt.Errorf("invalid to date %q: want YYYY-MM-DD", to)
		}
		rng.End = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if rng.End.Before(rng.Start) {
		return nil, fmt.Errorf("date range ends before it starts")
	}
	return rng, nil
}

// Stats aggregates the session log.
type Stats struct {
	TodaySessions int           `json:"todaySessions"`
	WeekSessions  int           `json:"weekSessions"`
	TotalFocus    time.Duration `json:"totalFocus"`
}

// DayFocus is the completed focus work of a single calendar day.
type DayFocus struct {
	Date     time.Time
	Sessions int
	Focus    time.Duration
}

// SessionsByTask returns the records that reference taskID.
func SessionsByTask(records []SessionRecord, taskID string) []SessionRecord {
	var result []SessionRecord
	for _, r := range records {
		if r.HasTask(taskID) {
			result = append(result, r)
		}
	}
	return result
}

// SessionsByDate returns the records whose stored timestamp starts with
// dateISO (for example "2026-10-19"). No timezone conversion is performed;
// timestamps are stored in UTC.
func SessionsByDate(records []SessionRecord, dateISO string) []SessionRecord {
	var result []SessionRecord
	for _, r := range records {
		if strings.HasPrefix(r.CompletedAtISO(), dateISO) {
			result = append(result, r)
		}
	}
	return result
}

// TotalFocusTime sums the planned duration of completed focus sessions.
// Interrupted sessions are excluded. taskID and rng narrow the sum when set.
func TotalFocusTime(records []SessionRecord, taskID *string, rng *DateRange) time.Duration {
	var total time.Duration
	for _, r := range records {
		if !r.IsCompletedFocus() {
			continue
		}
		if taskID != nil && !r.HasTask(*taskID) {
			continue
		}
		if rng != nil && !rng.Contains(r.CompletedAt) {
			continue
		}
		total += r.Duration()
	}
	return total
}

// TodaySessionsCount counts completed focus sessions on now's calendar day.
func TodaySessionsCount(records []SessionRecord, now time.Time) int {
	y, m, d := now.Date()
	count := 0
	for _, r := range records {
		if !r.IsCompletedFocus() {
			continue
		}
		ry, rm, rd := r.CompletedAt.In(now.Location()).Date()
		if ry == y && rm == m && rd == d {
			count++
		}
	}
	return count
}

// WeekSessionsCount counts completed focus sessions in the 7 days before now.
func WeekSessionsCount(records []SessionRecord, now time.Time) int {
	weekAgo := now.AddDate(0, 0, -7)
	count := 0
	for _, r := range records {
		if r.IsCompletedFocus() && !r.CompletedAt.Before(weekAgo) {
			count++
		}
	}
	return count
}

// ComputeStats derives all aggregates in one pass over the log.
func ComputeStats(records []SessionRecord, now time.Time) Stats {
	return Stats{
		TodaySessions: TodaySessionsCount(records, now),
		WeekSessions:  WeekSessionsCount(records, now),
		TotalFocus:    TotalFocusTime(records, nil, nil),
	}
}

// DailyFocus returns one entry per calendar day for the last days days,
// oldest first, ending on now's day.
func DailyFocus(records []SessionRecord, now time.Time, days int) []DayFocus {
	if days <= 0 {
		return nil
	}
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	first := today.AddDate(0, 0, -(days - 1))

	result := make([]DayFocus, days)
	for i := range result {
		result[i].Date = first.AddDate(0, 0, i)
	}

	for _, r := range records {
		if !r.IsCompletedFocus() {
			continue
		}
		local := r.CompletedAt.In(loc)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		if day.Before(first) || day.After(today) {
			continue
		}
		idx := int(day.Sub(first).Hours()+12) / 24
		if idx < 0 || idx >= days {
			continue
		}
		result[idx].Sessions++
		result[idx].Focus += r.Duration()
	}
	return result
}
