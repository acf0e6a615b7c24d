package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// dateFormats are tried before natural language parsing.
var dateFormats = []string{
	domain.DateLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

func newDateParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// parseDateFlag turns "yesterday", "last monday", "3 days ago" or a
// calendar date into a YYYY-MM-DD string in now's location.
func parseDateFlag(s string, now time.Time) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}

	for _, format := range dateFormats {
		if t, err := time.ParseInLocation(format, s, now.Location()); err == nil {
			return t.Format(domain.DateLayout), nil
		}
	}

	result, err := newDateParser().Parse(s, now)
	if err == nil && result != nil {
		return result.Time.In(now.Location()).Format(domain.DateLayout), nil
	}
	return "", fmt.Errorf("unrecognized date %q", s)
}

// parseRangeFlags resolves --from/--to into an inclusive range.
func parseRangeFlags(from, to string, now time.Time) (*domain.DateRange, error) {
	fromDate, err := parseDateFlag(from, now)
	if err != nil {
		return nil, err
	}
	toDate, err := parseDateFlag(to, now)
	if err != nil {
		return nil, err
	}
	return domain.ParseDateRange(fromDate, toDate, now)
}
