package prices

import (
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/finboard/internal/models"
)

// YearStart is the default chart start: January 1st of now's year.
func YearStart(now time.Time) time.Time {
	return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// ParseStartDate parses a YYYY-MM-DD start date. Blank input means YearStart(now).
func ParseStartDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return YearStart(now), nil
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q: expected YYYY-MM-DD", s)
	}
	if t.After(now) {
		return time.Time{}, fmt.Errorf("start date %s is in the future", s)
	}
	return t, nil
}
