package schedule

import (
	"fmt"
	"time"

	"github.com/chris-regnier/dailyctl/internal/model"
)

const day = 24 * time.Hour

// ParseStartDate parses an account start date. The short "14-Dec" form takes
// the year of now.
func ParseStartDate(start string, now time.Time) (time.Time, error) {
	if model.IsShortDate(start) {
		t, ok := model.ShortDateIn(start, now.Year())
		if !ok {
			return time.Time{}, fmt.Errorf("%w: start date %q", ErrInvalidDateFormat, start)
		}
		return t, nil
	}
	t, err := time.Parse(model.DateLayout, start)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start date %q", ErrInvalidDateFormat, start)
	}
	return t, nil
}

// ParseTargetDate parses a YYYY-MM-DD target date.
func ParseTargetDate(target string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, target)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: target date %q", ErrInvalidDateFormat, target)
	}
	return t, nil
}

// ResolveDaysPassed returns the whole days from start to target.
func ResolveDaysPassed(start, target string, now time.Time) (int, error) {
	from, err := ParseStartDate(start, now)
	if err != nil {
		return 0, err
	}
	to, err := ParseTargetDate(target)
	if err != nil {
		return 0, err
	}
	days := int(to.Sub(from) / day)
	if days < 0 {
		return 0, fmt.Errorf("%w: %s is %d days before %s", ErrDateBeforeStart, target, -days, start)
	}
	return days, nil
}

// DateForOffset returns the calendar date offset days after start.
func DateForOffset(start string, offset int, now time.Time) (string, error) {
	from, err := ParseStartDate(start, now)
	if err != nil {
		return "", err
	}
	return from.AddDate(0, 0, offset).Format(model.DateLayout), nil
}
