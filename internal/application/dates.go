package application

import (
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// parseDate reads a YYYY-MM-DD date, ignoring anything after the first ten
// characters. An empty value is nil.
func parseDate(value, field string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if len(value) > len(dateLayout) {
		value = value[:len(dateLayout)]
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, badRequest("'%s': invalid date %q, expected YYYY-MM-DD", field, value)
	}
	return &parsed, nil
}

// parseClock reads an HH:MM time of day, ignoring anything after the first
// five characters, and returns it normalized. An empty value stays empty.
func parseClock(value, field string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if len(value) > len(clockLayout) {
		value = value[:len(clockLayout)]
	}
	parsed, err := time.Parse(clockLayout, value)
	if err != nil {
		return "", badRequest("'%s': invalid time %q, expected HH:MM", field, value)
	}
	return parsed.Format(clockLayout), nil
}

// FormatDate renders a stored date for the wire. A nil date is empty.
func FormatDate(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format(dateLayout)
}

func monthOf(date *time.Time) int {
	if date == nil {
		return 0
	}
	return int(date.Month())
}
