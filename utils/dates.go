// utils/dates.go
package utils

import "time"

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// ParseDate validates a YYYY-MM-DD string
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// ParseClock validates an HH:MM string
func ParseClock(s string) (time.Time, error) {
	return time.Parse(ClockLayout, s)
}

// AddDays shifts a YYYY-MM-DD string by n days
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

func Today() string {
	return time.Now().Format(DateLayout)
}
