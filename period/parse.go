package period

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const readDateFormat = "2006-1-2" // Permissive read date format (allows single-digit month/day).

var relativeDateRE = regexp.MustCompile(`^([+-])(\d+)([dwmqy])$`)

// ParseDay parses a day, relative to now when it is written like -1d or +2w.
// "0d" is today. Absolute days are lenient and accept "2025-7-1".
func ParseDay(str string, now time.Time) (time.Time, error) {
	str = strings.TrimSpace(str)
	today := Day(now)

	if str == "0d" {
		return today, nil
	}

	// Relative Duration Format (e.g., -1d, +2w) - sign is mandatory for non-zero
	if match := relativeDateRE.FindStringSubmatch(str); match != nil {
		num, err := strconv.Atoi(match[2])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid number in relative date %q: %w", str, err)
		}
		if match[1] == "-" {
			num = -num
		}
		switch match[3] {
		case "d":
			return today.AddDate(0, 0, num), nil
		case "w":
			return today.AddDate(0, 0, num*7), nil
		case "m":
			return today.AddDate(0, num, 0), nil
		case "q":
			return today.AddDate(0, num*3, 0), nil
		case "y":
			return today.AddDate(num, 0, 0), nil
		}
	}

	on, err := time.Parse(readDateFormat, str)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q want format %q or a relative date like -7d: %w", str, readDateFormat, err)
	}
	return on, nil
}
