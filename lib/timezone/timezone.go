package timezone

import (
	"fmt"
	"strings"
	"time"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Bogota")
	if err != nil {
		panic(err)
	}
}

// force timezone to be registry-local because our servers sometimes land
// in other regions which will cause disturbances when manipulating dates
// based on <time.Time>.Year()/Month()/Day()/Hour()/...
func Now() time.Time {
	return time.Now().In(Location)
}

// ParseRegistryDate parses the registry's dd/mm/yyyy date-only format.
func ParseRegistryDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.ParseInLocation("02/01/2006", s, Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed registry date %q: %w", s, err)
	}
	return t, nil
}

// ValidateScheduleSlot checks the "HH:MM|HH:MM" weekday slot format the
// registry renders in its results table. The slot is kept as a string,
// only its shape is validated.
func ValidateScheduleSlot(s string) error {
	parts := strings.Split(s, "|")
	if len(parts) != 2 {
		return fmt.Errorf("malformed schedule slot %q", s)
	}
	for _, p := range parts {
		if _, err := time.Parse("15:04", p); err != nil {
			return fmt.Errorf("malformed schedule slot %q: %w", s, err)
		}
	}
	return nil
}
