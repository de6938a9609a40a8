package allocator

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDay is returned for days that do not exist in December
var ErrInvalidDay = errors.New("day must be between 1 and 31")

// Pickup describes when a bag for a given calendar day is collected
type Pickup struct {
	Day     int
	Date    time.Time
	Weekday time.Weekday
	Shifted bool
	Message string
}

// PickupRule moves weekend days to the nearest working day: Saturday to the
// Friday before, Sunday to the Monday after.
func PickupRule(day, year int) (Pickup, error) {
	if day < 1 || day > 31 {
		return Pickup{}, ErrInvalidDay
	}

	date := time.Date(year, time.December, day, 0, 0, 0, 0, time.UTC)
	switch date.Weekday() {
	case time.Saturday:
		date = date.AddDate(0, 0, -1)
	case time.Sunday:
		date = date.AddDate(0, 0, 1)
	default:
		return Pickup{
			Day:     day,
			Date:    date,
			Weekday: date.Weekday(),
			Message: fmt.Sprintf("Pick up on %s, %s", date.Weekday(), date.Format("Jan 2")),
		}, nil
	}

	return Pickup{
		Day:     date.Day(),
		Date:    date,
		Weekday: date.Weekday(),
		Shifted: true,
		Message: fmt.Sprintf("Weekend Rule: Pick up on %s, %s", date.Weekday(), date.Format("Jan 2")),
	}, nil
}
