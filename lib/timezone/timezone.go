package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Oslo")
	if err != nil {
		panic(err)
	}
}

// force the timezone used for calendar-day decisions, otherwise a
// server that ends up in another region would flip the "cache is from
// today" check around midnight
func Now() time.Time {
	return time.Now().In(Location)
}

// Midnight truncates t to the start of its calendar day in Location.
func Midnight(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
}
