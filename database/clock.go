package database

import "time"

// Clock supplies wall-clock time to a store. Year- and month-sensitive logic
// (numbering, monthly stats) reads it instead of time.Now so tests can pin
// the calendar.
type Clock func() time.Time

func systemClock() time.Time { return time.Now() }
