package services

import "time"

// dayOf truncates a timestamp to its UTC calendar day. Every date column
// in the store holds values produced by this, so equality and range
// comparisons on dates behave the same across postgres and sqlite.
func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
