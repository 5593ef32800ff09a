package store

import (
	"fmt"
	"time"
)

// MonthKey identifies a calendar month. Its String form (YYYY-MM) is what
// queries compare against to_char(<date column>, 'YYYY-MM').
type MonthKey struct {
	Year  int
	Month int
}

func NewMonthKey(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: int(t.Month())}
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
}

// Days returns the number of days in the month.
func (k MonthKey) Days() int {
	return time.Date(k.Year, time.Month(k.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
