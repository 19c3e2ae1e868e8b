// Package weekplan models a user's menu for an ISO week.
package weekplan

import (
	"errors"
	"time"
)

// DefaultPortions is used when auto-fill is not given a portion count
const DefaultPortions = 2

var (
	ErrInvalidPortions = errors.New("portions must be greater than 0")
	ErrInvalidWeekday  = errors.New("days must be ISO weekdays between 1 and 7")
)

// Entry assigns one recipe to one day of a user's week
type Entry struct {
	ID        int64
	UserID    int64
	RecipeID  int64
	Date      time.Time
	Portions  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEntry plans recipeID for userID on date
func NewEntry(userID, recipeID int64, date time.Time, portions int) (*Entry, error) {
	if portions <= 0 {
		return nil, ErrInvalidPortions
	}
	now := time.Now().UTC()
	return &Entry{
		UserID:    userID,
		RecipeID:  recipeID,
		Date:      Day(date),
		Portions:  portions,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsOwnedBy reports whether the entry belongs to userID
func (e *Entry) IsOwnedBy(userID int64) bool {
	return e.UserID == userID
}

// Week is the Monday-to-Sunday ISO week that contains a date
type Week struct {
	Start time.Time
}

// WeekOf returns the ISO week containing date
func WeekOf(date time.Time) Week {
	d := Day(date)
	offset := (int(d.Weekday()) + 6) % 7
	return Week{Start: d.AddDate(0, 0, -offset)}
}

// End is the Sunday of the week
func (w Week) End() time.Time {
	return w.Start.AddDate(0, 0, 6)
}

// Days lists Monday through Sunday
func (w Week) Days() []time.Time {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = w.Start.AddDate(0, 0, i)
	}
	return days
}

// Contains reports whether date falls into the week
func (w Week) Contains(date time.Time) bool {
	d := Day(date)
	return !d.Before(w.Start) && !d.After(w.End())
}

// Day truncates t to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ISOWeekday numbers Monday as 1 and Sunday as 7
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// DayFilter restricts auto-fill to a set of ISO weekdays. The zero value
// allows every day
type DayFilter struct {
	days map[int]struct{}
}

// NewDayFilter builds a filter from ISO weekday numbers
func NewDayFilter(days []int) (DayFilter, error) {
	if len(days) == 0 {
		return DayFilter{}, nil
	}
	f := DayFilter{days: make(map[int]struct{}, len(days))}
	for _, d := range days {
		if d < 1 || d > 7 {
			return DayFilter{}, ErrInvalidWeekday
		}
		f.days[d] = struct{}{}
	}
	return f, nil
}

// Allows reports whether date may be filled
func (f DayFilter) Allows(date time.Time) bool {
	if f.days == nil {
		return true
	}
	_, ok := f.days[ISOWeekday(date)]
	return ok
}
