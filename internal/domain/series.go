package domain

import (
	"sort"
	"time"
)

// Observation is a single dated value of a price or dividend series.
type Observation struct {
	Date  time.Time
	Value float64
}

// Series is a date-indexed sequence of observations.
type Series []Observation

// CalendarDate truncates t to its calendar date, read in t's own location,
// and returns it as midnight UTC. Two timestamps on the same local day map to
// the same value regardless of time-of-day or offset.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Normalize returns a copy with every date reduced to its calendar date and
// sorted chronologically. For duplicate dates the last observation wins.
func (s Series) Normalize() Series {
	byDate := make(map[time.Time]float64, len(s))
	for _, o := range s {
		byDate[CalendarDate(o.Date)] = o.Value
	}
	out := make(Series, 0, len(byDate))
	for d, v := range byDate {
		out = append(out, Observation{Date: d, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Between returns the observations whose calendar date lies in [from, to].
// A zero bound leaves that side open.
func (s Series) Between(from, to time.Time) Series {
	from, to = CalendarDate(from), CalendarDate(to)
	out := make(Series, 0, len(s))
	for _, o := range s {
		d := CalendarDate(o.Date)
		if (!from.IsZero() && d.Before(from)) || (!to.IsZero() && d.After(to)) {
			continue
		}
		out = append(out, o)
	}
	return out
}
