package main

import "time"

// publicationHour is the local hour after which the provider has published
// the previous day's data. Before it, only data up to two days back is
// guaranteed.
const publicationHour = 9

// latestAvailableDay returns the midnight of the most recent day for which
// consumption data is guaranteed to be published, evaluated in loc.
func latestAvailableDay(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if local.Hour() >= publicationHour {
		return day.AddDate(0, 0, -1)
	}
	return day.AddDate(0, 0, -2)
}

// dateWindow computes the inclusive daily sequence of fetchable days, as
// local midnights in loc, from start through the effective end. With endNow
// the end is the latest available day; otherwise end is clamped to it. A
// start past the effective end yields an empty window, not an error.
func dateWindow(start, end time.Time, endNow bool, now time.Time, loc *time.Location) []time.Time {
	cutoff := latestAvailableDay(now, loc)

	effective := cutoff
	if !endNow {
		explicit := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
		if explicit.Before(cutoff) {
			effective = explicit
		}
	}

	var days []time.Time
	for d := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc); !d.After(effective); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
