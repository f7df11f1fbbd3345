// Package feed assembles the event timeline: it buckets posts into hourly
// timeslots, seeds their scores from category weights and pages through the
// result.
package feed

import "time"

// Quantize rounds t to the nearest hour in UTC. Minutes 0-29 round down, 30-59
// round up, carrying into the next day when needed.
func Quantize(t time.Time) time.Time {
	t = t.UTC()
	slot := t.Truncate(time.Hour)
	if t.Minute() >= 30 {
		slot = slot.Add(time.Hour)
	}
	return slot
}
