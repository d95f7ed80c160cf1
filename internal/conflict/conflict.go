// Package conflict finds events whose time slots overlap a candidate slot.
package conflict

import (
	"eventcal/internal/model"
)

// Candidate is the slot being checked. ExcludeID, when set, names the event
// being edited so it is not compared against its own previous version.
type Candidate struct {
	Date      model.Date
	StartTime model.TimeOfDay
	EndTime   model.TimeOfDay
	ExcludeID string
}

// CandidateFor builds a Candidate from a form. Pass the event id when the
// form edits an existing event.
func CandidateFor(f model.EventForm, excludeID string) Candidate {
	return Candidate{
		Date:      f.Date,
		StartTime: f.StartTime,
		EndTime:   f.EndTime,
		ExcludeID: excludeID,
	}
}

// Overlaps reports whether two same-day slots overlap. Slots are half-open:
// one ending at 10:00 and another starting at 10:00 do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd model.TimeOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}

// FindConflicts returns the events in existing that overlap c, in their
// original order. Events on other dates never conflict.
func FindConflicts(c Candidate, existing []model.Event) []model.Event {
	out := make([]model.Event, 0)
	for _, ev := range existing {
		if c.ExcludeID != "" && ev.ID == c.ExcludeID {
			continue
		}
		if ev.Date != c.Date {
			continue
		}
		if Overlaps(c.StartTime, c.EndTime, ev.StartTime, ev.EndTime) {
			out = append(out, ev)
		}
	}
	return out
}
