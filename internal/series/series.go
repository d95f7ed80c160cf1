// Package series reconstructs recurring-event groups. Instances are stored
// independently with unrelated ids, so membership is recomputed from the
// fields every instance of a series shares: title, start and end time, and
// repeat type and interval. The date is never part of the key.
package series

import (
	"eventcal/internal/model"
)

// Key is the derived group key of an event.
type Key struct {
	Title      string
	StartTime  model.TimeOfDay
	EndTime    model.TimeOfDay
	RepeatType model.RepeatType
	Interval   int
}

// KeyOf returns the group key of ev and whether ev belongs to any group.
// Events that do not repeat, including those with interval 0, have no group.
func KeyOf(ev model.Event) (Key, bool) {
	if !ev.Repeat.IsRepeating() {
		return Key{}, false
	}
	return Key{
		Title:      ev.Title,
		StartTime:  ev.StartTime,
		EndTime:    ev.EndTime,
		RepeatType: ev.Repeat.Type,
		Interval:   ev.Repeat.Interval,
	}, true
}

// FindRelated returns the other events in all that belong to target's
// series, excluding target itself, in their original order. Editing a key
// field of an instance (its title, say) detaches it from its former siblings.
func FindRelated(target model.Event, all []model.Event) []model.Event {
	out := make([]model.Event, 0)
	key, ok := KeyOf(target)
	if !ok {
		return out
	}
	for _, ev := range all {
		if ev.ID == target.ID {
			continue
		}
		if k, ok := KeyOf(ev); ok && k == key {
			out = append(out, ev)
		}
	}
	return out
}

// Group returns target followed by its related events.
func Group(target model.Event, all []model.Event) []model.Event {
	return append([]model.Event{target}, FindRelated(target, all)...)
}
