// Package notify decides which events are about to start and keeps the list
// of alerts shown to the user. It only reads events.
package notify

import (
	"fmt"
	"sync"
	"time"

	"eventcal/internal/model"
)

// Upcoming returns the events whose alert is due at now: notificationTime is
// set, the event has not been notified yet, and it starts within
// notificationTime minutes (strictly in the future).
func Upcoming(events []model.Event, now time.Time, notified func(id string) bool) []model.Event {
	out := make([]model.Event, 0)
	for _, ev := range events {
		if ev.NotificationTime <= 0 || !ev.StartTime.IsValid() {
			continue
		}
		if notified != nil && notified(ev.ID) {
			continue
		}
		minutes := ev.Start(now.Location()).Sub(now).Minutes()
		if minutes > 0 && minutes <= float64(ev.NotificationTime) {
			out = append(out, ev)
		}
	}
	return out
}

// Message is the alert text for ev.
func Message(ev model.Event) string {
	return fmt.Sprintf("%d분 후 %s 일정이 시작됩니다.", ev.NotificationTime, ev.Title)
}

// Alert is one entry of the feed.
type Alert struct {
	EventID string    `json:"eventId"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

const defaultFeedSize = 50

// Feed holds recent alerts, newest last. Every event is alerted at most once
// for the lifetime of the feed, even after its alert is dismissed or dropped.
type Feed struct {
	mu       sync.Mutex
	max      int
	alerts   []Alert
	notified map[string]bool
}

// NewFeed returns a feed keeping at most max alerts (50 if max <= 0).
func NewFeed(max int) *Feed {
	if max <= 0 {
		max = defaultFeedSize
	}
	return &Feed{max: max, notified: make(map[string]bool)}
}

// Notified reports whether an alert for the event was ever pushed.
func (f *Feed) Notified(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notified[id]
}

// Push appends an alert for ev unless one was already pushed. It reports
// whether the alert was added.
func (f *Feed) Push(ev model.Event, at time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notified[ev.ID] {
		return false
	}
	f.notified[ev.ID] = true
	f.alerts = append(f.alerts, Alert{EventID: ev.ID, Message: Message(ev), At: at})
	if over := len(f.alerts) - f.max; over > 0 {
		f.alerts = append([]Alert(nil), f.alerts[over:]...)
	}
	return true
}

// List returns the current alerts.
func (f *Feed) List() []Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Alert{}, f.alerts...)
}

// Dismiss removes the alert for the event. The event stays notified.
func (f *Feed) Dismiss(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.alerts {
		if a.EventID == id {
			f.alerts = append(f.alerts[:i], f.alerts[i+1:]...)
			return true
		}
	}
	return false
}
