package model

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Date is a naive local calendar date (no timezone). It marshals as YYYY-MM-DD.
type Date = civil.Date

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	return civil.ParseDate(s)
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	return civil.DateOf(t)
}

// Category is the fixed set of event categories shown in the form.
type Category string

const (
	CategoryWork     Category = "업무"
	CategoryPersonal Category = "개인"
	CategoryFamily   Category = "가족"
	CategoryOther    Category = "기타"
)

// Categories lists the categories in form order.
var Categories = []Category{CategoryWork, CategoryPersonal, CategoryFamily, CategoryOther}

// NotificationOption is one entry of the "notify before" select box.
type NotificationOption struct {
	Minutes int
	Label   string
}

// NotificationOptions are the lead times offered to the user.
var NotificationOptions = []NotificationOption{
	{Minutes: 1, Label: "1분 전"},
	{Minutes: 10, Label: "10분 전"},
	{Minutes: 60, Label: "1시간 전"},
	{Minutes: 120, Label: "2시간 전"},
	{Minutes: 1440, Label: "1일 전"},
}

// NotificationLabel returns the label for a lead time, or "" if it is not
// one of the offered options.
func NotificationLabel(minutes int) string {
	for _, o := range NotificationOptions {
		if o.Minutes == minutes {
			return o.Label
		}
	}
	return ""
}

type RepeatType string

const (
	RepeatNone    RepeatType = "none"
	RepeatDaily   RepeatType = "daily"
	RepeatWeekly  RepeatType = "weekly"
	RepeatMonthly RepeatType = "monthly"
	RepeatYearly  RepeatType = "yearly"
)

// RepeatRule describes how an event recurs. EndDate is an inclusive bound;
// nil means the event occurs once.
type RepeatRule struct {
	Type     RepeatType `json:"type" validate:"omitempty,oneof=none daily weekly monthly yearly"`
	Interval int        `json:"interval"`
	EndDate  *Date      `json:"endDate,omitempty"`
}

// UnmarshalJSON accepts an empty or null endDate as no end date, as forms
// send it for events that do not repeat.
func (r *RepeatRule) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type     RepeatType `json:"type"`
		Interval int        `json:"interval"`
		EndDate  *string    `json:"endDate"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	rule := RepeatRule{Type: raw.Type, Interval: raw.Interval}
	if raw.EndDate != nil && *raw.EndDate != "" {
		d, err := ParseDate(*raw.EndDate)
		if err != nil {
			return fmt.Errorf("repeat endDate %q: %w", *raw.EndDate, err)
		}
		rule.EndDate = &d
	}
	*r = rule
	return nil
}

// NoRepeat is the rule stored on standalone events, including instances
// detached from their series.
func NoRepeat() RepeatRule {
	return RepeatRule{Type: RepeatNone, Interval: 0}
}

// IsRepeating reports whether the rule actually recurs. An interval below 1
// is treated as not repeating.
func (r RepeatRule) IsRepeating() bool {
	return r.Type != "" && r.Type != RepeatNone && r.Interval > 0
}

// Equal compares two rules including the end date value.
func (r RepeatRule) Equal(o RepeatRule) bool {
	if r.Type != o.Type || r.Interval != o.Interval {
		return false
	}
	if r.EndDate == nil || o.EndDate == nil {
		return r.EndDate == nil && o.EndDate == nil
	}
	return *r.EndDate == *o.EndDate
}

func (r RepeatRule) String() string {
	if r.Type == "" || r.Type == RepeatNone {
		return string(RepeatNone)
	}
	end := "-"
	if r.EndDate != nil {
		end = r.EndDate.String()
	}
	return fmt.Sprintf("%s/%d/%s", r.Type, r.Interval, end)
}

// EventForm is the user-entered event before it is persisted. It is also the
// shape of each instance produced by recurrence expansion.
type EventForm struct {
	Title            string     `json:"title" validate:"required"`
	Date             Date       `json:"date"`
	StartTime        TimeOfDay  `json:"startTime"`
	EndTime          TimeOfDay  `json:"endTime"`
	Description      string     `json:"description"`
	Location         string     `json:"location"`
	Category         Category   `json:"category" validate:"required,oneof=업무 개인 가족 기타"`
	Repeat           RepeatRule `json:"repeat"`
	NotificationTime int        `json:"notificationTime" validate:"gte=0"`
}

// Event is a persisted event. ID is assigned by the store and never changes.
type Event struct {
	ID string `json:"id"`
	EventForm
}

// Form returns the event's fields without the id.
func (e Event) Form() EventForm {
	return e.EventForm
}

// Start returns the local wall-clock start of the event.
func (e EventForm) Start(loc *time.Location) time.Time {
	return e.StartTime.On(e.Date, loc)
}

// End returns the local wall-clock end of the event.
func (e EventForm) End(loc *time.Location) time.Time {
	return e.EndTime.On(e.Date, loc)
}

// EventPatch carries the fields changed by an edit. Nil fields are left as is.
type EventPatch struct {
	Title            *string     `json:"title,omitempty"`
	Date             *Date       `json:"date,omitempty"`
	StartTime        *TimeOfDay  `json:"startTime,omitempty"`
	EndTime          *TimeOfDay  `json:"endTime,omitempty"`
	Description      *string     `json:"description,omitempty"`
	Location         *string     `json:"location,omitempty"`
	Category         *Category   `json:"category,omitempty"`
	Repeat           *RepeatRule `json:"repeat,omitempty"`
	NotificationTime *int        `json:"notificationTime,omitempty"`
}

// Apply returns a copy of f with the patch applied.
func (p EventPatch) Apply(f EventForm) EventForm {
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.Date != nil {
		f.Date = *p.Date
	}
	if p.StartTime != nil {
		f.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		f.EndTime = *p.EndTime
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Location != nil {
		f.Location = *p.Location
	}
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.Repeat != nil {
		f.Repeat = *p.Repeat
	}
	if p.NotificationTime != nil {
		f.NotificationTime = *p.NotificationTime
	}
	return f
}

// WithoutDate returns the patch minus its date change. Series edits use it so
// every sibling keeps its own date.
func (p EventPatch) WithoutDate() EventPatch {
	p.Date = nil
	return p
}
