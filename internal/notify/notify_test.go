package notify

import (
	"context"
	"testing"
	"time"

	"eventcal/internal/model"
)

func ev(id, title, date, start string, notify int) model.Event {
	d, err := model.ParseDate(date)
	if err != nil {
		panic(err)
	}
	st := model.MustTime(start)
	return model.Event{
		ID: id,
		EventForm: model.EventForm{
			Title:            title,
			Date:             d,
			StartTime:        st,
			EndTime:          st + 60,
			Category:         model.CategoryPersonal,
			Repeat:           model.NoRepeat(),
			NotificationTime: notify,
		},
	}
}

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func TestUpcoming(t *testing.T) {
	now := at("2025-10-15 08:50")
	events := []model.Event{
		ev("a", "10분 전 알림", "2025-10-15", "09:00", 10),
		ev("b", "1분 전 알림", "2025-10-15", "09:00", 1),
		ev("c", "알림 없음", "2025-10-15", "09:00", 0),
		ev("d", "이미 시작", "2025-10-15", "08:50", 10),
		ev("e", "1시간 전 알림", "2025-10-15", "09:30", 60),
		ev("f", "내일 일정", "2025-10-16", "08:00", 1440),
		ev("g", "이틀 뒤", "2025-10-17", "09:00", 1440),
	}

	got := Upcoming(events, now, nil)
	want := []string{"a", "e", "f"}
	if len(got) != len(want) {
		t.Fatalf("Upcoming = %v, want %v", ids(got), want)
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("Upcoming[%d] = %s, want %s", i, got[i].ID, want[i])
		}
	}

	skip := func(id string) bool { return id == "a" }
	if got := Upcoming(events, now, skip); len(got) != 2 || got[0].ID != "e" {
		t.Errorf("notified events not skipped: %v", ids(got))
	}
}

func TestMessage(t *testing.T) {
	got := Message(ev("a", "팀 회의", "2025-10-15", "09:00", 10))
	if want := "10분 후 팀 회의 일정이 시작됩니다."; got != want {
		t.Errorf("Message = %q, want %q", got, want)
	}
}

func TestFeed(t *testing.T) {
	f := NewFeed(2)
	now := at("2025-10-15 08:50")

	if !f.Push(ev("a", "A", "2025-10-15", "09:00", 10), now) {
		t.Fatal("first push rejected")
	}
	if f.Push(ev("a", "A", "2025-10-15", "09:00", 10), now) {
		t.Error("duplicate push accepted")
	}
	f.Push(ev("b", "B", "2025-10-15", "09:00", 10), now)
	f.Push(ev("c", "C", "2025-10-15", "09:00", 10), now)

	list := f.List()
	if len(list) != 2 || list[0].EventID != "b" || list[1].EventID != "c" {
		t.Fatalf("List = %+v", list)
	}
	if !f.Notified("a") {
		t.Error("dropped alert forgot its event")
	}

	if !f.Dismiss("b") || f.Dismiss("b") {
		t.Error("Dismiss should succeed once")
	}
	if len(f.List()) != 1 || !f.Notified("b") {
		t.Errorf("after dismiss: %+v", f.List())
	}
}

type staticSource []model.Event

func (s staticSource) Events() []model.Event { return s }

func TestPollerCheck(t *testing.T) {
	src := staticSource{
		ev("a", "팀 회의", "2025-10-15", "09:00", 10),
		ev("b", "점심", "2025-10-15", "12:00", 10),
	}
	feed := NewFeed(0)
	p, err := NewPoller(src, feed, "", time.Local)
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}
	p.now = func() time.Time { return at("2025-10-15 08:55") }

	added := p.Check()
	if len(added) != 1 || added[0].Message != "10분 후 팀 회의 일정이 시작됩니다." {
		t.Fatalf("Check = %+v", added)
	}
	if again := p.Check(); len(again) != 0 {
		t.Errorf("second check re-alerted: %+v", again)
	}
	if len(src) != 2 || src[0].NotificationTime != 10 {
		t.Error("poller mutated the events")
	}
}

func TestPollerUsesConfiguredZone(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	src := staticSource{ev("a", "팀 회의", "2025-10-15", "09:00", 10)}

	tests := []struct {
		name  string
		clock time.Time
		want  int
	}{
		// 08:55 KST read from a UTC clock.
		{"five minutes before", time.Date(2025, 10, 14, 23, 55, 0, 0, time.UTC), 1},
		// 08:55 UTC is 17:55 KST, well after the start.
		{"host wall clock", time.Date(2025, 10, 15, 8, 55, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPoller(src, NewFeed(0), "", kst)
			if err != nil {
				t.Fatalf("NewPoller: %v", err)
			}
			p.now = func() time.Time { return tt.clock }
			added := p.Check()
			if len(added) != tt.want {
				t.Fatalf("Check = %+v, want %d alerts", added, tt.want)
			}
			if tt.want > 0 && added[0].At.Location() != kst {
				t.Errorf("alert stamped in %s", added[0].At.Location())
			}
		})
	}
}

func TestPollerBadSchedule(t *testing.T) {
	if _, err := NewPoller(staticSource{}, NewFeed(0), "every now and then", nil); err == nil {
		t.Error("expected schedule parse error")
	}
}

func TestPollerStartStop(t *testing.T) {
	p, err := NewPoller(staticSource{}, NewFeed(0), "@every 1h", nil)
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}
	p.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Stop(ctx)
}

func ids(events []model.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}
