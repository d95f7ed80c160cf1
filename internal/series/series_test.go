package series

import (
	"testing"

	"eventcal/internal/model"
)

func recurring(id, title, date string, typ model.RepeatType, interval int) model.Event {
	d, err := model.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return model.Event{
		ID: id,
		EventForm: model.EventForm{
			Title:            title,
			Date:             d,
			StartTime:        model.MustTime("09:00"),
			EndTime:          model.MustTime("10:00"),
			Description:      "테스트",
			Location:         "회의실",
			Category:         model.CategoryWork,
			Repeat:           model.RepeatRule{Type: typ, Interval: interval},
			NotificationTime: 10,
		},
	}
}

func idsOf(events []model.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestFindRelated(t *testing.T) {
	events := []model.Event{
		recurring("1", "회의 A", "2025-10-15", model.RepeatDaily, 1),
		recurring("2", "회의 A", "2025-10-16", model.RepeatDaily, 1),
		recurring("3", "회의 B", "2025-10-15", model.RepeatDaily, 1),
		recurring("4", "회의 A", "2025-10-17", model.RepeatDaily, 2),
		recurring("5", "회의 A", "2025-10-18", model.RepeatWeekly, 1),
		recurring("6", "회의 A", "2025-10-19", model.RepeatDaily, 1),
		recurring("7", "회의 A", "2025-10-20", model.RepeatNone, 0),
	}

	got := FindRelated(events[0], events)
	want := []string{"2", "6"}
	if g := idsOf(got); len(g) != len(want) || g[0] != want[0] || g[1] != want[1] {
		t.Errorf("FindRelated = %v, want %v", g, want)
	}

	if got := FindRelated(events[2], events); len(got) != 0 {
		t.Errorf("different title grouped: %v", idsOf(got))
	}
	if got := FindRelated(events[3], events); len(got) != 0 {
		t.Errorf("different interval grouped: %v", idsOf(got))
	}
	if got := FindRelated(events[4], events); len(got) != 0 {
		t.Errorf("different type grouped: %v", idsOf(got))
	}
	if got := FindRelated(events[6], events); len(got) != 0 {
		t.Errorf("non-repeating target has related events: %v", idsOf(got))
	}
}

func TestFindRelatedZeroInterval(t *testing.T) {
	a := recurring("1", "반복 일정", "2025-10-15", model.RepeatDaily, 0)
	b := recurring("2", "반복 일정", "2025-10-16", model.RepeatDaily, 0)
	all := []model.Event{a, b}

	if got := FindRelated(a, all); len(got) != 0 {
		t.Errorf("interval 0 should not group, got %v", idsOf(got))
	}
	if got := FindRelated(b, all); len(got) != 0 {
		t.Errorf("interval 0 should not group, got %v", idsOf(got))
	}
}

func TestFindRelatedDifferentTimes(t *testing.T) {
	a := recurring("1", "반복 일정", "2025-10-15", model.RepeatDaily, 1)
	b := recurring("2", "반복 일정", "2025-10-16", model.RepeatDaily, 1)
	b.EndTime = model.MustTime("11:00")
	c := recurring("3", "반복 일정", "2025-10-17", model.RepeatDaily, 1)
	c.StartTime = model.MustTime("08:00")

	if got := FindRelated(a, []model.Event{a, b, c}); len(got) != 0 {
		t.Errorf("different times grouped: %v", idsOf(got))
	}
}

func TestFindRelatedIgnoresDateAndOtherFields(t *testing.T) {
	a := recurring("1", "반복 일정", "2024-02-29", model.RepeatDaily, 1)
	b := recurring("2", "반복 일정", "2024-03-01", model.RepeatDaily, 1)
	b.Description = "다른 설명"
	b.Location = "다른 장소"

	if got := FindRelated(a, []model.Event{a, b}); len(got) != 1 || got[0].ID != "2" {
		t.Errorf("expected sibling 2, got %v", idsOf(got))
	}
}

func TestFindRelatedTargetNotInCollection(t *testing.T) {
	a := recurring("1", "반복 일정", "2025-10-15", model.RepeatDaily, 1)
	ghost := a
	ghost.ID = "non-existent"

	got := FindRelated(ghost, []model.Event{a})
	if len(got) != 1 || got[0].ID != "1" {
		t.Errorf("expected 1 related, got %v", idsOf(got))
	}
	if got := FindRelated(a, nil); len(got) != 0 {
		t.Errorf("empty collection produced %v", idsOf(got))
	}
}

func TestGroup(t *testing.T) {
	a := recurring("1", "반복 일정", "2025-10-15", model.RepeatDaily, 1)
	b := recurring("2", "반복 일정", "2025-10-16", model.RepeatDaily, 1)
	got := Group(b, []model.Event{a, b})
	if g := idsOf(got); len(g) != 2 || g[0] != "2" || g[1] != "1" {
		t.Errorf("Group = %v", g)
	}
}
