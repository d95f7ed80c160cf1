package recur

import (
	"errors"
	"strings"
	"testing"

	"eventcal/internal/model"
)

func date(s string) model.Date {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func form(start string, typ model.RepeatType, interval int, end string) model.EventForm {
	f := model.EventForm{
		Title:            "반복 일정",
		Date:             date(start),
		StartTime:        model.MustTime("09:00"),
		EndTime:          model.MustTime("10:00"),
		Description:      "테스트",
		Location:         "회의실",
		Category:         model.CategoryWork,
		Repeat:           model.RepeatRule{Type: typ, Interval: interval},
		NotificationTime: 10,
	}
	if end != "" {
		e := date(end)
		f.Repeat.EndDate = &e
	}
	return f
}

func dateStrings(ds []model.Date) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.String()
	}
	return strings.Join(parts, ",")
}

func TestExpandDates(t *testing.T) {
	tests := []struct {
		name string
		form model.EventForm
		want string
	}{
		{
			name: "no repeat yields the start date",
			form: form("2025-10-15", model.RepeatNone, 0, ""),
			want: "2025-10-15",
		},
		{
			name: "daily every second day",
			form: form("2025-11-03", model.RepeatDaily, 2, "2025-11-09"),
			want: "2025-11-03,2025-11-05,2025-11-07,2025-11-09",
		},
		{
			name: "daily end date not on the step",
			form: form("2025-11-03", model.RepeatDaily, 3, "2025-11-10"),
			want: "2025-11-03,2025-11-06,2025-11-09",
		},
		{
			name: "weekly",
			form: form("2025-10-01", model.RepeatWeekly, 1, "2025-10-29"),
			want: "2025-10-01,2025-10-08,2025-10-15,2025-10-22,2025-10-29",
		},
		{
			name: "biweekly across a month",
			form: form("2025-10-30", model.RepeatWeekly, 2, "2025-12-01"),
			want: "2025-10-30,2025-11-13,2025-11-27",
		},
		{
			name: "monthly on the 31st skips short months",
			form: form("2025-01-31", model.RepeatMonthly, 1, "2025-04-30"),
			want: "2025-01-31,2025-03-31",
		},
		{
			name: "monthly on the 31st over a year",
			form: form("2025-01-31", model.RepeatMonthly, 1, "2025-12-31"),
			want: "2025-01-31,2025-03-31,2025-05-31,2025-07-31,2025-08-31,2025-10-31,2025-12-31",
		},
		{
			name: "monthly interval keeps the nominal sequence",
			form: form("2025-01-31", model.RepeatMonthly, 2, "2025-12-31"),
			want: "2025-01-31,2025-03-31,2025-05-31,2025-07-31",
		},
		{
			name: "monthly on the 30th skips february only",
			form: form("2025-01-30", model.RepeatMonthly, 1, "2025-04-30"),
			want: "2025-01-30,2025-03-30,2025-04-30",
		},
		{
			name: "monthly on the 29th in a leap year",
			form: form("2024-01-29", model.RepeatMonthly, 1, "2024-03-29"),
			want: "2024-01-29,2024-02-29,2024-03-29",
		},
		{
			name: "yearly on feb 29 skips non-leap years",
			form: form("2024-02-29", model.RepeatYearly, 1, "2027-02-28"),
			want: "2024-02-29",
		},
		{
			name: "yearly on feb 29 reaches the next leap year",
			form: form("2024-02-29", model.RepeatYearly, 1, "2028-12-31"),
			want: "2024-02-29,2028-02-29",
		},
		{
			name: "yearly",
			form: form("2025-03-15", model.RepeatYearly, 1, "2027-03-15"),
			want: "2025-03-15,2026-03-15,2027-03-15",
		},
		{
			name: "end date equal to start",
			form: form("2025-10-15", model.RepeatDaily, 1, "2025-10-15"),
			want: "2025-10-15",
		},
		{
			name: "missing end date falls back to one instance",
			form: form("2025-10-15", model.RepeatDaily, 1, ""),
			want: "2025-10-15",
		},
		{
			name: "zero interval falls back to one instance",
			form: form("2025-10-15", model.RepeatDaily, 0, "2025-12-31"),
			want: "2025-10-15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Dates(tt.form, Config{})
			if err != nil {
				t.Fatalf("Dates: %v", err)
			}
			if s := dateStrings(got); s != tt.want {
				t.Errorf("got %s\nwant %s", s, tt.want)
			}
		})
	}
}

func TestExpandBounds(t *testing.T) {
	types := []model.RepeatType{model.RepeatDaily, model.RepeatWeekly, model.RepeatMonthly, model.RepeatYearly}
	starts := []string{"2024-01-31", "2024-02-29", "2025-06-15", "2025-12-31"}
	ends := []string{"2025-03-01", "2026-02-28", "2028-03-01"}

	for _, typ := range types {
		for _, s := range starts {
			for _, e := range ends {
				for interval := 1; interval <= 3; interval++ {
					f := form(s, typ, interval, e)
					if date(e).Before(f.Date) {
						continue
					}
					got, err := Dates(f, Config{})
					if err != nil {
						t.Fatalf("%s %s..%s/%d: %v", typ, s, e, interval, err)
					}
					if len(got) == 0 || got[0] != f.Date {
						t.Errorf("%s %s..%s/%d: first instance %v, want %v", typ, s, e, interval, got, f.Date)
						continue
					}
					for i, g := range got {
						if g.After(date(e)) {
							t.Errorf("%s %s..%s/%d: %v after end date", typ, s, e, interval, g)
						}
						if i > 0 && !got[i-1].Before(g) {
							t.Errorf("%s %s..%s/%d: not ascending at %d", typ, s, e, interval, i)
						}
					}
				}
			}
		}
	}
}

func TestExpandCopiesSharedFields(t *testing.T) {
	f := form("2025-11-03", model.RepeatDaily, 1, "2025-11-05")
	res, err := Expand(f, Config{})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(res.Instances) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(res.Instances))
	}
	for _, inst := range res.Instances {
		if inst.Title != f.Title || inst.StartTime != f.StartTime || inst.EndTime != f.EndTime ||
			inst.Location != f.Location || inst.Category != f.Category ||
			inst.NotificationTime != f.NotificationTime || !inst.Repeat.Equal(f.Repeat) {
			t.Errorf("instance %v does not share the form fields", inst.Date)
		}
	}
}

func TestExpandCap(t *testing.T) {
	f := form("2025-01-01", model.RepeatDaily, 1, "2025-12-31")
	res, err := Expand(f, Config{MaxOccurrences: 10})
	var ve *model.ValidationError
	if !errors.As(err, &ve) || ve.Field != "repeat.endDate" || ve.Message != model.MsgRepeatTooMany {
		t.Fatalf("expected repeat.endDate cap error, got %v", err)
	}
	if len(res.Instances) != 0 {
		t.Errorf("over-cap series returned %d instances", len(res.Instances))
	}

	res, err = Expand(form("2025-01-01", model.RepeatDaily, 1, "2025-01-10"), Config{MaxOccurrences: 10})
	if err != nil {
		t.Fatalf("exactly cap-sized series rejected: %v", err)
	}
	if len(res.Instances) != 10 || res.Instances[9].Date.String() != "2025-01-10" {
		t.Errorf("got %d instances", len(res.Instances))
	}

	// The default cap still covers a long daily series end to end.
	res, err = Expand(form("2025-01-01", model.RepeatDaily, 1, "2030-12-31"), Config{})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if last := res.Instances[len(res.Instances)-1].Date.String(); last != "2030-12-31" {
		t.Errorf("last instance = %s", last)
	}
}

func TestExpandRejectsEndBeforeStart(t *testing.T) {
	_, err := Expand(form("2025-10-15", model.RepeatDaily, 1, "2025-10-01"), Config{})
	var ve *model.ValidationError
	if !errors.As(err, &ve) || ve.Field != "repeat.endDate" {
		t.Errorf("expected repeat.endDate validation error, got %v", err)
	}
}

func TestExpandInvalidDate(t *testing.T) {
	if _, err := Expand(model.EventForm{Title: "x"}, Config{}); err == nil {
		t.Error("expected error for zero date")
	}
}
