package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateOfStripsTime(t *testing.T) {
	d := DateOf(time.Date(2024, 3, 15, 23, 45, 12, 999, time.Local))
	if d.String() != "2024-03-15" {
		t.Fatalf("got %s", d)
	}
	if !d.Equal(NewDate(2024, 3, 15)) {
		t.Fatal("same day with different time-of-day should compare equal")
	}
}

func TestAddMonthsClamping(t *testing.T) {
	cases := []struct {
		name string
		in   Date
		n    int
		want Date
	}{
		{"plain", NewDate(2024, 1, 15), 1, NewDate(2024, 2, 15)},
		{"jan 31 to feb leap", NewDate(2024, 1, 31), 1, NewDate(2024, 2, 29)},
		{"jan 31 to feb non-leap", NewDate(2023, 1, 31), 1, NewDate(2023, 2, 28)},
		{"mar 31 to apr", NewDate(2024, 3, 31), 1, NewDate(2024, 4, 30)},
		{"year rollover", NewDate(2024, 12, 5), 1, NewDate(2025, 1, 5)},
		{"backwards", NewDate(2024, 3, 15), -1, NewDate(2024, 2, 15)},
		{"twelve months", NewDate(2024, 2, 29), 12, NewDate(2025, 2, 28)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.AddMonths(tc.n); !got.Equal(tc.want) {
				t.Errorf("%s.AddMonths(%d) = %s, want %s", tc.in, tc.n, got, tc.want)
			}
		})
	}
}

func TestAddYearsLeapClamp(t *testing.T) {
	if got := NewDate(2024, 2, 29).AddYears(1); !got.Equal(NewDate(2025, 2, 28)) {
		t.Fatalf("got %s", got)
	}
}

func TestMonthBounds(t *testing.T) {
	d := NewDate(2024, 2, 14)
	if s := d.MonthStart(); !s.Equal(NewDate(2024, 2, 1)) {
		t.Errorf("MonthStart = %s", s)
	}
	if e := d.MonthEnd(); !e.Equal(NewDate(2024, 2, 29)) {
		t.Errorf("MonthEnd = %s", e)
	}
}

func TestDateJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Date
	}{
		{"plain date", `"2024-05-01"`, NewDate(2024, 5, 1)},
		{"legacy rfc3339", `"2024-05-01T13:30:00.000Z"`, NewDate(2024, 5, 1)},
		{"null", `null`, Date{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var d Date
			if err := json.Unmarshal([]byte(tc.in), &d); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !d.Equal(tc.want) {
				t.Fatalf("got %s, want %s", d, tc.want)
			}
		})
	}

	data, err := json.Marshal(NewDate(2024, 5, 1))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2024-05-01"` {
		t.Fatalf("marshal = %s", data)
	}
	if data, _ = json.Marshal(Date{}); string(data) != "null" {
		t.Fatalf("zero date marshal = %s, want null", data)
	}
}
