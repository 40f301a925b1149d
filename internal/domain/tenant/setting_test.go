package tenant

import (
	"testing"
	"time"
)

func TestServiceDay(t *testing.T) {
	nairobi, err := time.LoadLocation("Africa/Nairobi")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	at := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC) // 02:30 next day in Nairobi

	cases := []struct {
		name     string
		loc      *time.Location
		startHr  int
		expected string
	}{
		{name: "utc midnight rollover", loc: time.UTC, startHr: 0, expected: "2026-03-10"},
		{name: "branch timezone", loc: nairobi, startHr: 0, expected: "2026-03-11"},
		{name: "late rollover keeps previous day", loc: nairobi, startHr: 4, expected: "2026-03-10"},
		{name: "out of range hour ignored", loc: nil, startHr: 30, expected: "2026-03-10"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ServiceDay(at, tc.loc, tc.startHr); got != tc.expected {
				t.Fatalf("want=%s got=%s", tc.expected, got)
			}
		})
	}
}

func TestBranchLocationFallback(t *testing.T) {
	b := &Branch{Timezone: "Not/AZone"}
	if b.Location() != time.UTC {
		t.Fatalf("expected UTC fallback")
	}
}
