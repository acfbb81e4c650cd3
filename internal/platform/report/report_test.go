package report

import (
	"testing"
	"time"
)

func TestAgeBucketLabel(t *testing.T) {
	cases := map[int]string{
		0:   "0-17",
		17:  "0-17",
		18:  "18-29",
		29:  "18-29",
		30:  "30-44",
		45:  "45-59",
		60:  "60-99",
		99:  "60-99",
		100: OverflowBucket,
		150: OverflowBucket,
		-1:  OverflowBucket,
	}
	for age, want := range cases {
		if got := AgeBucketLabel(age); got != want {
			t.Errorf("AgeBucketLabel(%d) = %q, want %q", age, got, want)
		}
	}
}

func TestBucketAges_SkipsEmptyBuckets(t *testing.T) {
	got := BucketAges([]int{17, 17, 150})
	if len(got) != 2 {
		t.Fatalf("got %d buckets, want 2: %v", len(got), got)
	}
	if got[0].Value != "0-17" || got[0].Count != 2 {
		t.Errorf("bucket[0] = %+v", got[0])
	}
	if got[1].Value != OverflowBucket || got[1].Count != 1 {
		t.Errorf("bucket[1] = %+v", got[1])
	}
}

func TestBucketAges_Empty(t *testing.T) {
	if got := BucketAges(nil); len(got) != 0 {
		t.Errorf("expected no buckets, got %v", got)
	}
}

func TestAgeAt(t *testing.T) {
	dob := time.Date(2000, time.June, 15, 0, 0, 0, 0, time.UTC)

	at := time.Date(2026, time.June, 14, 0, 0, 0, 0, time.UTC)
	if got := AgeAt(dob, at); got != 25 {
		t.Errorf("day before birthday: age = %d, want 25", got)
	}
	at = time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	if got := AgeAt(dob, at); got != 26 {
		t.Errorf("on birthday: age = %d, want 26", got)
	}
}

func TestStartOfDay(t *testing.T) {
	now := time.Date(2026, time.March, 4, 15, 30, 45, 123, time.UTC)
	got := StartOfDay(now)
	want := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", got, want)
	}
}

// A Wednesday whose week began in the previous month: start-of-day must
// stay on the original date even though start-of-week crosses the month
// boundary. The two derivations are independent.
func TestStartOfWeek_DoesNotAffectStartOfDay(t *testing.T) {
	now := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC) // Wednesday

	week := StartOfWeek(now)
	wantWeek := time.Date(2026, time.March, 29, 0, 0, 0, 0, time.UTC) // Sunday
	if !week.Equal(wantWeek) {
		t.Errorf("StartOfWeek = %v, want %v", week, wantWeek)
	}

	day := StartOfDay(now)
	wantDay := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	if !day.Equal(wantDay) {
		t.Errorf("StartOfDay = %v, want %v", day, wantDay)
	}
}

func TestStartOfWeek_Sunday(t *testing.T) {
	sunday := time.Date(2026, time.March, 1, 23, 59, 0, 0, time.UTC)
	got := StartOfWeek(sunday)
	want := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("StartOfWeek(Sunday) = %v, want %v", got, want)
	}
}

func TestMonthWindow(t *testing.T) {
	now := time.Date(2026, time.January, 20, 12, 0, 0, 0, time.UTC)
	start, end := MonthWindow(now)
	if !start.Equal(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	if !end.Equal(time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", end)
	}
}

func TestTrendWindowStart(t *testing.T) {
	now := time.Date(2026, time.August, 31, 9, 0, 0, 0, time.UTC)
	got := TrendWindowStart(now, 6)
	want := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("TrendWindowStart = %v, want %v (covers Mar..Aug)", got, want)
	}
}

func TestTrendWindowStart_YearBoundary(t *testing.T) {
	now := time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)
	got := TrendWindowStart(now, 6)
	want := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("TrendWindowStart = %v, want %v", got, want)
	}
}
