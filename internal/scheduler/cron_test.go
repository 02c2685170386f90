package scheduler

import (
	"testing"
	"time"
)

func TestParseCron_InvalidFieldCount(t *testing.T) {
	if _, err := ParseCron("0 21 * *"); err == nil {
		t.Fatal("ParseCron() expected error for 4-field expression, got nil")
	}
}

func TestCronSpec_Next_DailyAt2100(t *testing.T) {
	spec, err := ParseCron("0 21 * * *")
	if err != nil {
		t.Fatalf("ParseCron() error = %v", err)
	}
	loc := time.UTC
	after := time.Date(2026, 8, 6, 12, 0, 0, 0, loc)
	next, err := spec.Next(after, loc)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	want := time.Date(2026, 8, 6, 21, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("Next() = %v, want %v", next, want)
	}
}

func TestCronSpec_Next_RollsToNextDay(t *testing.T) {
	spec, err := ParseCron("0 21 * * *")
	if err != nil {
		t.Fatalf("ParseCron() error = %v", err)
	}
	loc := time.UTC
	after := time.Date(2026, 8, 6, 22, 0, 0, 0, loc)
	next, err := spec.Next(after, loc)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	want := time.Date(2026, 8, 7, 21, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("Next() = %v, want %v", next, want)
	}
}

func TestCronSpec_Next_StepAndList(t *testing.T) {
	spec, err := ParseCron("*/15 9,13 * * *")
	if err != nil {
		t.Fatalf("ParseCron() error = %v", err)
	}
	loc := time.UTC
	after := time.Date(2026, 8, 6, 9, 5, 0, 0, loc)
	next, err := spec.Next(after, loc)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	want := time.Date(2026, 8, 6, 9, 15, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("Next() = %v, want %v", next, want)
	}
}

func TestCronSpec_Next_Weekday(t *testing.T) {
	// Every Monday at 08:00. 2026-08-06 is a Thursday.
	spec, err := ParseCron("0 8 * * 1")
	if err != nil {
		t.Fatalf("ParseCron() error = %v", err)
	}
	loc := time.UTC
	after := time.Date(2026, 8, 6, 0, 0, 0, 0, loc)
	next, err := spec.Next(after, loc)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if next.Weekday() != time.Monday || next.Hour() != 8 {
		t.Errorf("Next() = %v, want next Monday at 08:00", next)
	}
}

func TestCronSpec_Next_UnsatisfiableDay(t *testing.T) {
	spec, err := ParseCron("0 0 31 2 *")
	if err != nil {
		t.Fatalf("ParseCron() error = %v", err)
	}
	if _, err := spec.Next(time.Now(), time.UTC); err == nil {
		t.Fatal("Next() expected error for unsatisfiable Feb 31, got nil")
	}
}

func TestParseField_InvalidRange(t *testing.T) {
	if _, err := ParseCron("60 21 * * *"); err == nil {
		t.Fatal("ParseCron() expected error for minute=60, got nil")
	}
}
