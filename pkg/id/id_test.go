package id

import (
	"testing"
	"time"
)

func TestNew_Monotonic(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	prev := New(now)
	for i := 0; i < 1000; i++ {
		next := New(now)
		if next <= prev {
			t.Fatalf("ids not increasing: %s <= %s", next, prev)
		}
		prev = next
	}
}

func TestTime_RoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 30, 15, 123000000, time.UTC)

	got, err := Time(New(now))
	if err != nil {
		t.Fatalf("Time() error: %v", err)
	}
	if !got.Equal(now) {
		t.Errorf("Time() = %v, want %v", got, now)
	}
}

func TestTime_Invalid(t *testing.T) {
	if _, err := Time("not-a-ulid"); err == nil {
		t.Error("expected error for invalid ULID")
	}
}
