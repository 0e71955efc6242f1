package utils

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizePhone(t *testing.T) {
	valid := []string{
		"89123456789",
		"79123456789",
		"+79123456789",
		"9123456789",
		"+7 (912) 345-67-89",
		"8-912-345-67-89",
	}
	for _, raw := range valid {
		got, err := NormalizePhone(raw)
		if err != nil {
			t.Fatalf("NormalizePhone(%q): %v", raw, err)
		}
		if got != "+79123456789" {
			t.Errorf("NormalizePhone(%q) = %q", raw, got)
		}
	}

	invalid := []string{"", "12345", "+19123456789", "891234567890", "phone"}
	for _, raw := range invalid {
		if _, err := NormalizePhone(raw); !errors.Is(err, ErrInvalidPhoneFormat) {
			t.Errorf("NormalizePhone(%q) error = %v, want ErrInvalidPhoneFormat", raw, err)
		}
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2026-10-20", "20.10.2026", " 20.10.2026 "} {
		d, err := ParseDate(in, time.UTC)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", in, err)
		}
		if FormatDate(d) != "2026-10-20" {
			t.Errorf("ParseDate(%q) = %s", in, FormatDate(d))
		}
	}
	for _, in := range []string{"", "20/10/2026", "2026-13-01", "завтра"} {
		if _, err := ParseDate(in, time.UTC); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) error = %v", in, err)
		}
	}
}

func TestParseClock(t *testing.T) {
	cases := map[string]string{"10:00": "10:00", "9:00": "09:00", " 14:00 ": "14:00"}
	for in, want := range cases {
		got, err := ParseClock(in)
		if err != nil || got != want {
			t.Errorf("ParseClock(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{"25:00", "10", "ten"} {
		if _, err := ParseClock(in); !errors.Is(err, ErrInvalidTime) {
			t.Errorf("ParseClock(%q) error = %v", in, err)
		}
	}
}

func TestDisplayDateAndBeginningOfDay(t *testing.T) {
	if got := DisplayDate("2026-10-20"); got != "20.10.2026" {
		t.Errorf("DisplayDate = %q", got)
	}
	if got := DisplayDate("garbage"); got != "garbage" {
		t.Errorf("DisplayDate passthrough = %q", got)
	}
	loc := time.FixedZone("MSK", 3*60*60)
	got := BeginningOfDay(time.Date(2026, 10, 19, 23, 45, 0, 0, loc))
	if !got.Equal(time.Date(2026, 10, 19, 0, 0, 0, 0, loc)) || got.Location() != loc {
		t.Errorf("BeginningOfDay = %v", got)
	}
}
