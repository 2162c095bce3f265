package timeutil

import (
	"testing"
	"time"
)

func TestBatchLabelOrdering(t *testing.T) {
	loc := time.UTC
	early := BatchLabel(time.Date(2026, 3, 1, 9, 5, 0, 0, loc))
	late := BatchLabel(time.Date(2026, 3, 1, 15, 40, 0, 0, loc))

	if early >= late {
		t.Fatalf("labels must sort chronologically: %q >= %q", early, late)
	}

	if got := ClockFromLabel(early); got != "09:05" {
		t.Fatalf("ClockFromLabel(%q) = %q, want 09:05", early, got)
	}
}

func TestNormalizeClock(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"08:00", "08:00", false},
		{"8:00", "08:00", false},
		{" 23:59 ", "23:59", false},
		{"24:00", "24:00", true},
		{"08:61", "08:61", true},
		{"0800", "0800", true},
		{"8am", "8am", true},
	}

	for _, tt := range tests {
		got, err := NormalizeClock(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeClock(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}

		if got != tt.want {
			t.Errorf("NormalizeClock(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLocationDefaultsToUTC(t *testing.T) {
	loc, err := Location("")
	if err != nil || loc != time.UTC {
		t.Fatalf("Location(\"\") = %v, %v", loc, err)
	}

	if _, err := Location("Not/AZone"); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
