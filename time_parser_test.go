package main

import (
	"testing"
	"time"
)

func TestParseSaleTimeRFC3339(t *testing.T) {
	got, err := parseSaleTime("2026-01-15T16:00:00+07:00")
	if err != nil {
		t.Fatalf("parseSaleTime failed: %v", err)
	}

	want := time.Date(2026, 1, 15, 16, 0, 0, 0, time.FixedZone("", 7*3600))
	if !got.Equal(want) {
		t.Errorf("parseSaleTime = %v, want %v", got, want)
	}
}

func TestParseSaleTimeFriendlyFormats(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2026-01-15 16:00", time.Date(2026, 1, 15, 16, 0, 0, 0, time.Local)},
		{"2026-01-15 16:00:30", time.Date(2026, 1, 15, 16, 0, 30, 0, time.Local)},
		{"  2026-01-15 16:00  ", time.Date(2026, 1, 15, 16, 0, 0, 0, time.Local)},
	}

	for _, tt := range tests {
		got, err := parseSaleTime(tt.input)
		if err != nil {
			t.Errorf("parseSaleTime(%q) failed: %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseSaleTime(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseSaleTimeInvalid(t *testing.T) {
	invalid := []string{
		"",
		"tomorrow",
		"15-01-2026 16:00",
		"2026-01-15",
	}

	for _, input := range invalid {
		if _, err := parseSaleTime(input); err == nil {
			t.Errorf("Expected error for %q, got nil", input)
		}
	}
}
