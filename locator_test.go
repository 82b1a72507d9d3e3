package main

import "testing"

func TestCandidateTextPattern(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Buy Ticket", `/Buy Ticket/i`},
		{"VIP (Early)", `/VIP \(Early\)/i`},
		{"50% off", `/50% off/i`},
	}

	for _, tt := range tests {
		c := Candidate{Text: tt.text}
		if got := c.textPattern(); got != tt.want {
			t.Errorf("textPattern(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestCandidateLabel(t *testing.T) {
	tests := []struct {
		name string
		c    Candidate
		want string
	}{
		{"described", Candidate{Desc: "buy button", CSS: ".buy"}, "buy button"},
		{"css only", Candidate{CSS: ".buy"}, ".buy"},
		{"css and text", Candidate{CSS: "button", Text: "Beli"}, `button ~ "Beli"`},
	}

	for _, tt := range tests {
		if got := tt.c.label(); got != tt.want {
			t.Errorf("%s: label() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestOrBody(t *testing.T) {
	if got := orBody(""); got != "body *" {
		t.Errorf("orBody(\"\") = %q, want \"body *\"", got)
	}
	if got := orBody("button"); got != "button" {
		t.Errorf("orBody(\"button\") = %q, want \"button\"", got)
	}
}

func TestResolveEmptyTarget(t *testing.T) {
	r := NewResolver(nil, NewLogger(false))

	if _, ok := r.Resolve(Target{Name: "nothing"}, 0); ok {
		t.Error("Expected no match for a target with no candidates")
	}
	if _, ok := r.Probe(buyTarget); ok {
		t.Error("Expected no match with no page attached")
	}
	if _, ok := r.ProbeIn(nil, soldOutMarker); ok {
		t.Error("Expected no match for a nil container")
	}
}
