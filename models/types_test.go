// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		raw  json.Number
		want int
	}{
		{"10", 10},
		{" -3 ", -3},
		{"", 0},
		{"abc", 0},
		{"7.9", 7},
		{"-7.9", -7},
		{"1e300", math.MaxInt},
		{"99999999999999999999", math.MaxInt},
		{"-1e30", math.MinInt},
		{"1e400", math.MaxInt},
		{"NaN", 0},
		{"Inf", 0},
	}
	for _, tt := range tests {
		if got := NormalizePriority(tt.raw); got != tt.want {
			t.Errorf("NormalizePriority(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestPriorityFromJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"number", `12`, 12},
		{"numeric string", `"8"`, 8},
		{"word", `"high"`, 0},
		{"missing", ``, 0},
		{"null", `null`, 0},
		{"bool", `true`, 0},
		{"huge", `1e300`, math.MaxInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePriority(PriorityFromJSON(json.RawMessage(tt.raw))); got != tt.want {
				t.Errorf("priority from %s = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeTopic(t *testing.T) {
	tests := map[string]string{
		"":          TopicGeneral,
		"   ":       TopicGeneral,
		" Energy ":  "energy",
		"WATER use": "water use",
	}
	for in, want := range tests {
		if got := NormalizeTopic(in); got != want {
			t.Errorf("NormalizeTopic(%q) = %q, want %q", in, got, want)
		}
	}
}
