package service

import "testing"

func TestMatchesAnswer(t *testing.T) {
	tests := []struct {
		name       string
		candidate  string
		acceptable []string
		want       bool
	}{
		{"exact", "Paris", []string{"Paris"}, true},
		{"case insensitive", "paris", []string{"Paris"}, true},
		{"surrounding whitespace", "  paris  ", []string{"Paris"}, true},
		{"whitespace in acceptable", "Paris", []string{" paris "}, true},
		{"second acceptable", "Lutetia", []string{"Paris", "lutetia"}, true},
		{"no match", "London", []string{"Paris"}, false},
		{"empty acceptable list", "Paris", nil, false},
		{"punctuation still matters", "paris.", []string{"Paris"}, false},
		{"inner whitespace still matters", "new  york", []string{"New York"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesAnswer(tt.candidate, tt.acceptable); got != tt.want {
				t.Errorf("MatchesAnswer(%q, %v) = %v, want %v", tt.candidate, tt.acceptable, got, tt.want)
			}
		})
	}
}
