package utils

import (
	"reflect"
	"strings"
	"testing"
)

func TestFilter(t *testing.T) {
	tests := map[string]struct {
		input    []string
		expected []string
		f        func(string) bool
	}{
		"filter out A records": {
			input:    []string{"A", "AAAA", "TXT", "A"},
			expected: []string{"AAAA", "TXT"},
			f:        func(s string) bool { return s != "A" },
		},
		"keep everything": {
			input:    []string{"a", "b"},
			expected: []string{"a", "b"},
			f:        func(s string) bool { return true },
		},
	}

	for desc, tc := range tests {
		got := Filter(tc.f, tc.input)
		if !reflect.DeepEqual(tc.expected, got) {
			t.Errorf("%s: expected %q, got %q", desc, tc.expected, got)
		}
	}
}

func TestMap(t *testing.T) {
	tests := map[string]struct {
		input    []string
		expected []string
		f        func(string) string
	}{
		"upcase": {
			input:    []string{"a", "aaaa"},
			expected: []string{"A", "AAAA"},
			f:        strings.ToUpper,
		},
	}

	for desc, tc := range tests {
		got := Map(tc.f, tc.input)
		if !reflect.DeepEqual(tc.expected, got) {
			t.Errorf("%s: expected %q, got %q", desc, tc.expected, got)
		}
	}
}
