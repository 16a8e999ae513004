package util

import "testing"

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "decimal comma", input: "45,00", want: 45},
		{name: "decimal dot", input: "45.50", want: 45.5},
		{name: "currency symbol", input: "180,00 €", want: 180},
		{name: "currency word", input: "300 EUR", want: 300},
		{name: "thousand space", input: "1 000", want: 1000},
		{name: "thousand dot", input: "1.000", want: 1000},
		{name: "thousand comma", input: "1,000", want: 1000},
		{name: "rate", input: "0,25", want: 0.25},
		{name: "trailing space", input: "300 ", want: 300},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseDecimal(tc.input)
			if !ok {
				t.Fatalf("not parsed")
			}
			if got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}

	if _, ok := ParseDecimal("karta"); ok {
		t.Fatalf("non-numeric input should fail")
	}
	if _, ok := ParseDecimal(""); ok {
		t.Fatalf("empty input should fail")
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		input string
		day   int
		hour  int
	}{
		{input: "05.09.2026 09:00:00", day: 5, hour: 9},
		{input: "05.09.2026 09:00", day: 5, hour: 9},
		{input: "2026-09-12 16:30:00", day: 12, hour: 16},
		{input: "2026-09-12 16:30", day: 12, hour: 16},
		{input: "05.09.2026", day: 5, hour: 0},
	}

	for _, tc := range cases {
		parsed, ok := ParseTimestamp(tc.input)
		if !ok {
			t.Fatalf("%q not parsed", tc.input)
		}
		if parsed.Day() != tc.day || parsed.Hour() != tc.hour {
			t.Fatalf("%q parsed as %v", tc.input, parsed)
		}
	}

	if _, ok := ParseTimestamp("zajtra"); ok {
		t.Fatalf("free text should fail")
	}
}
