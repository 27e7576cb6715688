package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1.0", 1, true},
		{"1.23", 1.23, true},
		{"1,23", 1.23, true},
		{"0", 0, true},
		{"1.005", 1.01, true}, // half-up rounding
		{" 2.50 ", 2.5, true},
		{"1200.333", 1200.33, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "₹0.00"},
		{12.5, "₹12.50"},
		{1234.5, "₹1,234.50"},
		{1234567.891, "₹1,234,567.89"},
		{-42, "-₹42.00"},
		{100.0 / 3, "₹33.33"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(tc.in); got != tc.want {
			t.Fatalf("%v expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestFormatCurrencyASCII(t *testing.T) {
	if got := FormatCurrencyASCII(1234.5); got != "Rs. 1,234.50" {
		t.Fatalf("expected %q, got %q", "Rs. 1,234.50", got)
	}
}
