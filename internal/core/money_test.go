package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"75000", 7500000, true},
		{"1000000000000", MaxAmountCents, true},
		{"1000000000000.01", 0, false},
		{"1e13", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:       "0.00",
		5:       "0.05",
		123456:  "1234.56",
		-60000:  "-600.00",
		1800000: "18000.00",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("%d expected %q, got %q", cents, want, got)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct{ Total Money }{Money{Cents: 60000}})
	if err != nil || string(b) != `{"Total":"600.00"}` {
		t.Fatalf("marshal: %s err=%v", b, err)
	}
	var out struct{ Total Money }
	if err := json.Unmarshal(b, &out); err != nil || out.Total.Cents != 60000 {
		t.Fatalf("unmarshal: %+v err=%v", out, err)
	}
}
