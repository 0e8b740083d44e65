package persist

import "testing"

func TestParsePriceRange(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		in        string
		low, high *float64
	}{
		{"$4-5", f(4), f(5)},
		{"$7", f(7), f(7)},
		{"free", nil, nil},
		{"", nil, nil},
		{"$3.50–4.25", f(3.5), f(4.25)},
		{"$5 - $8", f(5), f(8)},
		{"about $12", f(12), f(12)},
		{"4-5", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			low, high := ParsePriceRange(tt.in)
			if !equalPtr(low, tt.low) || !equalPtr(high, tt.high) {
				t.Errorf("ParsePriceRange(%q) = %v, %v; expected %v, %v", tt.in, deref(low), deref(high), deref(tt.low), deref(tt.high))
			}
		})
	}
}

func equalPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func TestParseCookTime(t *testing.T) {
	tests := map[string]int{
		"30 minutes":        30,
		"1 hour 15 minutes": 75,
		"1.5 hours":         90,
		"45 min":            45,
		"2 hrs":             120,
		"20-25 minutes":     20,
		"10":                10,
		"":                  0,
		"overnight":         0,
	}
	for in, want := range tests {
		if got := ParseCookTime(in); got != want {
			t.Errorf("ParseCookTime(%q) = %d, expected %d", in, got, want)
		}
	}
}
