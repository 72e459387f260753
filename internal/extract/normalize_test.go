package extract

import "testing"

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *float64
	}{
		{"plain", "1234.56", f(1234.56)},
		{"dollar sign", "$99.95", f(99.95)},
		{"thousands separators", "$1,234,567.89", f(1234567.89)},
		{"euro sign", "€50.00", f(50)},
		{"surrounding whitespace", "  $12.00  ", f(12)},
		{"integer", "250", f(250)},
		{"empty", "", nil},
		{"symbols only", "$ ,", nil},
		{"non numeric", "abc", nil},
		{"mixed garbage", "$12.34abc", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCurrency(tt.in)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ParseCurrency(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Fatalf("ParseCurrency(%q) = %v, want %v", tt.in, *got, *tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"iso", "2024-03-04", "2024-03-04"},
		{"iso slash", "2024/03/04", "2024-03-04"},
		{"us slash", "12/31/2024", "2024-12-31"},
		{"us dash", "3-4-2024", "2024-03-04"},
		{"long month", "January 2, 2024", "2024-01-02"},
		{"short month", "Mar 5, 2024", "2024-03-05"},
		{"day first long", "2 January 2024", "2024-01-02"},
		{"day first short", "5 Mar 2024", "2024-03-05"},
		{"whitespace", "  2024-06-01 ", "2024-06-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.in)
			if got == nil {
				t.Fatalf("ParseDate(%q) = nil, want %q", tt.in, tt.want)
			}
			if *got != tt.want {
				t.Fatalf("ParseDate(%q) = %q, want %q", tt.in, *got, tt.want)
			}
		})
	}
}

// Month-first layouts are tried before day-first, so an ambiguous date
// resolves to the US reading.
func TestParseDateAmbiguityResolvesMonthFirst(t *testing.T) {
	got := ParseDate("03/04/2024")
	if got == nil || *got != "2024-03-04" {
		t.Fatalf("ParseDate(03/04/2024) = %v, want 2024-03-04", got)
	}
}

// A value impossible as month-first still parses via the day-first layout.
func TestParseDateDayFirstFallback(t *testing.T) {
	got := ParseDate("25/12/2024")
	if got == nil || *got != "2024-12-25" {
		t.Fatalf("ParseDate(25/12/2024) = %v, want 2024-12-25", got)
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "not a date", "13/32/2024", "2024"} {
		if got := ParseDate(in); got != nil {
			t.Fatalf("ParseDate(%q) = %q, want nil", in, *got)
		}
	}
}

func f(v float64) *float64 { return &v }
