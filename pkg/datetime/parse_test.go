package datetime

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		dateStr string
		wantErr bool
	}{
		{name: "Valid date", dateStr: "2023-06-16"},
		{name: "Leap day", dateStr: "2024-02-29"},
		{name: "Not a leap year", dateStr: "2023-02-29", wantErr: true},
		{name: "Month only", dateStr: "2023-06", wantErr: true},
		{name: "Empty", dateStr: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.dateStr)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDate(%q) expected error but got none", tt.dateStr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error = %v", tt.dateStr, err)
			}
			if got.Location() != time.UTC {
				t.Errorf("ParseDate(%q) location = %v, expected UTC", tt.dateStr, got.Location())
			}
			if FormatDate(got) != tt.dateStr {
				t.Errorf("FormatDate(ParseDate(%q)) = %s", tt.dateStr, FormatDate(got))
			}
		})
	}
}

func TestMustParseDatePanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected MustParseDate to panic with invalid date")
		}
	}()

	MustParseDate("invalid-date")
}

func TestDateAfterDate(t *testing.T) {
	tests := []struct {
		name       string
		firstDate  string
		secondDate string
		expected   bool
		wantErr    bool
	}{
		{"Later day", "2023-06-16", "2023-06-15", true, false},
		{"Earlier day", "2023-06-14", "2023-06-16", false, false},
		{"Same day", "2023-06-16", "2023-06-16", false, false},
		{"Across years", "2024-01-02", "2023-12-29", true, false},
		{"Invalid first date", "16.06.2023", "2023-06-16", false, true},
		{"Invalid second date", "2023-06-16", "yesterday", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := DateAfterDate(tt.firstDate, tt.secondDate)
			if (err != nil) != tt.wantErr {
				t.Errorf("DateAfterDate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && result != tt.expected {
				t.Errorf("DateAfterDate(%s, %s) = %v, expected %v", tt.firstDate, tt.secondDate, result, tt.expected)
			}
		})
	}
}

func TestDaysOld(t *testing.T) {
	published := MustParseDate("2023-06-16")

	tests := []struct {
		name     string
		now      time.Time
		expected int
	}{
		{"Same day", time.Date(2023, time.June, 16, 23, 59, 0, 0, time.UTC), 0},
		{"Next morning", time.Date(2023, time.June, 17, 0, 30, 0, 0, time.UTC), 1},
		{"After a weekend", time.Date(2023, time.June, 19, 13, 0, 0, 0, time.UTC), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysOld(published, tt.now); got != tt.expected {
				t.Errorf("DaysOld() = %d, expected %d", got, tt.expected)
			}
		})
	}
}
