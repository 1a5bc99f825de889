package report

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestMonthKey(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2025, time.November, 10, 0, 0, 0, 0, time.UTC), "NOV'25"},
		{time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), "JULY'25"}, // historical four-letter key
		{time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC), "JAN'26"},
	}
	for _, tt := range tests {
		if got := MonthKey(tt.date); got != tt.want {
			t.Errorf("MonthKey(%v) = %q, want %q", tt.date, got, tt.want)
		}
	}
}

func TestWorkingDays(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2025, time.November, 20},
		{2025, time.December, 23},
		{2026, time.February, 20},
	}
	for _, tt := range tests {
		if got := WorkingDays(tt.year, tt.month); got != tt.want {
			t.Errorf("WorkingDays(%d, %v) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestApplyMonthlyAttendanceFirstMark(t *testing.T) {
	date := time.Date(2025, time.November, 10, 0, 0, 0, 0, time.UTC)

	data := ApplyMonthlyAttendance(bson.M{}, date, 1)

	checks := map[string]int{
		FieldWorkingDays:       20,
		FieldDaysAttended:      1,
		FieldLeavesTaken:       19,
		FieldMonthlyPercentage: 5,
	}
	for field, want := range checks {
		bucket, ok := data[field].(bson.M)
		if !ok {
			t.Fatalf("field %q missing", field)
		}
		if got := bucket["NOV'25"]; got != want {
			t.Errorf("%s[NOV'25] = %v, want %d", field, got, want)
		}
	}
}

func TestApplyMonthlyAttendanceInvariant(t *testing.T) {
	date := time.Date(2025, time.November, 10, 0, 0, 0, 0, time.UTC)

	for attended := 0; attended <= 20; attended++ {
		data := ApplyMonthlyAttendance(bson.M{}, date, attended)
		wd := data[FieldWorkingDays].(bson.M)["NOV'25"].(int)
		att := data[FieldDaysAttended].(bson.M)["NOV'25"].(int)
		leaves := data[FieldLeavesTaken].(bson.M)["NOV'25"].(int)

		if att+leaves != wd {
			t.Errorf("attended=%d: %d + %d != %d", attended, att, leaves, wd)
		}
	}
}

func TestApplyMonthlyAttendanceScrubsLegacyKeys(t *testing.T) {
	date := time.Date(2025, time.November, 10, 0, 0, 0, 0, time.UTC)

	data := bson.M{
		FieldDaysAttended: bson.M{
			"11":             7,
			"November Month": 8,
			"OCT'25":         15,
		},
	}

	data = ApplyMonthlyAttendance(data, date, 3)

	bucket := data[FieldDaysAttended].(bson.M)
	if _, ok := bucket["11"]; ok {
		t.Error("legacy numeric month key survived")
	}
	if _, ok := bucket["November Month"]; ok {
		t.Error("legacy full-name month key survived")
	}
	if got := bucket["NOV'25"]; got != 3 {
		t.Errorf("NOV'25 = %v, want 3", got)
	}
	if got := bucket["OCT'25"]; got != 15 {
		t.Errorf("other month was touched: OCT'25 = %v, want 15", got)
	}
}

func TestApplyMonthlyAttendanceDropsTypoEntry(t *testing.T) {
	date := time.Date(2025, time.November, 10, 0, 0, 0, 0, time.UTC)

	data := bson.M{
		FieldMonthlyPercentageTypo: bson.M{"NOV'25": 40},
	}
	data = ApplyMonthlyAttendance(data, date, 10)

	if _, ok := data[FieldMonthlyPercentageTypo]; ok {
		t.Error("typo field with only this month's entry should be dropped")
	}
	if got := data[FieldMonthlyPercentage].(bson.M)["NOV'25"]; got != 50 {
		t.Errorf("Monthly Percentage[NOV'25] = %v, want 50", got)
	}
}

func TestMonthlyPercentagesReadsBothSpellings(t *testing.T) {
	data := bson.M{
		FieldMonthlyPercentage:     bson.M{"NOV'25": 80},
		FieldMonthlyPercentageTypo: bson.M{"OCT'25": 60},
	}

	values := MonthlyPercentages(data)
	if len(values) != 2 {
		t.Fatalf("got %d values, want 2", len(values))
	}
	sum := values[0] + values[1]
	if sum != 140 {
		t.Errorf("sum = %v, want 140", sum)
	}
}
