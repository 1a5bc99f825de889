// ============================================================================
// backend/internal/report/attendance.go
// Month-keyed attendance aggregation over the free-form attendance payload
// ============================================================================

package report

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"traintrack/backend/internal/shared"
)

// Canonical attendance field names. Values for every field live in a nested
// map keyed by the MON'YY month key.
const (
	FieldWorkingDays       = "Total Working Days"
	FieldDaysAttended      = "No of days attended"
	FieldLeavesTaken       = "No of leaves taken"
	FieldMonthlyPercentage = "Monthly Percentage"

	// Historical spelling still present in stored documents. Read both,
	// write only the correct one.
	FieldMonthlyPercentageTypo = "Montly Percentage"
)

// monthAbbr feeds the MON'YY month key. JULY is four letters because that is
// what the sheets have always used; changing it would orphan stored keys.
var monthAbbr = []string{
	"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
	"JULY", "AUG", "SEP", "OCT", "NOV", "DEC",
}

var monthFull = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthKey returns the canonical month bucket key, e.g. "NOV'25".
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%s'%02d", monthAbbr[int(t.Month())-1], t.Year()%100)
}

// legacyMonthKeys returns the key spellings older writers used for the same
// month. They are deleted whenever the month is touched.
func legacyMonthKeys(t time.Time) []string {
	m := int(t.Month())
	return []string{
		strconv.Itoa(m),           // "11"
		fmt.Sprintf("%02d", m),    // "11" zero-padded
		monthFull[m-1],            // "November"
		monthFull[m-1] + " Month", // "November Month"
	}
}

// WorkingDays counts the days of the month excluding Saturday and Sunday.
func WorkingDays(year int, month time.Month) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	count := 0
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	return count
}

// ApplyMonthlyAttendance recomputes the four month-bucketed attendance fields
// for the month of date, given the number of days the candidate attended that
// month. Legacy key spellings for the month are scrubbed first so at most one
// value per month survives in each field. The payload is modified in place
// and returned.
func ApplyMonthlyAttendance(data bson.M, date time.Time, attended int) bson.M {
	if data == nil {
		data = bson.M{}
	}

	workingDays := WorkingDays(date.Year(), date.Month())
	leaves := workingDays - attended
	if leaves < 0 {
		leaves = 0
	}
	percentage := 0
	if workingDays > 0 {
		percentage = int(math.Round(float64(attended) / float64(workingDays) * 100))
	}

	key := MonthKey(date)
	for field, value := range map[string]int{
		FieldWorkingDays:       workingDays,
		FieldDaysAttended:      attended,
		FieldLeavesTaken:       leaves,
		FieldMonthlyPercentage: percentage,
	} {
		bucket := monthBucket(data, field)
		scrubLegacyKeys(bucket, date)
		bucket[key] = value
	}

	// Migrate any typo-keyed percentages into the canonical field, then drop
	// the typo field's entry for this month.
	if typo, err := shared.GetMap(data[FieldMonthlyPercentageTypo]); err == nil {
		scrubLegacyKeys(typo, date)
		delete(typo, key)
		if len(typo) == 0 {
			delete(data, FieldMonthlyPercentageTypo)
		}
	}

	return data
}

// MonthlyPercentages collects all numeric monthly attendance percentages from
// a stored attendance payload, accepting the historical typo field.
func MonthlyPercentages(data bson.M) []float64 {
	var out []float64
	for _, field := range []string{FieldMonthlyPercentage, FieldMonthlyPercentageTypo} {
		bucket, err := shared.GetMap(data[field])
		if err != nil {
			continue
		}
		for _, v := range bucket {
			if f, err := shared.GetFloat64(v); err == nil && f > 0 {
				out = append(out, f)
			}
		}
	}
	return out
}

// monthBucket returns the nested month-keyed map for a field, creating it
// when absent or when a scalar is sitting where the map should be.
func monthBucket(data bson.M, field string) bson.M {
	if bucket, err := shared.GetMap(data[field]); err == nil {
		data[field] = bucket
		return bucket
	}
	bucket := bson.M{}
	data[field] = bucket
	return bucket
}

func scrubLegacyKeys(bucket bson.M, date time.Time) {
	for _, legacy := range legacyMonthKeys(date) {
		delete(bucket, legacy)
	}
}
