// ============================================================================
// backend/internal/report/grooming.go
// Date-keyed grooming observations and the derived monthly missed count
// ============================================================================

package report

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"traintrack/backend/internal/shared"
)

const (
	// FieldGroomingMissed is the derived monthly aggregate, keyed MON'YY.
	FieldGroomingMissed = "How many times missed grooming check list"

	// GroomingMissedStatus is the stored status meaning dress code not
	// followed. Older records spell the flag in different fields; see
	// IsDresscodeMissed.
	GroomingMissedStatus = "Dresscode NotFollowed"

	// GroomingAllFollowedValue is written to the monthly aggregate when the
	// missed count is zero.
	GroomingAllFollowedValue = "Dresscode Followed"
)

var dateKeyRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsDresscodeMissed interprets one grooming observation. Stored entries vary:
// a bare status string, or an object with the status under "grooming",
// "status", or "dresscodeStatus".
func IsDresscodeMissed(entry interface{}) bool {
	if s, ok := entry.(string); ok {
		return s == GroomingMissedStatus
	}
	doc, err := shared.GetMap(entry)
	if err != nil {
		return false
	}
	if s, _ := shared.GetString(doc["grooming"]); s == GroomingMissedStatus {
		return true
	}
	if s, _ := shared.GetString(doc["status"]); s == GroomingMissedStatus {
		return true
	}
	if s, _ := shared.GetString(doc["dresscodeStatus"]); s == "notFollowed" {
		return true
	}
	return false
}

// ApplyGroomingMark stores one observation under its date key and rebuilds
// the monthly missed count for that date's month from the full date-keyed
// history. The payload is modified in place and returned.
func ApplyGroomingMark(data bson.M, date time.Time, entry interface{}) bson.M {
	if data == nil {
		data = bson.M{}
	}

	data[date.Format("2006-01-02")] = entry

	missed := RecomputeMonthlyMissed(data, date)

	bucket := monthBucket(data, FieldGroomingMissed)
	scrubLegacyKeys(bucket, date)
	if missed == 0 {
		bucket[MonthKey(date)] = GroomingAllFollowedValue
	} else {
		bucket[MonthKey(date)] = strconv.Itoa(missed)
	}

	return data
}

// RecomputeMonthlyMissed counts, from scratch, the date entries in the given
// month whose status means the dress code was not followed.
func RecomputeMonthlyMissed(data bson.M, month time.Time) int {
	prefix := month.Format("2006-01")
	missed := 0
	for key, entry := range data {
		if !dateKeyRe.MatchString(key) || !strings.HasPrefix(key, prefix) {
			continue
		}
		if IsDresscodeMissed(entry) {
			missed++
		}
	}
	return missed
}

// MonthlyMissedCounts collects the numeric values of the monthly aggregate
// field. The "all followed" literal parses as zero.
func MonthlyMissedCounts(data bson.M) []float64 {
	bucket, err := shared.GetMap(data[FieldGroomingMissed])
	if err != nil {
		return nil
	}
	out := make([]float64, 0, len(bucket))
	for _, v := range bucket {
		f, err := shared.GetFloat64(v)
		if err != nil {
			f = 0
		}
		out = append(out, f)
	}
	return out
}
