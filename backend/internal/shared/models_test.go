package shared

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestIsValidAttendanceStatus(t *testing.T) {
	for _, status := range []string{AttendancePresent, AttendanceAbsent, AttendanceHalfDay, AttendanceOvertime} {
		if !IsValidAttendanceStatus(status) {
			t.Errorf("status %q rejected, want accepted", status)
		}
	}
	for _, status := range []string{"late", "PRESENT", ""} {
		if IsValidAttendanceStatus(status) {
			t.Errorf("status %q accepted, want rejected", status)
		}
	}
}

func TestNormalizeBSON(t *testing.T) {
	decoded := bson.D{
		{Key: "months", Value: bson.D{{Key: "JUL'26", Value: bson.D{{Key: "No.of Days Attended", Value: 18}}}}},
		{Key: "entries", Value: primitive.A{bson.D{{Key: "note", Value: "mock interview"}}}},
	}

	got, ok := NormalizeBSON(decoded).(bson.M)
	if !ok {
		t.Fatalf("top level is %T, want bson.M", NormalizeBSON(decoded))
	}

	months, ok := got["months"].(bson.M)
	if !ok {
		t.Fatalf("months is %T, want bson.M", got["months"])
	}
	if _, ok := months["JUL'26"].(bson.M); !ok {
		t.Errorf("nested month is %T, want bson.M", months["JUL'26"])
	}

	entries, ok := got["entries"].([]interface{})
	if !ok {
		t.Fatalf("entries is %T, want []interface{}", got["entries"])
	}
	if _, ok := entries[0].(bson.M); !ok {
		t.Errorf("array element is %T, want bson.M", entries[0])
	}
}
