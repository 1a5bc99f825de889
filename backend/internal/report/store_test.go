package report

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"traintrack/backend/internal/shared"
)

func TestNormalizePayloadInteractionsArray(t *testing.T) {
	entries := []interface{}{bson.M{"note": "mock interview"}}

	got, err := NormalizePayload(KindInteractions, entries)
	if err != nil {
		t.Fatalf("array payload rejected: %v", err)
	}
	if arr, ok := got.([]interface{}); !ok || len(arr) != 1 {
		t.Errorf("got %T %v, want the one-entry array back", got, got)
	}

	// The same shape arrives as primitive.A when decoded from BSON.
	got, err = NormalizePayload(KindInteractions, primitive.A(entries))
	if err != nil {
		t.Fatalf("primitive.A payload rejected: %v", err)
	}
	if _, ok := got.([]interface{}); !ok {
		t.Errorf("got %T, want []interface{}", got)
	}
}

func TestNormalizePayloadInteractionsObject(t *testing.T) {
	got, err := NormalizePayload(KindInteractions, bson.M{"week1": "done"})
	if err != nil {
		t.Fatalf("object payload rejected: %v", err)
	}
	if m, ok := got.(bson.M); !ok || m["week1"] != "done" {
		t.Errorf("got %T %v, want the object back", got, got)
	}
}

func TestNormalizePayloadObjectKindsRejectArrays(t *testing.T) {
	for _, kind := range []Kind{KindLearning, KindAttendance, KindGrooming} {
		_, err := NormalizePayload(kind, []interface{}{bson.M{}})
		if err == nil {
			t.Errorf("%s: array payload accepted, want a validation error", kind)
			continue
		}
		if shared.KindOf(err) != shared.KindValidation {
			t.Errorf("%s: error kind = %v, want KindValidation", kind, shared.KindOf(err))
		}
	}
}

func TestEmptyPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload interface{}
		want    bool
	}{
		{"nil", nil, true},
		{"empty object", bson.M{}, true},
		{"empty array", []interface{}{}, true},
		{"object with data", bson.M{"k": 1}, false},
		{"array with data", []interface{}{bson.M{"k": 1}}, false},
	}
	for _, tt := range tests {
		if got := EmptyPayload(tt.payload); got != tt.want {
			t.Errorf("%s: EmptyPayload = %v, want %v", tt.name, got, tt.want)
		}
	}
}
