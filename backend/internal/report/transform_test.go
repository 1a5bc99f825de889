package report

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestToCanonicalBasic(t *testing.T) {
	input := bson.M{
		"DailyQuizReports": bson.M{
			"Topic1": bson.M{"Daily Quiz counts": 4},
		},
	}

	out := ToCanonical(input)

	bucket, ok := out["Daily Quiz counts"].(bson.M)
	if !ok {
		t.Fatalf("expected metric bucket, got %T", out["Daily Quiz counts"])
	}
	if got := bucket["Topic1"]; got != 4 {
		t.Errorf("Topic1 = %v, want 4", got)
	}

	skills, ok := out[SkillsKey].([]string)
	if !ok || !reflect.DeepEqual(skills, []string{"Topic1"}) {
		t.Errorf("skills = %v, want [Topic1]", out[SkillsKey])
	}
}

func TestToCanonicalIdempotent(t *testing.T) {
	input := bson.M{
		"DailyQuizReports": bson.M{
			"Topic1": bson.M{"Daily Quiz counts": 4, "Daily Quiz scores": 85},
			"Topic2": bson.M{"Daily Quiz counts": 2},
		},
		"FortnightScores": bson.M{
			"Topic1": bson.M{"Fortnight Exam Score Average": 70},
		},
	}

	once := ToCanonical(input)
	twice := ToCanonical(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second transform changed the payload:\nonce:  %v\ntwice: %v", once, twice)
	}
}

func TestToCanonicalFirstSheetWins(t *testing.T) {
	// Both sheets supply (Score, Topic1); DailyQuizReports is declared first
	// so its value must survive.
	input := bson.M{
		"FortnightScores": bson.M{
			"Topic1": bson.M{"Score": 50},
		},
		"DailyQuizReports": bson.M{
			"Topic1": bson.M{"Score": 90},
		},
	}

	out := ToCanonical(input)
	bucket := out["Score"].(bson.M)
	if got := bucket["Topic1"]; got != 90 {
		t.Errorf("Score[Topic1] = %v, want 90 (from DailyQuizReports)", got)
	}
}

func TestToCanonicalEveryPairAppearsOnce(t *testing.T) {
	input := bson.M{
		"DailyQuizReports": bson.M{
			"TopicA": bson.M{"counts": 1, "scores": 80},
		},
		"CourseExamScores": bson.M{
			"TopicA": bson.M{"scores": 60, "exam": 75},
			"TopicB": bson.M{"exam": 90},
		},
	}

	out := ToCanonical(input)

	want := map[string]map[string]interface{}{
		"counts": {"TopicA": 1},
		"scores": {"TopicA": 80}, // DailyQuizReports declared before CourseExamScores
		"exam":   {"TopicA": 75, "TopicB": 90},
	}
	for metric, topics := range want {
		bucket, ok := out[metric].(bson.M)
		if !ok {
			t.Fatalf("metric %q missing from output", metric)
		}
		if len(bucket) != len(topics) {
			t.Errorf("metric %q has %d topics, want %d", metric, len(bucket), len(topics))
		}
		for topic, value := range topics {
			if got := bucket[topic]; got != value {
				t.Errorf("%s[%s] = %v, want %v", metric, topic, got, value)
			}
		}
	}
}

func TestToCanonicalSheetsFilter(t *testing.T) {
	input := bson.M{
		"DailyQuizReports": bson.M{
			"Topic1": bson.M{"Daily Quiz counts": 4},
		},
		"FortnightScores": bson.M{
			"Topic2": bson.M{"Fortnight Exam Score Average": 70},
		},
		CourseCompletionKey: bson.M{
			"CourseX": bson.M{"weeksExpected": 4, "weeksTaken": 5, "status": "completed"},
		},
	}

	out := ToCanonicalSheets(input, []string{"DailyQuizReports"})

	if _, ok := out["Fortnight Exam Score Average"]; ok {
		t.Error("filtered-out sheet contributed a metric")
	}
	if _, ok := out["Daily Quiz counts"]; !ok {
		t.Error("selected sheet's metric missing")
	}
	if _, ok := out[CourseCompletionKey]; !ok {
		t.Error("CourseCompletion must be preserved regardless of the filter")
	}

	skills := out[SkillsKey].([]string)
	if !reflect.DeepEqual(skills, []string{"Topic1"}) {
		t.Errorf("skills = %v, want [Topic1]", skills)
	}
}

func TestToCanonicalAlreadyCanonical(t *testing.T) {
	canonical := bson.M{
		"Daily Quiz counts": bson.M{"Topic1": 4},
		SkillsKey:           []string{"Topic1"},
	}

	out := ToCanonical(canonical)
	if !reflect.DeepEqual(out, canonical) {
		t.Errorf("canonical payload was modified: %v", out)
	}
}

func TestHasLearningData(t *testing.T) {
	tests := []struct {
		name    string
		payload bson.M
		want    bool
	}{
		{"empty", bson.M{}, false},
		{"skills only", bson.M{SkillsKey: []string{}}, false},
		{"metric present", bson.M{"counts": bson.M{"T": 1}, SkillsKey: []string{"T"}}, true},
		{"course completion only", bson.M{CourseCompletionKey: bson.M{"C": bson.M{"weeksTaken": 2}}}, true},
		{"empty course completion", bson.M{CourseCompletionKey: bson.M{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasLearningData(tt.payload); got != tt.want {
				t.Errorf("HasLearningData() = %v, want %v", got, tt.want)
			}
		})
	}
}
