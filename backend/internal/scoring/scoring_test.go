package scoring

import (
	"math"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExamAveragesOf(t *testing.T) {
	learning := bson.M{
		"Daily Quiz scores": bson.M{"Topic1": 80, "Topic2": 90},
		"Fort night exam score Average (In Percentage)": bson.M{"Topic1": 70},
	}

	avg := ExamAveragesOf(learning)
	if !almostEqual(avg.DailyQuiz, 85) {
		t.Errorf("DailyQuiz = %v, want 85", avg.DailyQuiz)
	}
	if !almostEqual(avg.Fortnight, 70) {
		t.Errorf("Fortnight = %v, want 70", avg.Fortnight)
	}
	if avg.CourseExam != 0 {
		t.Errorf("CourseExam = %v, want 0", avg.CourseExam)
	}
	// Overall is the mean of the non-zero sub-averages only.
	if !almostEqual(avg.Overall, 77.5) {
		t.Errorf("Overall = %v, want 77.5", avg.Overall)
	}
}

func TestExamAveragesHeaderVariants(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"daily quiz alternate caps", "Daily Quiz Scores"},
		{"fortnight short", "Fort night exam score Average"},
		{"course exam alternate caps", "Course Exam Score"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg := ExamAveragesOf(bson.M{tt.key: bson.M{"T": 50}})
			if avg.Overall != 50 {
				t.Errorf("header %q not recognized: overall = %v", tt.key, avg.Overall)
			}
		})
	}
}

func TestExamAveragesSkipNonPositive(t *testing.T) {
	learning := bson.M{
		"Daily Quiz scores": bson.M{"T1": 0, "T2": -5, "T3": 60, "T4": "n/a"},
	}
	avg := ExamAveragesOf(learning)
	if !almostEqual(avg.DailyQuiz, 60) {
		t.Errorf("DailyQuiz = %v, want 60 (only the positive numeric value)", avg.DailyQuiz)
	}
}

func TestDemoAverageZeroCountExcludesRating(t *testing.T) {
	learning := bson.M{
		"Online demo counts":          bson.M{"TopicA": 0},
		"Online demo ratings Average": bson.M{"TopicA": 5},
	}

	avg := DemoAveragesOf(learning)
	if avg.Online != 0 {
		t.Errorf("Online = %v, want 0 when the only count is zero", avg.Online)
	}
}

func TestDemoAverageCountGatingPerTopic(t *testing.T) {
	learning := bson.M{
		"Offline demo counts":          bson.M{"TopicA": 2, "TopicB": 0},
		"Offline demo ratings Average": bson.M{"TopicA": 4, "TopicB": 5},
	}

	avg := DemoAveragesOf(learning)
	if !almostEqual(avg.Offline, 4) {
		t.Errorf("Offline = %v, want 4 (TopicB's rating gated out)", avg.Offline)
	}
}

func TestDemoAverageCaseInsensitiveCountMatch(t *testing.T) {
	learning := bson.M{
		"Online demo counts":          bson.M{"topic a ": 3},
		"Online demo ratings Average": bson.M{"Topic A": 4},
	}

	avg := DemoAveragesOf(learning)
	if !almostEqual(avg.Online, 4) {
		t.Errorf("Online = %v, want 4 (count matched case-insensitively)", avg.Online)
	}
}

func TestCourseCompletionOf(t *testing.T) {
	learning := bson.M{
		"CourseCompletion": bson.M{
			"Fast":       bson.M{"weeksExpected": 6, "weeksTaken": 4, "status": "Completed"},
			"NotDone":    bson.M{"weeksExpected": 6, "weeksTaken": 0, "status": "completed"},
			"InProgress": bson.M{"weeksExpected": 6, "weeksTaken": 3, "status": "in progress"},
			"AltHeader":  bson.M{"No. of weeks expected complete the course": 4, "weeksTaken": 4, "status": "done"},
		},
	}

	completion := CourseCompletionOf(learning)
	if len(completion) != 2 {
		t.Fatalf("got %d qualifying courses, want 2", len(completion))
	}
	if !almostEqual(completion["Fast"].Efficiency, 1.5) {
		t.Errorf("Fast efficiency = %v, want 1.5", completion["Fast"].Efficiency)
	}
	if !almostEqual(completion["AltHeader"].Efficiency, 1) {
		t.Errorf("AltHeader efficiency = %v, want 1", completion["AltHeader"].Efficiency)
	}
}

func TestLearningPhase(t *testing.T) {
	tests := []struct {
		name       string
		efficiency float64
		want       string
	}{
		{"fast at boundary", 1.2, "fast"},
		{"average upper", 1.19, "average"},
		{"average lower boundary", 0.8, "average"},
		{"slow", 0.79, "slow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completion := map[string]CourseCompletionEntry{
				"C": {WeeksExpected: 1, WeeksTaken: 1, Efficiency: tt.efficiency},
			}
			if got := LearningPhase(completion); got != tt.want {
				t.Errorf("LearningPhase(%v) = %q, want %q", tt.efficiency, got, tt.want)
			}
		})
	}

	if got := LearningPhase(nil); got != "unknown" {
		t.Errorf("LearningPhase(nil) = %q, want unknown", got)
	}
}

func TestOverallScoreWeights(t *testing.T) {
	exam := ExamAverages{Overall: 80}

	// All three components present: 80*0.6 + 90*0.3 + 90*0.1 over weight 1.
	score := OverallScore(exam, []float64{90}, []float64{1})
	if score != 84 {
		t.Errorf("full score = %d, want 84", score)
	}

	// Exam only: normalized by the 0.6 weight actually applied.
	score = OverallScore(exam, nil, nil)
	if score != 80 {
		t.Errorf("exam-only score = %d, want 80", score)
	}

	// Nothing present.
	score = OverallScore(ExamAverages{}, nil, nil)
	if score != 0 {
		t.Errorf("empty score = %d, want 0", score)
	}
}

func TestOverallScoreGroomingFloor(t *testing.T) {
	// 15 missed in one month: 100 - 150 clamps to 0.
	score := OverallScore(ExamAverages{}, nil, []float64{15})
	if score != 0 {
		t.Errorf("score = %d, want 0 (grooming floor)", score)
	}
}
