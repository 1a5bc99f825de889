// ============================================================================
// backend/internal/scoring/scoring.go
// Per-candidate performance metrics derived from stored report payloads
// ============================================================================

package scoring

import (
	"math"
	"strings"

	"github.com/montanaflynn/stats"
	"go.mongodb.org/mongo-driver/bson"

	"traintrack/backend/internal/report"
	"traintrack/backend/internal/shared"
)

// Spreadsheet header spellings drifted over time; every variant ever written
// must keep resolving. Order is most-recent first.
var (
	dailyQuizKeys = []string{
		"Daily Quiz scores",
		"Daily Quiz Scores",
	}
	fortnightKeys = []string{
		"Fort night exam score Average (In Percentage)",
		"Fortnight Exam Score Average",
		"Fort night exam score Average",
	}
	courseExamKeys = []string{
		"Course exam score",
		"Course Exam Score",
	}
	onlineDemoCountKeys = []string{
		"Online demo counts",
		"Online Demo counts",
		"Online Demo Counts",
	}
	onlineDemoRatingKeys = []string{
		"Online demo ratings Average",
		"Online Demo ratings Average",
		"Online Demo Ratings Average",
	}
	offlineDemoCountKeys = []string{
		"Offline demo counts",
		"Offline Demo counts",
		"Offline Demo Counts",
	}
	offlineDemoRatingKeys = []string{
		"Offline demo ratings Average",
		"Offline Demo ratings Average",
		"Offline Demo Ratings Average",
	}
)

// ExamAverages holds per-exam-type averages plus their combined mean.
type ExamAverages struct {
	DailyQuiz  float64 `json:"dailyQuiz"`
	Fortnight  float64 `json:"fortnightExam"`
	CourseExam float64 `json:"courseExam"`
	Overall    float64 `json:"overall"`
}

// DemoAverages holds online and offline demo rating averages.
type DemoAverages struct {
	Online  float64 `json:"onlineDemo"`
	Offline float64 `json:"offlineDemo"`
}

// CourseCompletionEntry is one finished course with its schedule efficiency.
// Efficiency above 1 means the course was finished ahead of schedule.
type CourseCompletionEntry struct {
	WeeksExpected float64 `json:"weeksExpected"`
	WeeksTaken    float64 `json:"weeksTaken"`
	Status        string  `json:"status"`
	Efficiency    float64 `json:"efficiency"`
}

// ExamAveragesOf computes the three exam averages from a canonical learning
// payload. Overall is the mean of the non-zero sub-averages, an average of
// averages rather than a pooled mean.
func ExamAveragesOf(learning bson.M) ExamAverages {
	avg := ExamAverages{}
	if learning == nil {
		return avg
	}

	avg.DailyQuiz = meanOf(positiveValues(firstPresent(learning, dailyQuizKeys)))
	avg.Fortnight = meanOf(positiveValues(firstPresent(learning, fortnightKeys)))
	avg.CourseExam = meanOf(positiveValues(firstPresent(learning, courseExamKeys)))

	var nonZero []float64
	for _, v := range []float64{avg.DailyQuiz, avg.Fortnight, avg.CourseExam} {
		if v > 0 {
			nonZero = append(nonZero, v)
		}
	}
	avg.Overall = meanOf(nonZero)
	return avg
}

// DemoAveragesOf computes demo rating averages, counting a topic's rating
// only when that topic also has a positive attempt count. A rating with zero
// recorded attempts must not inflate the average, and zero attempts overall
// means a zero average no matter what ratings are present.
func DemoAveragesOf(learning bson.M) DemoAverages {
	return DemoAverages{
		Online:  demoAverage(learning, onlineDemoCountKeys, onlineDemoRatingKeys),
		Offline: demoAverage(learning, offlineDemoCountKeys, offlineDemoRatingKeys),
	}
}

// CourseCompletionOf filters the CourseCompletion map down to courses with
// positive expected and taken weeks and a finished-like status, computing
// each one's efficiency.
func CourseCompletionOf(learning bson.M) map[string]CourseCompletionEntry {
	completion := make(map[string]CourseCompletionEntry)
	if learning == nil {
		return completion
	}

	courses, err := shared.GetMap(learning[report.CourseCompletionKey])
	if err != nil {
		return completion
	}

	for course, raw := range courses {
		doc, err := shared.GetMap(raw)
		if err != nil {
			continue
		}

		expected, _ := shared.GetFloat64(doc["weeksExpected"])
		if expected <= 0 {
			expected, _ = shared.GetFloat64(doc["No. of weeks expected complete the course"])
		}
		taken, _ := shared.GetFloat64(doc["weeksTaken"])

		status, _ := shared.GetString(doc["status"])
		if status == "" {
			status, _ = shared.GetString(doc["Status"])
		}
		status = strings.ToLower(strings.TrimSpace(status))

		if expected <= 0 || taken <= 0 || !isFinishedStatus(status) {
			continue
		}

		completion[course] = CourseCompletionEntry{
			WeeksExpected: expected,
			WeeksTaken:    taken,
			Status:        status,
			Efficiency:    expected / taken,
		}
	}
	return completion
}

// LearningPhase classifies mean completion efficiency: fast finishes at
// least 20% ahead of schedule, slow takes at least 25% longer than planned.
func LearningPhase(completion map[string]CourseCompletionEntry) string {
	var efficiencies []float64
	for _, c := range completion {
		if c.Efficiency > 0 {
			efficiencies = append(efficiencies, c.Efficiency)
		}
	}
	if len(efficiencies) == 0 {
		return "unknown"
	}

	avg := meanOf(efficiencies)
	switch {
	case avg >= 1.2:
		return "fast"
	case avg >= 0.8:
		return "average"
	default:
		return "slow"
	}
}

// OverallScore combines exam, attendance, and grooming metrics into one
// 0-100 figure. Each component contributes only when it has data, and the
// weighted sum is normalized by the weights actually applied.
func OverallScore(exam ExamAverages, attendancePercentages []float64, groomingMissed []float64) int {
	score := 0.0
	weight := 0.0

	if exam.Overall > 0 {
		score += exam.Overall * 0.6
		weight += 0.6
	}

	if len(attendancePercentages) > 0 {
		score += meanOf(attendancePercentages) * 0.3
		weight += 0.3
	}

	if len(groomingMissed) > 0 {
		totalMissed := 0.0
		for _, m := range groomingMissed {
			totalMissed += m
		}
		missedPerMonth := totalMissed / float64(len(groomingMissed))
		groomingScore := 100 - missedPerMonth*10
		if groomingScore < 0 {
			groomingScore = 0
		}
		score += groomingScore * 0.1
		weight += 0.1
	}

	if weight == 0 {
		return 0
	}
	return int(math.Round(score / weight))
}

// ============================================================================
// Helper Functions
// ============================================================================

func isFinishedStatus(status string) bool {
	return status == "completed" || status == "done" || status == "finished"
}

// firstPresent returns the first header variant actually present, as a map.
// A scalar value under the header is wrapped in a single-entry map.
func firstPresent(payload bson.M, keys []string) bson.M {
	for _, key := range keys {
		raw, ok := payload[key]
		if !ok || raw == nil {
			continue
		}
		if m, err := shared.GetMap(raw); err == nil {
			return m
		}
		if f, err := shared.GetFloat64(raw); err == nil {
			return bson.M{"": f}
		}
	}
	return nil
}

func positiveValues(m bson.M) []float64 {
	var out []float64
	for _, v := range m {
		if f, err := shared.GetFloat64(v); err == nil && f > 0 {
			out = append(out, f)
		}
	}
	return out
}

func demoAverage(learning bson.M, countKeys, ratingKeys []string) float64 {
	if learning == nil {
		return 0
	}

	counts := firstPresent(learning, countKeys)
	ratings := firstPresent(learning, ratingKeys)

	total := 0.0
	for _, v := range counts {
		if f, err := shared.GetFloat64(v); err == nil && f > 0 {
			total += f
		}
	}
	if total <= 0 {
		return 0
	}

	// A scalar count carries no per-topic detail; with a positive total,
	// every valid rating counts.
	if _, scalar := counts[""]; scalar && len(counts) == 1 {
		return meanOf(positiveValues(ratings))
	}

	// Pair each rating with its count by topic, matching keys
	// case-insensitively since the sheets disagree on capitalization.
	lowered := make(map[string]float64, len(counts))
	for k, v := range counts {
		if f, err := shared.GetFloat64(v); err == nil {
			lowered[strings.ToLower(strings.TrimSpace(k))] = f
		}
	}

	var values []float64
	for topic, raw := range ratings {
		rating, err := shared.GetFloat64(raw)
		if err != nil || rating <= 0 {
			continue
		}
		if lowered[strings.ToLower(strings.TrimSpace(topic))] > 0 {
			values = append(values, rating)
		}
	}
	return meanOf(values)
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return mean
}
