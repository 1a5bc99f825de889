// ============================================================================
// backend/internal/report/transform.go
// Learning report reshaping between sub-sheet form and metric-keyed form
// ============================================================================

package report

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson"

	"traintrack/backend/internal/shared"
)

// SubSheetNames lists the learning sub-sheets in their declared order. The
// order matters: when two sub-sheets supply a value for the same
// (metric, topic) pair, the earlier sheet wins.
var SubSheetNames = []string{
	"DailyQuizReports",
	"FortnightScores",
	"CourseExamScores",
	"OnlineDemoReports",
	"OfflineDemoReports",
}

// CourseCompletionKey is carried verbatim through the transform.
const CourseCompletionKey = "CourseCompletion"

// SkillsKey is the derived list of all topics observed.
const SkillsKey = "skills"

// IsKnownSubSheet reports whether name is one of the learning sub-sheets.
func IsKnownSubSheet(name string) bool {
	for _, s := range SubSheetNames {
		if s == name {
			return true
		}
	}
	return false
}

// HasSubSheetKeys reports whether the payload is still in raw import shape.
func HasSubSheetKeys(payload bson.M) bool {
	for _, sheet := range SubSheetNames {
		if _, ok := payload[sheet]; ok {
			return true
		}
	}
	return false
}

// ToCanonical converts a sub-sheet shaped learning payload into the
// metric-keyed storage shape. Already-canonical payloads (no sub-sheet keys
// present) are returned unchanged, so the transform is safe to apply on every
// read and every write.
func ToCanonical(payload bson.M) bson.M {
	return ToCanonicalSheets(payload, SubSheetNames)
}

// ToCanonicalSheets is ToCanonical restricted to a subset of sub-sheets.
// Only the named sheets contribute values; CourseCompletion is preserved
// regardless of the filter.
func ToCanonicalSheets(payload bson.M, sheets []string) bson.M {
	if payload == nil {
		return nil
	}
	if !HasSubSheetKeys(payload) {
		return payload
	}

	out := bson.M{}
	topicSet := make(map[string]bool)

	// Declared order scan: the first sheet that supplies a (metric, topic)
	// value keeps it.
	for _, sheet := range orderedSheets(sheets) {
		raw, ok := payload[sheet]
		if !ok {
			continue
		}
		topics, err := shared.GetMap(raw)
		if err != nil {
			continue
		}
		for _, topic := range sortedKeys(topics) {
			metrics, err := shared.GetMap(topics[topic])
			if err != nil {
				continue
			}
			topicSet[topic] = true
			for _, metric := range sortedKeys(metrics) {
				bucket, ok := out[metric].(bson.M)
				if !ok {
					bucket = bson.M{}
					out[metric] = bucket
				}
				if _, taken := bucket[topic]; !taken {
					bucket[topic] = metrics[metric]
				}
			}
		}
	}

	// A metric that ended up with no topics carries no information.
	for metric, v := range out {
		if bucket, ok := v.(bson.M); ok && len(bucket) == 0 {
			delete(out, metric)
		}
	}

	if cc, ok := payload[CourseCompletionKey]; ok {
		out[CourseCompletionKey] = cc
	}

	skills := make([]string, 0, len(topicSet))
	for topic := range topicSet {
		skills = append(skills, topic)
	}
	sort.Strings(skills)
	out[SkillsKey] = skills

	return out
}

// HasLearningData reports whether a canonical payload holds anything worth
// storing: at least one metric bucket or a CourseCompletion map.
func HasLearningData(canonical bson.M) bool {
	for key, v := range canonical {
		if key == SkillsKey {
			continue
		}
		if key == CourseCompletionKey {
			if cc, err := shared.GetMap(v); err == nil && len(cc) > 0 {
				return true
			}
			continue
		}
		if bucket, ok := v.(bson.M); ok && len(bucket) > 0 {
			return true
		}
	}
	return false
}

func orderedSheets(requested []string) []string {
	want := make(map[string]bool, len(requested))
	for _, s := range requested {
		want[s] = true
	}
	var ordered []string
	for _, s := range SubSheetNames {
		if want[s] {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
