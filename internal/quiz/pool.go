package quiz

import (
	"sort"
	"strings"
)

// BatchSize is the fixed page size the extraction service is asked for.
const BatchSize = 50

// BatchRange maps a zero-based batch index to the 1-based inclusive question
// number range it covers: batch 0 is [1,50], batch 1 is [51,100], and so on.
func BatchRange(index int) (start, end int) {
	return index*BatchSize + 1, (index + 1) * BatchSize
}

// MergePool combines an already-fetched pool with an incoming batch.
// Questions are deduplicated by id with the incoming batch winning, and the
// result is sorted ascending by id. Merging the same batch twice is a no-op.
func MergePool(existing, incoming []Question) []Question {
	byID := make(map[int]Question, len(existing)+len(incoming))
	for _, q := range existing {
		byID[q.ID] = q
	}
	for _, q := range incoming {
		byID[q.ID] = q
	}

	merged := make([]Question, 0, len(byID))
	for _, q := range byID {
		merged = append(merged, q)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	return merged
}

// ParseCorrectAnswers normalizes the raw correct-answer string coming from the
// extraction service ("A" or "a, c") into uppercase option keys. The raw form
// must never be carried past this boundary.
func ParseCorrectAnswers(raw string) []string {
	var keys []string
	for _, part := range strings.Split(raw, ",") {
		key := strings.ToUpper(strings.TrimSpace(part))
		if key == "" {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}
