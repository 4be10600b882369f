package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchRange(t *testing.T) {
	start, end := BatchRange(0)
	assert.Equal(t, 1, start)
	assert.Equal(t, 50, end)

	start, end = BatchRange(1)
	assert.Equal(t, 51, start)
	assert.Equal(t, 100, end)

	start, end = BatchRange(3)
	assert.Equal(t, 151, start)
	assert.Equal(t, 200, end)
}

func TestMergePool_IncomingWins(t *testing.T) {
	existing := []Question{
		{ID: 1, Text: "old one"},
		{ID: 2, Text: "old two"},
	}
	incoming := []Question{
		{ID: 2, Text: "new two"},
		{ID: 3, Text: "three"},
	}

	merged := MergePool(existing, incoming)

	assert.Len(t, merged, 3)
	assert.Equal(t, "old one", merged[0].Text)
	assert.Equal(t, "new two", merged[1].Text)
	assert.Equal(t, "three", merged[2].Text)
}

func TestMergePool_SortedByID(t *testing.T) {
	merged := MergePool(
		[]Question{{ID: 52}, {ID: 7}},
		[]Question{{ID: 51}, {ID: 1}},
	)

	ids := make([]int, len(merged))
	for i, q := range merged {
		ids[i] = q.ID
	}
	assert.Equal(t, []int{1, 7, 51, 52}, ids)
}

func TestMergePool_SameBatchTwiceIsNoop(t *testing.T) {
	batch := []Question{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}}

	once := MergePool(nil, batch)
	twice := MergePool(once, batch)

	assert.Equal(t, once, twice)
}

func TestParseCorrectAnswers(t *testing.T) {
	assert.Equal(t, []string{"A"}, ParseCorrectAnswers("A"))
	assert.Equal(t, []string{"A"}, ParseCorrectAnswers("a"))
	assert.Equal(t, []string{"A", "C"}, ParseCorrectAnswers("a, c"))
	assert.Equal(t, []string{"B", "D"}, ParseCorrectAnswers(" B ,D "))
	assert.Equal(t, []string{"A", "C"}, ParseCorrectAnswers("A,,C,"))
	assert.Nil(t, ParseCorrectAnswers(""))
	assert.Nil(t, ParseCorrectAnswers(" , "))
}
