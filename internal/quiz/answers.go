package quiz

import "sort"

// Select applies one option pick to the answer map and returns the updated
// copy. Single-select questions replace the previous entry with a singleton;
// multi-select questions toggle membership of the key and keep the selection
// sorted so correctness comparison stays canonical.
func Select(answers Answers, q Question, optionKey string) Answers {
	out := answers.Clone()
	if out == nil {
		out = Answers{}
	}

	if !q.MultiSelect() {
		out[q.ID] = []string{optionKey}
		return out
	}

	current := out[q.ID]
	toggled := make([]string, 0, len(current)+1)
	removed := false
	for _, key := range current {
		if key == optionKey {
			removed = true
			continue
		}
		toggled = append(toggled, key)
	}
	if !removed {
		toggled = append(toggled, optionKey)
	}
	sort.Strings(toggled)
	out[q.ID] = toggled
	return out
}
