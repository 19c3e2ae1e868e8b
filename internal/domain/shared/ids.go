package shared

// DiffIDs returns the ids of desired missing from current and the ids of
// current missing from desired, both in input order
func DiffIDs(current, desired []int64) (added, removed []int64) {
	have := make(map[int64]struct{}, len(current))
	for _, id := range current {
		have[id] = struct{}{}
	}
	want := make(map[int64]struct{}, len(desired))
	for _, id := range desired {
		want[id] = struct{}{}
		if _, ok := have[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range current {
		if _, ok := want[id]; !ok {
			removed = append(removed, id)
		}
	}
	return added, removed
}
