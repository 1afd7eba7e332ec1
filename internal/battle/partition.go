package battle

// Partition splits candidates into pools of at most capacity, walking the
// input in order and cutting every capacity items; the last pool may be
// smaller. Pool index is the position in the returned slice. Deterministic
// for a given input order.
func Partition(candidates []Candidate, capacity int) []Pool {
	if capacity <= 0 {
		capacity = DefaultPoolCapacity
	}

	pools := make([]Pool, 0, (len(candidates)+capacity-1)/capacity)
	for start := 0; start < len(candidates); start += capacity {
		end := min(start+capacity, len(candidates))
		pools = append(pools, Pool{
			Index:      len(pools),
			Candidates: append([]Candidate(nil), candidates[start:end]...),
		})
	}
	return pools
}
