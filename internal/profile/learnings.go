package profile

// RecentLearnings returns up to n entries from an append-only learnings log,
// newest first.
func RecentLearnings(learnings []Learning, n int) []Learning {
	if n <= 0 || len(learnings) == 0 {
		return nil
	}
	if n > len(learnings) {
		n = len(learnings)
	}
	out := make([]Learning, 0, n)
	for i := len(learnings) - 1; i >= len(learnings)-n; i-- {
		out = append(out, learnings[i])
	}
	return out
}
