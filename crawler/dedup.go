package crawler

// SeenSet tracks the names of records accepted during one crawl run.
// Matching is exact and case-sensitive, so "Dune" and "dune" are
// distinct entries. The set only grows and is never persisted across
// runs. The crawl loop is single-threaded, so no locking is needed.
type SeenSet struct {
	names map[string]struct{}
}

// NewSeenSet returns an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{names: make(map[string]struct{})}
}

// Duplicate reports whether name was already recorded.
func (s *SeenSet) Duplicate(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Record adds name to the set.
func (s *SeenSet) Record(name string) {
	s.names[name] = struct{}{}
}

// Len returns the number of recorded names.
func (s *SeenSet) Len() int {
	return len(s.names)
}
