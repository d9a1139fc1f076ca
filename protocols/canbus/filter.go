package canbus

// Filter is an inclusive range of identifiers of a single kind.
type Filter struct {
	First ID
	Last  ID
}

// Match reports whether id falls inside the filter.
func (f Filter) Match(id ID) bool {
	return id.kind == f.First.kind &&
		id.value >= f.First.value && id.value <= f.Last.value
}

// IDs enumerates every identifier in the filter.
func (f Filter) IDs() []ID {
	if f.First.IsZero() || f.First.kind != f.Last.kind || f.Last.value < f.First.value {
		return nil
	}
	ids := make([]ID, 0, f.Last.value-f.First.value+1)
	for v := f.First.value; v <= f.Last.value; v++ {
		ids = append(ids, ID{f.First.kind, v})
	}
	return ids
}
