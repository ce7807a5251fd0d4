package manifest

// Index maps identifiers to the manifest paths holding that content, the
// lookup an ni RewriteMap performs. Paths stay percent-escaped.
type Index struct {
	byID    map[string][]string
	entries int
}

// NewIndex indexes entries. When several files share content, Lookup
// returns the one listed first.
func NewIndex(entries []Entry) *Index {
	ix := &Index{byID: make(map[string][]string, len(entries)), entries: len(entries)}
	for _, e := range entries {
		ix.byID[e.ID] = append(ix.byID[e.ID], e.Path)
	}
	return ix
}

// LoadIndex reads and indexes the manifest at path.
func LoadIndex(path string) (*Index, error) {
	entries, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewIndex(entries), nil
}

// Lookup returns the first path listed for id.
func (ix *Index) Lookup(id string) (string, bool) {
	ps := ix.byID[id]
	if len(ps) == 0 {
		return "", false
	}
	return ps[0], true
}

// Paths returns every path listed for id in manifest order.
func (ix *Index) Paths(id string) []string {
	return ix.byID[id]
}

// Len returns the number of entries indexed.
func (ix *Index) Len() int {
	return ix.entries
}

// Distinct returns the number of distinct identifiers.
func (ix *Index) Distinct() int {
	return len(ix.byID)
}
