package db

// TextQuery is the input for a scored full-text search.
// Every term must match in at least one of Fields.
type TextQuery struct {
	IndexName    string
	Fields       []string
	Terms        []string
	Offset       int
	TopK         int // page size
	ReturnFields []string
}

// ListQuery is the input for an unscored search, optionally sorted.
type ListQuery struct {
	IndexName    string
	Query        string // raw FT query, "*" for everything
	Offset       int
	Limit        int
	SortBy       string
	SortDesc     bool
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
