package domain

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results. Zero uses the configured default.
	Limit int
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// Fragment is the matched fragment with full metadata.
	Fragment Fragment

	// Score is the cosine similarity to the query.
	Score float64
}
