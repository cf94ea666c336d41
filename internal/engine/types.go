package engine

// SearchResult is one ranked hit returned by a search backend.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// googleResponse is the subset of the Custom Search JSON API we read.
type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"items"`
}

type searxngResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

type searxngResponse struct {
	Results []searxngResult `json:"results"`
}
