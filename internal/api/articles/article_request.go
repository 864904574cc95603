package api

type ArticleRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Summary *string  `json:"summary,omitempty"`
	Tags    []string `json:"tags"`
}
