package api

type CommentRequest struct {
	ArticleID int64  `json:"article_id"`
	Content   string `json:"content"`
}

type ReplyRequest struct {
	Content string `json:"content"`
}
