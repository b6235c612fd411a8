package httpdto

// QuestionRequest is used for POST and DELETE /questions
type QuestionRequest struct {
	Question string `json:"question" binding:"required"`
}

// QuestionsResponse lists the registry in insertion order
type QuestionsResponse struct {
	Questions []string `json:"questions"`
}
