package port

import "context"

// CompletionRequest is one call to the LLM completion API. The
// response is always requested as a single JSON object.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
}

// CompletionResponse carries the raw JSON body of the model's answer
// plus usage accounting for the debug trail.
type CompletionResponse struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// CompletionClient abstracts the external LLM completion API.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Model() string
}
