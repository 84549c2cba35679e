package models

// --- Request Structs ---

// ChatRequest defines the expected body for the chat endpoint.
// CourseMetadata and ProviderConfigs are optional; when omitted they are
// loaded from the course store.
type ChatRequest struct {
	Conversation    Conversation    `json:"conversation"`
	CourseName      string          `json:"course_name"`
	CourseMetadata  *CourseMetadata `json:"courseMetadata,omitempty"`
	ProviderConfigs ProviderConfigs `json:"llmProviders,omitempty"`
	Stream          bool            `json:"stream"`
}

// ListModelsRequest defines the body for POST /v1/models.
type ListModelsRequest struct {
	CourseName      string          `json:"projectName"`
	ProviderConfigs ProviderConfigs `json:"llmProviders,omitempty"`
}

// --- Response Structs ---

// CompletionMessage is the assistant message inside a completion choice.
type CompletionMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionChoice is a single choice of a buffered completion.
type CompletionChoice struct {
	Index        int               `json:"index"`
	Message      CompletionMessage `json:"message"`
	FinishReason string            `json:"finish_reason,omitempty"`
}

// ChatCompletion is the OpenAI-shaped envelope every buffered provider
// response is normalized into.
type ChatCompletion struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
}

// NewChatCompletion wraps a single assistant answer.
func NewChatCompletion(id, model, content, finishReason string) *ChatCompletion {
	return &ChatCompletion{
		ID:     id,
		Object: "chat.completion",
		Model:  model,
		Choices: []CompletionChoice{{
			Index:        0,
			Message:      CompletionMessage{Role: RoleAssistant, Content: content},
			FinishReason: finishReason,
		}},
	}
}

// Content returns the text of the first choice.
func (c *ChatCompletion) Content() string {
	if c == nil || len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Message.Content
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
