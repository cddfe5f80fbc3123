// internal/workers/restaurant-search/parse-search-request/models.go
package parsesearchrequest

import "dinediscover/internal/models"

type Input struct {
	Message string `json:"message"`
}

type Output struct {
	Params   models.PlaceSearchParams `json:"params"`
	ToolName string                   `json:"toolName"`
}

// chat completions wire format, trimmed to what is read or sent

type chatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
}

type toolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatRequest struct {
	Model      string                   `json:"model"`
	Messages   []chatMessage            `json:"messages"`
	Tools      []map[string]interface{} `json:"tools"`
	ToolChoice map[string]interface{}   `json:"tool_choice"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}
