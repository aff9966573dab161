package entity

// Message roles understood by the completion provider
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RenderedPrompt is the output of a prompt template.
type RenderedPrompt struct {
	TemplateID string
	Messages   []Message
}

// GenerateOptions controls a single completion call.
type GenerateOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
	Seed        *int
}

type Answer struct {
	Text string `json:"answer"`
}
