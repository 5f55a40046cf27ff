package interfaces

import "context"

// AIService generates text through a local LLM endpoint.
type AIService interface {
	Summarize(ctx context.Context, text string) (string, error)
	// Sanitize strips personally identifiable information, replacing it with
	// placeholders like [NAME] and [EMAIL].
	Sanitize(ctx context.Context, text string) (string, error)
	ChatWithContext(ctx context.Context, contextText, question string) (string, error)
}
