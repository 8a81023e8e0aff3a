package contract

import "context"

// Summarizer produces an insight bundle for a processed interaction.
// Implementations must always return a usable bundle; external-model
// failures are recovered internally, never surfaced to the caller.
type Summarizer interface {
	Summarize(ctx context.Context, in InteractionInput, toolResult ToolResult) InsightBundle
}

// ToolGateway executes a named business tool against the record store.
// A non-nil error is reserved for dispatch problems (unknown tool name);
// tool-level failures are reported inside the ToolResult.
type ToolGateway interface {
	Execute(ctx context.Context, tool ToolName, in InteractionInput) (ToolResult, error)
}
