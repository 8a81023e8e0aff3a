package tool

import (
	"context"
	"fmt"

	contractx "github.com/careloop/crm/agent/contract"
)

var _ contractx.ToolGateway = (*Toolset)(nil)

// Execute dispatches a tool by name. The processor currently wires only
// log_interaction through this entry; the remaining tools are reached via
// their typed methods.
func (t *Toolset) Execute(ctx context.Context, tool contractx.ToolName, in contractx.InteractionInput) (contractx.ToolResult, error) {
	switch tool {
	case contractx.ToolLogInteraction:
		return t.LogInteraction(ctx, in), nil
	default:
		return contractx.ToolResult{}, fmt.Errorf("%w: %s", contractx.ErrUnknownTool, tool)
	}
}
