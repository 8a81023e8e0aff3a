package processor

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/careloop/crm/agent/contract"
)

type graphState struct {
	Input      contractx.InteractionInput
	Tool       contractx.ToolName
	ToolResult contractx.ToolResult
	Insights   *contractx.InsightBundle
}

func (p *Processor) compileProcessGraph(
	ctx context.Context,
) (compose.Runnable[contractx.InteractionInput, contractx.ProcessingResult], error) {
	graph := compose.NewGraph[contractx.InteractionInput, contractx.ProcessingResult]()

	if err := graph.AddLambdaNode("select_tool",
		compose.InvokableLambda(func(ctx context.Context, in contractx.InteractionInput) (*graphState, error) {
			// Every request is a log_interaction for now; dispatch by request
			// shape plugs in here.
			return &graphState{Input: in, Tool: contractx.ToolLogInteraction}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node select_tool: %w", err)
	}

	if err := graph.AddLambdaNode("execute_tool",
		compose.InvokableLambda(func(ctx context.Context, st *graphState) (*graphState, error) {
			result, err := p.tools.Execute(ctx, st.Tool, st.Input)
			if err != nil {
				return nil, fmt.Errorf("execute tool %s: %w", st.Tool, err)
			}
			st.ToolResult = result
			return st, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node execute_tool: %w", err)
	}

	if err := graph.AddLambdaNode("generate_insights",
		compose.InvokableLambda(func(ctx context.Context, st *graphState) (*graphState, error) {
			if !st.ToolResult.Success {
				return st, nil
			}
			bundle := p.summarizer.Summarize(ctx, st.Input, st.ToolResult)
			st.Insights = &bundle
			return st, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node generate_insights: %w", err)
	}

	if err := graph.AddLambdaNode("compose_response",
		compose.InvokableLambda(func(ctx context.Context, st *graphState) (contractx.ProcessingResult, error) {
			if !st.ToolResult.Success {
				message := st.ToolResult.Error
				if message == "" {
					message = "tool execution failed"
				}
				return contractx.ProcessingResult{
					Success:    false,
					ToolUsed:   st.Tool,
					ToolResult: &st.ToolResult,
					Message:    message,
				}, nil
			}

			processedAt := p.now().UTC()
			return contractx.ProcessingResult{
				Success:     true,
				ToolUsed:    st.Tool,
				ToolResult:  &st.ToolResult,
				AIInsights:  st.Insights,
				ProcessedAt: &processedAt,
			}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node compose_response: %w", err)
	}

	edges := [][2]string{
		{compose.START, "select_tool"},
		{"select_tool", "execute_tool"},
		{"execute_tool", "generate_insights"},
		{"generate_insights", "compose_response"},
		{"compose_response", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("processor.process_interaction"))
	if err != nil {
		return nil, fmt.Errorf("compile processing graph: %w", err)
	}
	return runner, nil
}
