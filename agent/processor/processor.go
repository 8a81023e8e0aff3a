package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/careloop/crm/agent/contract"
)

const internalErrorMessage = "Internal server error"

// Processor orchestrates one interaction request: tool selection, execution,
// summary annotation and response shaping. It holds no per-request state.
type Processor struct {
	tools      contractx.ToolGateway
	summarizer contractx.Summarizer

	graphRunner compose.Runnable[contractx.InteractionInput, contractx.ProcessingResult]

	now func() time.Time
}

func New(tools contractx.ToolGateway, summarizer contractx.Summarizer) (*Processor, error) {
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	if summarizer == nil {
		return nil, errors.New("summarizer is required")
	}

	p := &Processor{
		tools:      tools,
		summarizer: summarizer,
		now:        time.Now,
	}

	graphRunner, err := p.compileProcessGraph(context.Background())
	if err != nil {
		return nil, err
	}
	p.graphRunner = graphRunner

	return p, nil
}

// ProcessInteraction runs one payload through the processing graph. It is the
// single top-level failure boundary: any error or panic below it becomes a
// generic internal-error envelope instead of propagating to the caller.
func (p *Processor) ProcessInteraction(ctx context.Context, in contractx.InteractionInput) (out contractx.ProcessingResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Msg("interaction processing panicked")
			out = internalFailure(fmt.Sprintf("panic: %v", r))
		}
	}()

	result, err := p.graphRunner.Invoke(ctx, in)
	if err != nil {
		log.Error().Err(err).Str("mode", in.Mode).Msg("interaction processing failed")
		return internalFailure(err.Error())
	}
	return result
}

func internalFailure(detail string) contractx.ProcessingResult {
	return contractx.ProcessingResult{
		Success: false,
		Error:   detail,
		Message: internalErrorMessage,
	}
}
