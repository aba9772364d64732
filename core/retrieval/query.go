package retrieval

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/retriever/model"
)

// KnowledgeQuery runs one knowledge query end to end: validate, route,
// retrieve by the selected mode and synthesize an answer over the top
// chunks. Degradable dependencies never fail the request; only invalid
// input and an unavailable index store do.
func (e *Engine) KnowledgeQuery(ctx context.Context, query string, workspaceID uuid.UUID, mode model.Mode, config *model.QueryConfig) (*model.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if workspaceID == uuid.Nil {
		return nil, ErrEmptyWorkspace
	}
	if config == nil {
		defaultConfig := model.DefaultQueryConfig()
		config = &defaultConfig
	}
	if mode == "" {
		mode = model.ModeAuto
	}

	modeUsed, reason := e.Route(ctx, workspaceID, query, mode, config)

	result := &model.RetrievalResult{
		ModeUsed:      modeUsed,
		RoutingReason: reason,
	}

	switch modeUsed {
	case model.ModeGraph:
		graphResult, err := e.QueryGraph(ctx, workspaceID, query, config)
		if err != nil {
			return nil, err
		}
		result.Sources = graphResult.Candidates
		result.Entities = graphResult.Entities
	default:
		candidates, total, err := e.QueryHybrid(ctx, workspaceID, query, nil, config)
		if err != nil {
			return nil, err
		}
		result.Sources = candidates
		result.Debug = map[string]interface{}{"total_matched": total}
	}

	contextChunks := result.Sources
	if len(contextChunks) > config.ContextChunkLimit {
		contextChunks = contextChunks[:config.ContextChunkLimit]
	}
	result.Answer, result.Citations = e.Synthesize(ctx, query, contextChunks)

	return result, nil
}

// KnowledgeQueryStream is the streaming variant of KnowledgeQuery. It
// emits one metadata event carrying the result without the answer text,
// then one token event per answer character, then a done event, and
// closes the channel. Emission stops when the context is cancelled.
// Validation and retrieval errors are returned synchronously.
func (e *Engine) KnowledgeQueryStream(ctx context.Context, query string, workspaceID uuid.UUID, mode model.Mode, config *model.QueryConfig) (<-chan model.StreamEvent, error) {
	result, err := e.KnowledgeQuery(ctx, query, workspaceID, mode, config)
	if err != nil {
		return nil, err
	}

	events := make(chan model.StreamEvent)

	go func() {
		defer close(events)

		metadata := *result
		metadata.Answer = ""

		if !emit(ctx, events, model.StreamEvent{Type: model.StreamEventMetadata, Result: &metadata}) {
			return
		}

		for _, r := range result.Answer {
			if !emit(ctx, events, model.StreamEvent{Type: model.StreamEventToken, Token: string(r)}) {
				return
			}
		}

		emit(ctx, events, model.StreamEvent{Type: model.StreamEventDone})
	}()

	return events, nil
}

func emit(ctx context.Context, events chan<- model.StreamEvent, event model.StreamEvent) bool {
	// Checked separately so an already-cancelled context never races a
	// ready receiver
	select {
	case <-ctx.Done():
		return false
	default:
	}

	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
