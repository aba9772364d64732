package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/retriever/model"
)

// relationalIntentPattern matches queries asking about relationships,
// causes, networks or connections between things, in Chinese or English.
var relationalIntentPattern = regexp.MustCompile(`關係|关系|關聯|关联|因果|原因|網絡|网络|之間|之间|relationship|related to|relation|connection|cause|network|between`)

// Route decides between hybrid and graph retrieval for one request and
// returns the mode together with a human readable reason. Routing is a
// pure function of the request signals; the same query against the same
// store state always yields the same decision.
func (e *Engine) Route(ctx context.Context, workspaceID uuid.UUID, query string, requested model.Mode, config *model.QueryConfig) (model.Mode, string) {
	switch requested {
	case model.ModeHybrid:
		return model.ModeHybrid, "forced_hybrid_mode"
	case model.ModeGraph:
		return model.ModeGraph, "forced_graph_mode"
	}

	if relationalIntentPattern.MatchString(strings.ToLower(query)) {
		return model.ModeGraph, "auto_graph_query_intent"
	}

	topScore := e.probeHybrid(ctx, workspaceID, query, config)
	entityHit := len(e.matchEntities(ctx, workspaceID, query, 1)) > 0

	if entityHit && topScore < config.GraphRouteThreshold {
		return model.ModeGraph, fmt.Sprintf("auto_graph_entity_hit_low_hybrid(%.2f)", topScore)
	}

	return model.ModeHybrid, fmt.Sprintf("auto_hybrid_top_score(%.2f)", topScore)
}

// probeHybrid runs a top-1 hybrid query to gauge how well the index
// alone answers the query. Probe failures count as score 0 so routing
// still resolves.
func (e *Engine) probeHybrid(ctx context.Context, workspaceID uuid.UUID, query string, config *model.QueryConfig) float64 {
	probeConfig := *config
	probeConfig.TopK = 1
	probeConfig.Offset = 0

	candidates, _, err := e.QueryHybrid(ctx, workspaceID, query, nil, &probeConfig)
	if err != nil {
		e.logger.Warn("Hybrid probe failed", slog.String("error", err.Error()))
		return 0
	}
	if len(candidates) == 0 {
		return 0
	}

	return candidates[0].Score
}
