package model

import "time"

// QueryConfig represents configuration for a knowledge query. All
// routing and fusion thresholds are policy constants; several engine
// behaviors depend on the exact defaults, so override with care.
type QueryConfig struct {
	// Result set parameters
	TopK   int `json:"top_k"`
	Offset int `json:"offset,omitempty"`

	// Hybrid search parameters
	VectorWeight float64 `json:"vector_weight"` // Share of the combined score taken by vector similarity

	// Graph retrieval parameters
	GraphDepth       int     `json:"graph_depth"`        // Neighborhood expansion depth per matched entity
	MaxGraphDepth    int     `json:"max_graph_depth"`    // Hard clamp on traversal depth
	EntityMatchLimit int     `json:"entity_match_limit"` // Max entities matched per query
	GraphChunkScore  float64 `json:"graph_chunk_score"`  // Pseudo-score assigned to rendered neighborhood chunks

	// Fusion parameters
	RRFK int `json:"rrf_k"` // Rank fusion smoothing constant, larger flattens rank influence

	// Routing parameters
	GraphRouteThreshold float64 `json:"graph_route_threshold"` // Hybrid probe score below which an entity hit routes to graph

	// Synthesis parameters
	ContextChunkLimit int `json:"context_chunk_limit"` // Fused chunks handed to the model

	// Sub-query timeout for the fanned-out graph retrieval branches
	SubQueryTimeout time.Duration `json:"sub_query_timeout,omitempty"`
}

// DefaultQueryConfig returns the default configuration
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TopK:                10,
		Offset:              0,
		VectorWeight:        0.5,
		GraphDepth:          2,
		MaxGraphDepth:       3,
		EntityMatchLimit:    5,
		GraphChunkScore:     0.8,
		RRFK:                60,
		GraphRouteThreshold: 0.55,
		ContextChunkLimit:   6,
		SubQueryTimeout:     10 * time.Second,
	}
}
