package model

import (
	"github.com/google/uuid"
)

// SourceType describes which retrieval predicate produced a candidate.
type SourceType string

const (
	SourceTypeVector  SourceType = "vector"
	SourceTypeLexical SourceType = "lexical"
	SourceTypeGraph   SourceType = "graph"
)

// Mode is the retrieval mode requested by or reported to the caller.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeHybrid Mode = "hybrid"
	ModeGraph  Mode = "graph"
)

// RankedCandidate is a scored retrieval candidate. Candidates are
// produced fresh per query and never persisted.
type RankedCandidate struct {
	ID         uuid.UUID  `json:"id"`
	Content    string     `json:"content"`
	Title      string     `json:"title,omitempty"`
	DocumentID uuid.UUID  `json:"document_id"`
	Score      float64    `json:"score"`
	SourceType SourceType `json:"source_type"`
}

// RetrievalResult is the immutable response of a knowledge query.
type RetrievalResult struct {
	Answer        string                 `json:"answer"`
	Sources       []*RankedCandidate     `json:"sources"`
	Entities      []*Entity              `json:"entities,omitempty"`
	Citations     []string               `json:"citations"`
	ModeUsed      Mode                   `json:"mode_used"`
	RoutingReason string                 `json:"routing_reason"`
	Debug         map[string]interface{} `json:"debug,omitempty"`
}

// StreamEventType discriminates events on a streamed knowledge query.
type StreamEventType string

const (
	StreamEventMetadata StreamEventType = "metadata"
	StreamEventToken    StreamEventType = "token"
	StreamEventDone     StreamEventType = "done"
)

// StreamEvent is one event of the streaming knowledge query variant.
// The first event carries the full result minus the answer text, each
// token event carries one answer character, and a done event closes
// the stream.
type StreamEvent struct {
	Type   StreamEventType  `json:"type"`
	Result *RetrievalResult `json:"result,omitempty"`
	Token  string           `json:"token,omitempty"`
}
