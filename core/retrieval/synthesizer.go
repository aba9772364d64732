package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/siherrmann/retriever/model"
)

// insufficientContextAnswer is the fixed answer returned when no
// retrieved chunks are available. No model call is made in that case.
const insufficientContextAnswer = "根據目前的知識庫內容，沒有足夠的資訊回答這個問題。"

var citationPattern = regexp.MustCompile(`\[\d+\]`)

// Synthesize produces an answer from the ranked chunks. With no chunks
// it returns the fixed insufficient-context answer without calling the
// model. Without a configured model, or when the model call fails, it
// degrades to returning the concatenated chunk text verbatim with no
// citations. Otherwise the model is called once with the numbered
// chunks and citations are extracted from its answer.
func (e *Engine) Synthesize(ctx context.Context, query string, chunks []*model.RankedCandidate) (string, []string) {
	if len(chunks) == 0 {
		return insufficientContextAnswer, nil
	}

	if e.generator == nil {
		return concatenateChunks(chunks), nil
	}

	answer, err := e.generator.Generate(ctx, buildSynthesisPrompt(query, chunks))
	if err != nil {
		e.logger.Warn("Answer synthesis failed, degrading to extractive answer", slog.String("error", err.Error()))
		return concatenateChunks(chunks), nil
	}

	return answer, ExtractCitations(answer)
}

// ExtractCitations returns the bracket-numbered citation tokens found
// in the answer text, deduplicated in order of first appearance.
func ExtractCitations(answer string) []string {
	var citations []string
	seen := map[string]bool{}

	for _, match := range citationPattern.FindAllString(answer, -1) {
		if seen[match] {
			continue
		}
		seen[match] = true
		citations = append(citations, match)
	}

	return citations
}

func concatenateChunks(chunks []*model.RankedCandidate) string {
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Content)
	}
	return strings.Join(parts, "\n\n")
}

func buildSynthesisPrompt(query string, chunks []*model.RankedCandidate) string {
	var sb strings.Builder
	sb.WriteString("You are a precise assistant answering from the provided context only.\n")
	sb.WriteString("Answer the question using the numbered context chunks below. ")
	sb.WriteString("Cite every supporting chunk inline with its bracket number, for example [1]. ")
	sb.WriteString("Answer in the language of the question. ")
	sb.WriteString("If the context does not contain the answer, say so.\n\nContext:\n")

	for i, chunk := range chunks {
		sb.WriteString(fmt.Sprintf("[%d] %s\n", i+1, chunk.Content))
	}

	sb.WriteString(fmt.Sprintf("\nQuestion: %s\nAnswer:", query))
	return sb.String()
}
