// Package prompt assembles the engineered prompt sent for the final turn of
// a conversation and converts conversations into provider message lists.
package prompt

import (
	"strings"

	"coursechat-backend/internal/models"
	"coursechat-backend/internal/tokenizer"
)

const (
	contextPreamble = "Please answer the following question. Use the context below, called your documents, " +
		"only if it's helpful and don't use parts that are very irrelevant. It's good to quote from your " +
		"documents directly. Feel free to say you don't know.\n" +
		"Here's a few passages of the high quality documents:\n"

	blockSeparator = "---\n"

	citationInstruction = "\nWhen you use one of the documents above, cite it right after the sentence " +
		"with its filename and page number, e.g. \"The grass is green. [doc1, page: 11]\".\n"

	queryLead = "\nNow please respond to my query: "
)

// DefaultSystemPrompt is used when neither the course nor the conversation
// defines one.
const DefaultSystemPrompt = "You are a helpful teaching assistant for this course. " +
	"Answer using the provided course documents where they are relevant."

// BuildInput is what the stuffer needs for one turn.
type BuildInput struct {
	Query                string
	Contexts             []models.ContextWithMetadata // best-first
	TokenBudget          int
	SystemPromptTemplate string
}

// BuildOutput is the assembled prompt. Included holds the indexes of the
// contexts that were stuffed, in order.
type BuildOutput struct {
	SystemPrompt string
	FinalMessage string
	Included     []int
	TokensUsed   int
}

// Stuffer packs retrieved contexts into a token budget.
type Stuffer struct {
	counter tokenizer.Counter
}

// NewStuffer creates a Stuffer that measures text with counter.
func NewStuffer(counter tokenizer.Counter) *Stuffer {
	return &Stuffer{counter: counter}
}

// Build greedily includes contexts in the given order, skipping any block
// that would overflow the budget and continuing with the rest. Each candidate
// is measured as part of the fully assembled message, since BPE counts are
// not additive across the joins. With no contexts the query is returned
// unchanged. When the fixed text alone exceeds the budget, it is still
// returned with zero blocks.
func (s *Stuffer) Build(in BuildInput) BuildOutput {
	out := BuildOutput{SystemPrompt: in.SystemPromptTemplate}
	if len(in.Contexts) == 0 {
		out.FinalMessage = in.Query
		out.TokensUsed = s.counter.Count(in.Query)
		return out
	}

	blocks := make([]string, 0, len(in.Contexts))
	out.FinalMessage = assemble(blocks, in.Query)
	out.TokensUsed = s.counter.Count(out.FinalMessage)

	for i, c := range in.Contexts {
		candidate := assemble(append(blocks, blockSeparator+FormatContext(c)), in.Query)
		n := s.counter.Count(candidate)
		if n > in.TokenBudget {
			continue
		}
		blocks = append(blocks, blockSeparator+FormatContext(c))
		out.Included = append(out.Included, i)
		out.FinalMessage = candidate
		out.TokensUsed = n
	}
	return out
}

func assemble(blocks []string, query string) string {
	var sb strings.Builder
	sb.WriteString(contextPreamble)
	for _, b := range blocks {
		sb.WriteString(b)
	}
	sb.WriteString(citationInstruction)
	sb.WriteString(queryLead)
	sb.WriteString(query)
	return sb.String()
}

// FormatContext renders a context as a citation block.
func FormatContext(c models.ContextWithMetadata) string {
	var sb strings.Builder
	sb.WriteString("Document: ")
	sb.WriteString(c.ReadableFilename)
	if c.PageNumberOrTimestamp != "" {
		sb.WriteString(", page: ")
		sb.WriteString(c.PageNumberOrTimestamp)
	}
	sb.WriteString("\n")
	sb.WriteString(c.Text)
	sb.WriteString("\n")
	return sb.String()
}
