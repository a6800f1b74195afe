// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package prompt assembles chat prompts under a fixed token budget.
//
// Token counts are estimated with a conservative character ratio rather
// than a real tokenizer: the budget exists to keep prompts safely inside
// the endpoint's context window, not to bill by the token, and a ratio
// that overestimates slightly errs in the safe direction.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/askdocs/ai"
	"github.com/poiesic/askdocs/core"
)

// CharsPerToken is the assumed characters-per-token ratio.
const CharsPerToken = 4

// EstimateTokens estimates the token count of text, rounding up.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}

// Limits carries the token budgets for one prompt build.
type Limits struct {
	// ContextBudget caps the tokens spent on documentation excerpts.
	ContextBudget int
	// PromptBudget is the outer budget shared by prompt and generation.
	PromptBudget int
	// MinGeneration is the floor of generation room a prompt must leave.
	MinGeneration int
	// MaxOutputTokens is the endpoint's output cap.
	MaxOutputTokens int
	// HistoryMessages is the conversation history window size.
	HistoryMessages int
}

// DefaultLimits returns the stock budgets.
func DefaultLimits() Limits {
	return Limits{
		ContextBudget:   2048,
		PromptBudget:    3584,
		MinGeneration:   128,
		MaxOutputTokens: 1024,
		HistoryMessages: 6,
	}
}

// BudgetedPrompt is an assembled prompt that fits its limits.
type BudgetedPrompt struct {
	Messages         []ai.ChatMessage
	UsedContext      []core.RetrievedChunk
	GenerationBudget int
}

// Build assembles a prompt from the preamble, retrieved context, and
// conversation history.
//
// History is windowed to the newest HistoryMessages entries; older turns
// fall off the front. Context chunks are kept in rank order and trimmed
// lowest-ranked-first until both the context budget and the outer budget
// hold; trimming every chunk away is a legal outcome and yields a
// zero-context prompt carrying the no-context notice. The fixed parts
// (preamble, instructions, history) are never trimmed; only when they
// alone overrun the outer budget or squeeze generation below the floor
// does Build fail with ErrBudgetExhausted.
func Build(preamble string, loc Locale, history []*core.Message, contextChunks []core.RetrievedChunk, limits Limits) (*BudgetedPrompt, error) {
	table := Table(loc)

	if limits.HistoryMessages > 0 && len(history) > limits.HistoryMessages {
		history = history[len(history)-limits.HistoryMessages:]
	}

	fixed := EstimateTokens(preamble) + EstimateTokens(table.Safety)
	for _, msg := range history {
		fixed += EstimateTokens(msg.Content)
	}

	contextBudget := limits.ContextBudget
	if outer := limits.PromptBudget - limits.MinGeneration - fixed; outer < contextBudget {
		contextBudget = outer
	}
	if contextBudget < 0 {
		return nil, fmt.Errorf("%w: fixed prompt parts need %d tokens of %d", ErrBudgetExhausted, fixed+limits.MinGeneration, limits.PromptBudget)
	}

	// Keep the strongest chunks; drop from the weak end until under budget.
	used := contextChunks
	contextTokens := 0
	for i := range used {
		contextTokens += chunkTokens(used[i])
	}
	for len(used) > 0 && contextTokens > contextBudget {
		contextTokens -= chunkTokens(used[len(used)-1])
		used = used[:len(used)-1]
	}

	if len(used) == 0 {
		// The no-context notice takes the context block's slot, whether
		// retrieval found nothing or trimming dropped everything.
		fixed += EstimateTokens(table.NoContextNotice)
		contextTokens = 0
	}

	generation := limits.PromptBudget - fixed - contextTokens
	if generation < limits.MinGeneration {
		return nil, fmt.Errorf("%w: only %d generation tokens remain, need %d", ErrBudgetExhausted, generation, limits.MinGeneration)
	}
	if limits.MaxOutputTokens > 0 && generation > limits.MaxOutputTokens {
		generation = limits.MaxOutputTokens
	}

	messages := make([]ai.ChatMessage, 0, len(history)+3)
	messages = append(messages, ai.ChatMessage{Role: ai.RoleSystem, Content: preamble})
	messages = append(messages, ai.ChatMessage{Role: ai.RoleSystem, Content: table.Safety})

	if len(used) > 0 {
		messages = append(messages, ai.ChatMessage{Role: ai.RoleSystem, Content: renderContext(table, used)})
	} else {
		messages = append(messages, ai.ChatMessage{Role: ai.RoleSystem, Content: table.NoContextNotice})
	}

	for _, msg := range history {
		role := ai.RoleUser
		if msg.Role == core.RoleAssistant {
			role = ai.RoleAssistant
		}
		messages = append(messages, ai.ChatMessage{Role: role, Content: msg.Content})
	}

	return &BudgetedPrompt{
		Messages:         messages,
		UsedContext:      used,
		GenerationBudget: generation,
	}, nil
}

func chunkTokens(c core.RetrievedChunk) int {
	return EstimateTokens(c.Text) + EstimateTokens(c.Filename) + 2
}

// renderContext formats the excerpt block with source attributions.
func renderContext(table Strings, chunks []core.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString(table.ContextHeader)
	for _, c := range chunks {
		b.WriteString("\n\n")
		fmt.Fprintf(&b, "[%s#%d]\n", c.Filename, c.ChunkIndex)
		b.WriteString(c.Text)
	}
	return b.String()
}
