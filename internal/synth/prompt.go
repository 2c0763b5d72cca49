package synth

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/mohammad-safakhou/newsrag/provider"
)

const systemInstruction = `You are a news research assistant. Answer the user's query using only the numbered context documents supplied with it.

Respond with a single JSON object that has a "title" and a "sections" array.
- Write 3 to 4 sections, one per subtopic of the query.
- Each section has a "subtitle", a "summary" and a "sourceUrl".
- The "summary" holds 2 to 3 point-form observations, each 3 to 4 sentences long, one per line starting with "- ".
- The "sourceUrl" is the Source URL of the context document the section is drawn from, copied verbatim. Never invent a URL or use one that is not listed in the context.
- Finish with a section whose subtitle is "Conclusion" that sums up the findings; its sourceUrl is the most relevant context document.

Earlier turns of this conversation may be present. Use them to resolve follow-up questions, but cite only the context supplied with the latest query.`

// buildMessages lays out one generation request: instruction, prior turns,
// then the query with its context.
func buildMessages(history []models.Turn, query string, docs []models.SearchResult) []provider.Message {
	msgs := make([]provider.Message, 0, len(history)+2)
	msgs = append(msgs, provider.Message{Role: provider.RoleSystem, Content: systemInstruction})
	for _, t := range history {
		role := provider.RoleUser
		if t.Role == models.RoleAssistant {
			role = provider.RoleAssistant
		}
		msgs = append(msgs, provider.Message{Role: role, Content: t.Content})
	}
	msgs = append(msgs, provider.Message{Role: provider.RoleUser, Content: userPrompt(query, docs)})
	return msgs
}

// userPrompt renders the query and every non-empty document. Numbering
// follows the order of docs, skipped entries included.
func userPrompt(query string, docs []models.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nContext:\n", query)
	written := 0
	for i, d := range docs {
		if strings.TrimSpace(d.Content) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n[%d] Source URL: %s\n%s\n", i+1, d.URL, d.Content)
		written++
	}
	if written == 0 {
		b.WriteString("\n(no document text was available; rely on the source URLs below)\n")
		for i, d := range docs {
			fmt.Fprintf(&b, "[%d] Source URL: %s\n", i+1, d.URL)
		}
	}
	return b.String()
}
