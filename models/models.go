package models

import (
	"time"
)

// DefaultSessionID is used when a request does not name a session.
const DefaultSessionID = "default"

// SearchHit is a single entry returned by the news search provider.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchResult is one fetched document. Content starts as the normalised page
// text (or the provider snippet) and is later replaced by the distilled excerpt.
type SearchResult struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Chunk is a window of text cut from a single SearchResult.
type Chunk struct {
	Text   string `json:"text"`
	Index  int    `json:"index"`
	Source int    `json:"source"`
}

type Section struct {
	Subtitle  string `json:"subtitle"`
	Summary   string `json:"summary"`
	SourceURL string `json:"sourceUrl"`
}

// StructuredAnswer is the validated output of the synthesizer.
type StructuredAnswer struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// URLs returns the source URLs cited by the answer, in section order.
func (a StructuredAnswer) URLs() []string {
	out := make([]string, 0, len(a.Sections))
	for _, s := range a.Sections {
		out = append(out, s.SourceURL)
	}
	return out
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a session's conversation history.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// QueryRequest is the pipeline entry point payload.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionId"`
	// LegacySessionID accepts the snake_case field older clients send.
	LegacySessionID string `json:"session_id,omitempty"`
}

// Session returns the effective session id.
func (r QueryRequest) Session() string {
	switch {
	case r.SessionID != "":
		return r.SessionID
	case r.LegacySessionID != "":
		return r.LegacySessionID
	default:
		return DefaultSessionID
	}
}
