// Package answer holds the raw gateway answer and the normalized query result.
package answer

// Citation is one grounding chunk reported by the gateway. Title is nil
// when the chunk carries no retrieved-context title.
type Citation struct {
	Title *string
}

// Grounding is the citation metadata attached to an answer.
type Grounding struct {
	Citations []Citation
}

// Answer is the raw gateway response. Text and Grounding are nil when
// the gateway did not return them or returned them malformed.
type Answer struct {
	Text      *string
	Grounding *Grounding
}

// Result is the normalized answer returned to callers.
type Result struct {
	Question       string   `json:"query"`
	AnswerText     string   `json:"response_text"`
	CitationTitles []string `json:"grounding_sources"`
	RecordID       string   `json:"document_id"`
}

// Titles extracts citation titles in order. Any missing title voids the
// whole list, so the result is either complete or empty, never nil.
func (g *Grounding) Titles() []string {
	if g == nil {
		return []string{}
	}
	titles := make([]string, 0, len(g.Citations))
	for _, c := range g.Citations {
		if c.Title == nil {
			return []string{}
		}
		titles = append(titles, *c.Title)
	}
	return titles
}

// TextOrEmpty returns the answer text or "" when absent.
func (a Answer) TextOrEmpty() string {
	if a.Text == nil {
		return ""
	}
	return *a.Text
}
