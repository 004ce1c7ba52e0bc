package gemini

import (
	"context"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/kailas-cloud/filesearch/internal/domain/answer"
)

// AnswerQuery asks the model a question grounded in the file search store.
func (c *Client) AnswerQuery(ctx context.Context, storeRef, question string) (answer.Answer, error) {
	contents := []*genai.Content{genai.NewContentFromText(question, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{
			FileSearch: &genai.FileSearch{FileSearchStoreNames: []string{storeRef}},
		}},
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, contents, cfg)
	if err := c.observe(opGenerateContent, start, err); err != nil {
		return answer.Answer{}, err
	}
	return toAnswer(resp), nil
}

// toAnswer takes the first candidate. Text is nil when the candidate has no
// text parts (thought parts excluded); Grounding is nil when metadata is absent.
func toAnswer(resp *genai.GenerateContentResponse) answer.Answer {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return answer.Answer{}
	}
	cand := resp.Candidates[0]

	var ans answer.Answer
	if cand.Content != nil {
		var (
			b       strings.Builder
			hasText bool
		)
		for _, p := range cand.Content.Parts {
			if p == nil || p.Thought || p.Text == "" {
				continue
			}
			b.WriteString(p.Text)
			hasText = true
		}
		if hasText {
			text := b.String()
			ans.Text = &text
		}
	}

	ans.Grounding = toGrounding(cand.GroundingMetadata)
	return ans
}

// toGrounding keeps one citation per chunk; chunks without a retrieved
// context or title yield a citation with a nil title.
func toGrounding(meta *genai.GroundingMetadata) *answer.Grounding {
	if meta == nil {
		return nil
	}

	g := &answer.Grounding{Citations: make([]answer.Citation, 0, len(meta.GroundingChunks))}
	for _, chunk := range meta.GroundingChunks {
		var c answer.Citation
		if chunk != nil && chunk.RetrievedContext != nil && chunk.RetrievedContext.Title != "" {
			title := chunk.RetrievedContext.Title
			c.Title = &title
		}
		g.Citations = append(g.Citations, c)
	}
	return g
}
