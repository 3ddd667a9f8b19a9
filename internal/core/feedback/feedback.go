package feedback

import (
	"context"
	"log"
	"strings"

	"github.com/voxprep/voxprep-backend/internal/core/transcript"
	"github.com/voxprep/voxprep-backend/pkg/types"
)

// Generator produces a schema-validated feedback report for a coaching
// prompt. Implemented by the gemini client; faked in tests.
type Generator interface {
	FeedbackJSON(ctx context.Context, prompt string) (*types.FeedbackReport, error)
}

// Requester turns a finished interview transcript into a FeedbackReport.
// It never fails past its own boundary: callers always get a report,
// either the model's or the canned fallback.
type Requester struct {
	gen Generator
}

func NewRequester(gen Generator) *Requester {
	return &Requester{gen: gen}
}

// Request builds the coaching prompt and asks the model for structured
// feedback. Interviews with fewer than 2 entries produce no report.
func (r *Requester) Request(ctx context.Context, entries []transcript.Entry, interviewType string) *types.FeedbackReport {
	if len(entries) < 2 {
		return nil
	}
	if r.gen == nil {
		return Fallback()
	}
	report, err := r.gen.FeedbackJSON(ctx, BuildPrompt(entries, interviewType))
	if err != nil {
		log.Printf("[feedback] generation failed: %v", err)
		return Fallback()
	}
	if !valid(report) {
		log.Printf("[feedback] model returned an out-of-schema report")
		return Fallback()
	}
	return report
}

// BuildPrompt renders the transcript chronologically with display
// labels and wraps it in the fixed coaching instructions.
func BuildPrompt(entries []transcript.Entry, interviewType string) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(transcript.Label(e.Speaker))
		b.WriteString(": ")
		b.WriteString(e.Text)
	}
	return `You are an expert Technical Interview Coach.
The user just completed a ` + strings.ToUpper(interviewType) + ` interview.
Analyze the following interview transcript and provide structured feedback.

Transcript:
` + b.String() + `

Provide a JSON response with a rating (1-10), a brief summary, strengths, areas for improvement, and actionable tips.`
}

func valid(r *types.FeedbackReport) bool {
	if r == nil {
		return false
	}
	if r.Rating < 1 || r.Rating > 10 {
		return false
	}
	return strings.TrimSpace(r.Summary) != ""
}

// Fallback is the deterministic report used whenever generation fails.
// Rating 0 is the sentinel for "no score available".
func Fallback() *types.FeedbackReport {
	return &types.FeedbackReport{
		Rating:       0,
		Summary:      "We couldn't generate detailed feedback for this session due to a connection issue.",
		Strengths:    []string{},
		Improvements: []string{},
		Tips:         []string{"Please check your internet connection and try again."},
	}
}
