package gemini

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/voxprep/voxprep-backend/pkg/types"
)

// Client wraps the genai SDK for the one-shot structured completion
// used after an interview ends.
type Client struct {
	c     *genai.Client
	model string
}

func New(apiKey, model string) (*Client, error) {
	tr := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		TLSClientConfig:   &tls.Config{MinVersion: tls.VersionTLS12},
		ForceAttemptHTTP2: false,
		MaxIdleConns:      100,
		IdleConnTimeout:   90 * time.Second,
	}
	hc := &http.Client{Transport: tr, Timeout: 30 * time.Second}
	reqTimeout := 15 * time.Second
	cl, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
		HTTPOptions: genai.HTTPOptions{
			APIVersion: "v1",
			Timeout:    &reqTimeout,
		},
	})
	if err != nil {
		return nil, err
	}
	return &Client{c: cl, model: model}, nil
}

func (g *Client) Close() error { return nil }

// FeedbackJSON requests a feedback report constrained to the report
// schema. The schema-constrained call is tried first; a plain-text call
// is the fallback since some model revisions refuse response schemas.
func (g *Client) FeedbackJSON(ctx context.Context, prompt string) (*types.FeedbackReport, error) {
	parts := []*genai.Part{{Text: prompt}}

	temp := float32(0.2)
	topP := float32(0.8)
	maxTok := int32(2048)

	cfgJSON := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"rating":       {Type: genai.TypeNumber, Description: "Score out of 10"},
				"summary":      {Type: genai.TypeString, Description: "Brief overview of performance"},
				"strengths":    {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"improvements": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"tips":         {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			},
			Required: []string{"rating", "summary", "strengths", "improvements", "tips"},
		},
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: maxTok,
	}
	cfgText := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: maxTok,
	}

	if report, err := g.callOnce(ctx, parts, cfgJSON); err == nil && report != nil {
		return report, nil
	}
	return g.callOnce(ctx, parts, cfgText)
}

func (g *Client) callOnce(ctx context.Context, parts []*genai.Part, cfg *genai.GenerateContentConfig) (*types.FeedbackReport, error) {
	var lastErr error
	for i := 0; i < 3; i++ {
		resp, err := g.c.Models.GenerateContent(ctx, g.model, []*genai.Content{{Parts: parts}}, cfg)
		if err != nil {
			lastErr = err
			if retriable(err) {
				time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
				continue
			}
			return nil, err
		}
		if report, ok := parseReport(resp); ok {
			return report, nil
		}
		lastErr = errors.New("empty response")
		time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
	}
	return nil, lastErr
}

func parseReport(resp *genai.GenerateContentResponse) (*types.FeedbackReport, bool) {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && p.InlineData.MIMEType == "application/json" {
				var out types.FeedbackReport
				if json.Unmarshal(p.InlineData.Data, &out) == nil && out.Summary != "" {
					return &out, true
				}
			}
			if p.Text != "" {
				var out types.FeedbackReport
				if json.Unmarshal([]byte(p.Text), &out) == nil && out.Summary != "" {
					return &out, true
				}
			}
		}
	}
	if t := resp.Text(); t != "" {
		var out types.FeedbackReport
		if json.Unmarshal([]byte(t), &out) == nil && out.Summary != "" {
			return &out, true
		}
	}
	return nil, false
}

func retriable(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "unexpected EOF") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "RST_STREAM") ||
		strings.Contains(s, "connection reset")
}
