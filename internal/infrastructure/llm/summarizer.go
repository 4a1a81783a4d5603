package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"PressWatch/internal/domain"
	"PressWatch/internal/ports"
)

// promptTemplate embeds the article content and pins the reply structure.
// The persisted prompt descriptor stores the template itself, not the
// rendered prompt, so stored rows do not duplicate article content.
const promptTemplate = `%s

Analyze the preceding article and respond in the following JSON format: {"summary": a brief summary highlighting the key points of the article, "subject": one or two words that describe the subject of the article (Earnings, Clinical Trial, Regulatory Approval, or Other), "sentiment": one word description of the overall sentiment of the article (Positive, Negative, Neutral)}`

// Client talks to the external summarization endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

var _ ports.Summarizer = (*Client)(nil)

// NewClient builds a reusable summarization client.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

type promptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type summaryRequest struct {
	Prompt []promptMessage `json:"prompt"`
}

type summaryResponse struct {
	Reply string `json:"reply"`
	Model string `json:"model"`
}

type modelReply struct {
	Summary   string `json:"summary"`
	Subject   string `json:"subject"`
	Sentiment string `json:"sentiment"`
}

// Summarize renders the prompt around the article content, calls the
// endpoint, and parses the structured reply. Every failure is recoverable
// per item and tagged as a summarization failure.
func (c *Client) Summarize(ctx context.Context, article domain.Article) (domain.Summary, error) {
	if c.endpoint == "" {
		return domain.Summary{}, fmt.Errorf("%w: summarization endpoint is not configured", domain.ErrSummarization)
	}

	payload, err := json.Marshal(summaryRequest{
		Prompt: []promptMessage{{Role: "user", Content: fmt.Sprintf(promptTemplate, article.Content)}},
	})
	if err != nil {
		return domain.Summary{}, fmt.Errorf("%w: marshal request: %v", domain.ErrSummarization, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.Summary{}, fmt.Errorf("%w: build request: %v", domain.ErrSummarization, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("%w: %v", domain.ErrSummarization, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Summary{}, fmt.Errorf("%w: endpoint returned %s: %s",
			domain.ErrSummarization, resp.Status, strings.TrimSpace(string(detail)))
	}

	var body summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Summary{}, fmt.Errorf("%w: decode response: %v", domain.ErrSummarization, err)
	}

	var reply modelReply
	if err := json.Unmarshal([]byte(body.Reply), &reply); err != nil {
		return domain.Summary{}, fmt.Errorf("%w: malformed model reply: %v", domain.ErrSummarization, err)
	}
	if reply.Summary == "" {
		return domain.Summary{}, fmt.Errorf("%w: model reply has no summary", domain.ErrSummarization)
	}

	descriptor, err := json.Marshal(promptMessage{Role: "user", Content: promptTemplate})
	if err != nil {
		return domain.Summary{}, fmt.Errorf("%w: marshal prompt descriptor: %v", domain.ErrSummarization, err)
	}

	return domain.Summary{
		ArticleID: article.ID,
		Category:  reply.Subject,
		Sentiment: reply.Sentiment,
		Text:      reply.Summary,
		CreatedAt: c.now(),
		Model:     body.Model,
		Prompt:    string(descriptor),
	}, nil
}
