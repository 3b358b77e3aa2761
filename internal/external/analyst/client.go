package analyst

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/pkg/config"
	"github.com/wonny/aurum/pkg/httputil"
	"github.com/wonny/aurum/pkg/logger"
)

// Client requests free-form analysis texts from the messages endpoint and
// implements contracts.AnalysisProvider. The pipeline only consumes the
// returned prose through the extraction rules, so a thin model swap or an
// empty reply changes nothing structurally.
type Client struct {
	http      *httputil.Client
	endpoint  string
	apiKey    string
	model     string
	maxTokens int
	logger    *logger.Logger
}

// New creates a new analyst client.
func New(cfg config.AnalystConfig, log *logger.Logger) *Client {
	return &Client{
		http:      httputil.NewWithTimeout(log, 90*time.Second),
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    log,
	}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const systemPrompt = "You are an equity research analyst. Answer concisely " +
	"with concrete figures where possible: upside/downside percentages, " +
	"risk levels on a 1-10 scale, and explicit bullish/bearish language."

// Analyze requests one analysis text for a ticker. An empty reply is not
// an error: the synthesizer treats it as an absent signal.
func (c *Client) Analyze(ctx context.Context, ticker string, kind contracts.AnalysisKind) (string, error) {
	prompt, ok := prompts[kind]
	if !ok {
		return "", fmt.Errorf("unknown analysis kind %q", kind)
	}

	reqBody := messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
		Messages: []message{
			{Role: "user", Content: fmt.Sprintf(prompt, ticker)},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("analysis http %d: %s", resp.StatusCode, string(body))
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("analysis error: %s", parsed.Error.Message)
	}

	for _, block := range parsed.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"kind":   string(kind),
	}).Warn("Analysis reply carried no text")

	return "", nil
}

// prompts maps each analysis kind to its request template. The phrasing
// deliberately asks for the figures the extractor looks for.
var prompts = map[contracts.AnalysisKind]string{
	contracts.AnalysisDCF: "Run a discounted cash flow analysis for %s. " +
		"State the implied upside or downside as a percentage versus the current price.",
	contracts.AnalysisComparable: "Compare %s to its sector peers on valuation multiples. " +
		"State the implied upside or downside as a percentage versus the current price.",
	contracts.AnalysisSentiment: "Summarize current market sentiment for %s, including analyst " +
		"ratings, insider activity and notable buy or sell calls. Label the overall tone " +
		"bullish, very bullish, bearish or very bearish.",
	contracts.AnalysisRisk: "Assess the key risks for %s: leverage, competition, regulation, " +
		"concentration. Rate overall risk on a scale of 1/10 to 10/10.",
	contracts.AnalysisEarnings: "Review the latest earnings for %s: beat or miss versus " +
		"consensus, guidance changes, and revenue growth trends.",
}
