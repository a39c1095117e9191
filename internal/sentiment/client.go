package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	sentimentPath      = "/text/analytics/v3.1/sentiment"
	defaultHTTPTimeout = 75 * time.Second
)

// Score is a snapshot of one analyzer call: a categorical label plus three
// confidence values rounded to two decimal places.
type Score struct {
	Label    string
	Positive float64
	Neutral  float64
	Negative float64
}

// ClientConfig describes the sentiment service connection.
type ClientConfig struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
}

// Client calls the Azure AI Language sentiment endpoint. There is no
// maintained Go SDK for this service, so the REST surface is used directly.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs the sentiment analyzer client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("sentiment: endpoint is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("sentiment: api key is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{
		endpoint:   strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: httpClient,
	}, nil
}

type sentimentRequest struct {
	Documents []sentimentDocument `json:"documents"`
}

type sentimentDocument struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type sentimentResponse struct {
	Documents []struct {
		ID               string `json:"id"`
		Sentiment        string `json:"sentiment"`
		ConfidenceScores struct {
			Positive float64 `json:"positive"`
			Neutral  float64 `json:"neutral"`
			Negative float64 `json:"negative"`
		} `json:"confidenceScores"`
	} `json:"documents"`
	Errors []struct {
		ID    string `json:"id"`
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"errors"`
}

// AnalyzeSentiment classifies the narrative as a single-document batch and
// returns the first document's label and confidence scores.
func (c *Client) AnalyzeSentiment(ctx context.Context, text string) (Score, error) {
	if strings.TrimSpace(text) == "" {
		return Score{}, fmt.Errorf("sentiment: text is required")
	}

	payload, err := json.Marshal(sentimentRequest{
		Documents: []sentimentDocument{{ID: "1", Text: text}},
	})
	if err != nil {
		return Score{}, fmt.Errorf("sentiment: encoding request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+sentimentPath, bytes.NewReader(payload))
	if err != nil {
		return Score{}, fmt.Errorf("sentiment: building request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return Score{}, fmt.Errorf("sentiment: calling service: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return Score{}, fmt.Errorf("sentiment: reading response: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return Score{}, fmt.Errorf("sentiment: service returned status %d: %s", response.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded sentimentResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Score{}, fmt.Errorf("sentiment: decoding response: %w", err)
	}
	if len(decoded.Documents) == 0 {
		if len(decoded.Errors) > 0 {
			return Score{}, fmt.Errorf("sentiment: document rejected: %s: %s", decoded.Errors[0].Error.Code, decoded.Errors[0].Error.Message)
		}
		return Score{}, fmt.Errorf("sentiment: response contained no documents")
	}

	document := decoded.Documents[0]
	return Score{
		Label:    document.Sentiment,
		Positive: roundScore(document.ConfidenceScores.Positive),
		Neutral:  roundScore(document.ConfidenceScores.Neutral),
		Negative: roundScore(document.ConfidenceScores.Negative),
	}, nil
}

func roundScore(value float64) float64 {
	return math.Round(value*100) / 100
}
