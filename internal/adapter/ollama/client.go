// Package ollama adapts a local Ollama instance to the domain
// InferenceClient port. The model receives a structured summary of recent
// observations and answers with a JSON array of classifications.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/weather-watch/internal/domain"
)

const (
	defaultURL   = "http://localhost:11434/api/generate"
	defaultModel = "gemma3"
)

// Client implements domain.InferenceClient against the Ollama generate API.
type Client struct {
	url        string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an Ollama client. Empty url or model select the defaults.
// The timeout bounds the whole generate call; local models can be slow, so
// configure this well above the weather provider timeout.
func NewClient(url, model string, timeout time.Duration, logger *slog.Logger) *Client {
	if url == "" {
		url = defaultURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		url:    url,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Classify sends the summary to the model and parses its findings.
// All failure modes return a *domain.InferenceError; callers degrade to
// threshold-only detection.
func (c *Client) Classify(ctx context.Context, summary domain.ObservationSummary) ([]domain.Classification, error) {
	prompt, err := buildPrompt(summary)
	if err != nil {
		return nil, &domain.InferenceError{Op: "build prompt", Err: err}
	}

	reqBody, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return nil, &domain.InferenceError{Op: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, &domain.InferenceError{Op: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.InferenceError{Op: "generate", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &domain.InferenceError{
			Op:  "generate",
			Err: fmt.Errorf("status %d: %.200s", resp.StatusCode, body),
		}
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return nil, &domain.InferenceError{Op: "decode response", Err: err}
	}
	if gen.Response == "" {
		return nil, &domain.InferenceError{Op: "decode response", Err: fmt.Errorf("response field missing or empty")}
	}

	return parseClassifications(gen.Response, c.logger)
}

// parseClassifications handles the shapes the model actually produces:
// the requested array, a bare single object, or an empty object for
// "nothing found". Anything else is an InferenceError.
func parseClassifications(raw string, logger *slog.Logger) ([]domain.Classification, error) {
	var list []domain.Classification
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list, nil
	}

	var single map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &single); err != nil {
		return nil, &domain.InferenceError{Op: "parse classifications", Err: fmt.Errorf("neither array nor object: %.200s", raw)}
	}
	if len(single) == 0 {
		return nil, nil
	}

	var cl domain.Classification
	if err := json.Unmarshal([]byte(raw), &cl); err != nil {
		return nil, &domain.InferenceError{Op: "parse classifications", Err: err}
	}
	logger.Warn("model returned a single object, wrapping in list", "event_type", cl.EventType)
	return []domain.Classification{cl}, nil
}

// buildPrompt renders the conservative-forecaster prompt with the summary
// series inlined as JSON. The default answer is an empty array; the model
// only reports findings that breach the stated thresholds.
func buildPrompt(summary domain.ObservationSummary) (string, error) {
	series, err := json.MarshalIndent(summary.Series, "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`ROLE:
You are a cautious meteorological analyst.

GOLDEN RULE: BE SKEPTICAL. The default answer is an empty array [].

INPUT:
Recent weather observations for %s:
%s

ALERT THRESHOLDS (report only when breached):
- wildfire_risk (HIGH, CRITICAL at 5+ days): temp_c > 37 for at least 3 observations AND humidity < 40.
- heat_stress (HIGH): temp_c > 38 AND uv_index > 10 for at least 2 observations.
- pest_outbreak (MEDIUM): humidity > 90 for at least 4 observations AND temp_c > 25.

OUTPUT:
Answer ONLY with a JSON array of objects. If there is no risk, answer [].
Each object:
{
  "event_type": "one of wildfire_risk, heat_stress, pest_outbreak",
  "severity": "one of MEDIUM, HIGH, CRITICAL",
  "details": "describe the risk and cite the evidence numbers",
  "advice": "one concrete recommended action"
}`, summary.LocationName, series), nil
}
