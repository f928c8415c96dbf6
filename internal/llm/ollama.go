package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"
)

// OllamaClient calls a local Ollama instance's generate API.
// See: https://github.com/ollama/ollama/blob/main/docs/api.md
type OllamaClient struct {
	http        *http.Client
	baseURL     string
	model       string
	temperature float32
}

// NewOllamaClient creates an Ollama client. Empty baseURL falls back to the
// OLLAMA_BASE_URL env var, then to the default local instance.
func NewOllamaClient(baseURL, model string, timeout time.Duration) *OllamaClient {
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaClient{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		model:   model,
		// Near-zero temperature: stages expect structured output.
		temperature: 0,
	}
}

func (o *OllamaClient) Name() string { return "Ollama:" + o.model }
func (o *OllamaClient) Close() error { return nil }

type ollamaGenerateReq struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResp struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate assembles a single prompt from prompt + input and returns the raw
// completion text. Transport failures come back as *GatewayError.
func (o *OllamaClient) Generate(ctx context.Context, prompt string, input any) (string, error) {
	full := prompt
	if input != nil {
		in, _ := json.MarshalIndent(input, "", "  ")
		full = prompt + "\n\n[INPUT JSON]\n" + string(in)
	}

	reqBody := ollamaGenerateReq{
		Model:  o.model,
		Prompt: full,
		Stream: false,
		Options: map[string]any{
			"temperature": o.temperature,
		},
	}
	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(b))
	if err != nil {
		return "", NewPermanentError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		return "", NewGatewayError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", NewGatewayError(errors.New("ollama: unexpected status " + resp.Status))
	}
	var out ollamaGenerateResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", NewGatewayError(err)
	}
	if out.Response == "" {
		return "", ErrEmptyCompletion
	}
	return out.Response, nil
}
